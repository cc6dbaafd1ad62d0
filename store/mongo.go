package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sicko7947/rollcall"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the legacy Node service
const (
	MongoMeetingCollection    = "meetings"
	MongoAttendanceCollection = "attendances"
)

// MongoStore implements rollcall.Backend on MongoDB. New documents use string
// ids; documents with ObjectID ids are read as hex strings and matched by
// either form.
type MongoStore struct {
	client     *mongo.Client
	meetings   *mongo.Collection
	attendance *mongo.Collection
}

type mongoMeeting struct {
	ID          any       `bson:"_id"`
	MeetingDate string    `bson:"meetingDate"`
	Agenda      string    `bson:"agenda"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type mongoAttendance struct {
	ID          any       `bson:"_id"`
	Name        string    `bson:"name"`
	Branch      string    `bson:"branch"`
	Year        string    `bson:"year"`
	MeetingDate string    `bson:"meetingDate"`
	Agenda      string    `bson:"agenda"`
	Timestamp   time.Time `bson:"timestamp"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// OpenMongoStore connects to uri and verifies the connection
func OpenMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewMongoStore(client, database), nil
}

// NewMongoStore creates a store over an already connected client
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:     client,
		meetings:   db.Collection(MongoMeetingCollection),
		attendance: db.Collection(MongoAttendanceCollection),
	}
}

// Meeting operations

func (s *MongoStore) LatestMeeting(ctx context.Context) (*rollcall.MeetingDocument, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "updatedAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	var m mongoMeeting
	err := s.meetings.FindOne(ctx, bson.M{}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("meeting: %w", rollcall.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest meeting: %w", err)
	}

	return &rollcall.MeetingDocument{
		ID:          mongoIDString(m.ID),
		MeetingDate: m.MeetingDate,
		Agenda:      m.Agenda,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// SaveMeeting updates the document with doc.ID, or inserts it when absent
func (s *MongoStore) SaveMeeting(ctx context.Context, doc *rollcall.MeetingDocument) error {
	res, err := s.meetings.UpdateOne(ctx, mongoIDFilter(doc.ID), bson.M{
		"$set": bson.M{
			"meetingDate": doc.MeetingDate,
			"agenda":      doc.Agenda,
			"updatedAt":   doc.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = s.meetings.InsertOne(ctx, mongoMeeting{
		ID:          doc.ID,
		MeetingDate: doc.MeetingDate,
		Agenda:      doc.Agenda,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// Attendance operations

func (s *MongoStore) InsertAttendance(ctx context.Context, rec *rollcall.AttendanceRecord) error {
	_, err := s.attendance.InsertOne(ctx, mongoAttendance{
		ID:          rec.ID.String(),
		Name:        rec.Name,
		Branch:      rec.Branch,
		Year:        rec.Year,
		MeetingDate: rec.MeetingDate,
		Agenda:      rec.Agenda,
		Timestamp:   rec.Timestamp,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	return nil
}

func (s *MongoStore) ListAttendance(ctx context.Context, filter rollcall.AttendanceFilter) ([]*rollcall.AttendanceRecord, error) {
	query := bson.M{}
	if filter.MeetingDate != "" {
		query["meetingDate"] = filter.MeetingDate
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.attendance.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	var docs []mongoAttendance
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode attendance: %w", err)
	}

	records := make([]*rollcall.AttendanceRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].record())
	}

	return records, nil
}

func (s *MongoStore) DeleteAttendance(ctx context.Context, id string) (*rollcall.AttendanceRecord, error) {
	var doc mongoAttendance
	err := s.attendance.FindOneAndDelete(ctx, mongoIDFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("attendance record %s: %w", id, rollcall.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete attendance record: %w", err)
	}

	return doc.record(), nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d *mongoAttendance) record() *rollcall.AttendanceRecord {
	return &rollcall.AttendanceRecord{
		ID:          rollcall.RecordID(mongoIDString(d.ID)),
		Name:        d.Name,
		Branch:      d.Branch,
		Year:        d.Year,
		MeetingDate: d.MeetingDate,
		Agenda:      d.Agenda,
		Timestamp:   d.Timestamp,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// mongoIDString renders any stored _id as a string
func mongoIDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

// mongoIDFilter matches an _id given as a string against every native form it could take
func mongoIDFilter(id string) bson.M {
	candidates := []any{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		candidates = append(candidates, oid)
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		candidates = append(candidates, n)
	}
	return bson.M{"_id": bson.M{"$in": candidates}}
}
