package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/rollcall"
)

// DynamoDBStore implements rollcall.Backend using AWS DynamoDB
type DynamoDBStore struct {
	client    DynamoDBClient
	tableName string
}

// NewDynamoDBStore creates a new DynamoDB-backed store
func NewDynamoDBStore(client DynamoDBClient, tableName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
	}
}

// Meeting operations

// LatestMeeting reads every meeting document and returns the most recently updated
func (s *DynamoDBStore) LatestMeeting(ctx context.Context) (*rollcall.MeetingDocument, error) {
	var latest *rollcall.MeetingDocument

	err := s.queryAll(ctx, meetingPK(), meetingPrefix(), func(item map[string]types.AttributeValue) error {
		var doc rollcall.MeetingDocument
		if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal meeting: %w", err)
		}
		if latest == nil || doc.UpdatedAt.After(latest.UpdatedAt) ||
			(doc.UpdatedAt.Equal(latest.UpdatedAt) && doc.ID > latest.ID) {
			latest = &doc
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest meeting: %w", err)
	}

	if latest == nil {
		return nil, fmt.Errorf("meeting: %w", rollcall.ErrNotFound)
	}
	return latest, nil
}

func (s *DynamoDBStore) SaveMeeting(ctx context.Context, doc *rollcall.MeetingDocument) error {
	// Marshal the meeting
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal meeting: %w", err)
	}

	// Add keys
	item[AttrPK] = &types.AttributeValueMemberS{Value: meetingPK()}
	item[AttrSK] = &types.AttributeValueMemberS{Value: meetingSK(doc.ID)}
	item[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeMeeting}

	// Put item (create or replace)
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save meeting: %w", err)
	}

	return nil
}

// Attendance operations

// InsertAttendance writes the ledger item and its id lookup item atomically
func (s *DynamoDBStore) InsertAttendance(ctx context.Context, rec *rollcall.AttendanceRecord) error {
	ledgerItem, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal attendance record: %w", err)
	}
	indexItem, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal attendance record: %w", err)
	}

	id := rec.ID.String()
	ledgerItem[AttrPK] = &types.AttributeValueMemberS{Value: ledgerPK(rec.MeetingDate)}
	ledgerItem[AttrSK] = &types.AttributeValueMemberS{Value: ledgerSK(rec.Timestamp, id)}
	ledgerItem[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeAttendance}

	indexItem[AttrPK] = &types.AttributeValueMemberS{Value: attendanceIndexPK(id)}
	indexItem[AttrSK] = &types.AttributeValueMemberS{Value: attendanceIndexSK()}
	indexItem[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeAttendanceIndex}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.tableName),
					Item:                ledgerItem,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.tableName),
					Item:                indexItem,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	return nil
}

// ListAttendance returns the records of one meeting date in timestamp order.
// Every record carries a meeting date, so an empty filter matches nothing.
func (s *DynamoDBStore) ListAttendance(ctx context.Context, filter rollcall.AttendanceFilter) ([]*rollcall.AttendanceRecord, error) {
	records := []*rollcall.AttendanceRecord{}
	if filter.MeetingDate == "" {
		return records, nil
	}

	err := s.queryAll(ctx, ledgerPK(filter.MeetingDate), ledgerPrefix(), func(item map[string]types.AttributeValue) error {
		var rec rollcall.AttendanceRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal attendance record: %w", err)
		}
		records = append(records, &rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	return records, nil
}

// DeleteAttendance looks the record up by id and removes both of its items in one transaction
func (s *DynamoDBStore) DeleteAttendance(ctx context.Context, id string) (*rollcall.AttendanceRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: attendanceIndexPK(id)},
			AttrSK: &types.AttributeValueMemberS{Value: attendanceIndexSK()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("attendance record %s: %w", id, rollcall.ErrNotFound)
	}

	var rec rollcall.AttendanceRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attendance record: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: aws.String(s.tableName),
					Key: map[string]types.AttributeValue{
						AttrPK: &types.AttributeValueMemberS{Value: attendanceIndexPK(id)},
						AttrSK: &types.AttributeValueMemberS{Value: attendanceIndexSK()},
					},
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(s.tableName),
					Key: map[string]types.AttributeValue{
						AttrPK: &types.AttributeValueMemberS{Value: ledgerPK(rec.MeetingDate)},
						AttrSK: &types.AttributeValueMemberS{Value: ledgerSK(rec.Timestamp, id)},
					},
				},
			},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return nil, fmt.Errorf("attendance record %s: %w", id, rollcall.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete attendance record: %w", err)
	}

	return &rec, nil
}

func (s *DynamoDBStore) Close(ctx context.Context) error {
	return nil
}

// queryAll pages through a consistent query on one partition
func (s *DynamoDBStore) queryAll(ctx context.Context, pk, skPrefix string, fn func(map[string]types.AttributeValue) error) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	// Paginate through all results
	for {
		queryInput := &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			ConsistentRead:         aws.Bool(true),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
				":sk": &types.AttributeValueMemberS{Value: skPrefix},
			},
		}

		if lastEvaluatedKey != nil {
			queryInput.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := s.client.Query(ctx, queryInput)
		if err != nil {
			return err
		}

		for _, item := range result.Items {
			if err := fn(item); err != nil {
				return err
			}
		}

		// Check if there are more results
		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return nil
}

// isConditionFailure reports whether a transaction was cancelled by a failed condition check
func isConditionFailure(err error) bool {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
