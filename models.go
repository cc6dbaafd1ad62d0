package rollcall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for meeting dates (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Meeting is the current meeting as seen by callers
type Meeting struct {
	MeetingDate string `json:"meetingDate"`
	Agenda      string `json:"agenda"`
}

// MeetingDocument is the persisted form of a meeting.
// A document backend may hold several; the one with the latest UpdatedAt is current.
type MeetingDocument struct {
	ID          string    `json:"id" dynamodbav:"id" bson:"_id"`
	MeetingDate string    `json:"meetingDate" dynamodbav:"meeting_date" bson:"meetingDate"`
	Agenda      string    `json:"agenda" dynamodbav:"agenda" bson:"agenda"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at" bson:"updatedAt"`
}

// Meeting returns the caller-facing view of the document
func (d *MeetingDocument) Meeting() *Meeting {
	return &Meeting{
		MeetingDate: d.MeetingDate,
		Agenda:      d.Agenda,
	}
}

// RecordID identifies an attendance record. It always compares as a string,
// whatever representation the backend uses natively.
type RecordID string

// String returns the string form of the id
func (id RecordID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both JSON strings and JSON numbers, so ledgers written
// with numeric ids still match their string form on delete.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// AttendanceRecord is one entry in the attendance ledger.
// MeetingDate and Agenda are copied from the meeting at submission time and
// never change afterwards.
type AttendanceRecord struct {
	ID          RecordID  `json:"id" dynamodbav:"id" bson:"_id"`
	Name        string    `json:"name" dynamodbav:"name" bson:"name"`
	Branch      string    `json:"branch" dynamodbav:"branch" bson:"branch"`
	Year        string    `json:"year" dynamodbav:"year" bson:"year"`
	MeetingDate string    `json:"meetingDate" dynamodbav:"meeting_date" bson:"meetingDate"`
	Agenda      string    `json:"agenda" dynamodbav:"agenda" bson:"agenda"`
	Timestamp   time.Time `json:"timestamp" dynamodbav:"timestamp" bson:"timestamp"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at" bson:"updatedAt"`
}

// AttendanceInput is a request to mark someone present.
// MeetingDate and Agenda are optional; missing values come from the current meeting.
type AttendanceInput struct {
	Name        string `json:"name" validate:"required"`
	Branch      string `json:"branch" validate:"required"`
	Year        string `json:"year" validate:"required"`
	MeetingDate string `json:"meetingDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Agenda      string `json:"agenda,omitempty"`
}

// AttendanceFilter selects ledger entries
type AttendanceFilter struct {
	MeetingDate string
}

// Matches reports whether the record passes the filter
func (f AttendanceFilter) Matches(rec *AttendanceRecord) bool {
	if f.MeetingDate != "" && rec.MeetingDate != f.MeetingDate {
		return false
	}
	return true
}
