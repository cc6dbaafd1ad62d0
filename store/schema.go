package store

import (
	"fmt"
	"time"
)

// DynamoDB schema constants for single-table design.
// Every read goes to the base table with ConsistentRead, so a write is
// visible to the next read from any process.
const (
	// Table attributes
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "entity_type"

	// Entity types
	EntityTypeMeeting         = "Meeting"
	EntityTypeAttendance      = "Attendance"
	EntityTypeAttendanceIndex = "AttendanceIndex"
)

// sortKeyTimeLayout is fixed width so sort keys order lexicographically by time
const sortKeyTimeLayout = "2006-01-02T15:04:05.000000000Z"

func sortKeyTime(t time.Time) string {
	return t.UTC().Format(sortKeyTimeLayout)
}

// Key builders for single-table design

// Meeting keys: PK=MEETING, SK=DOC#{id}. All meetings share one partition.
func meetingPK() string {
	return "MEETING"
}

func meetingSK(id string) string {
	return fmt.Sprintf("DOC#%s", id)
}

func meetingPrefix() string {
	return "DOC#"
}

// Ledger keys: PK=DATE#{meetingDate}, SK=TS#{timestamp}#{id}
func ledgerPK(meetingDate string) string {
	return fmt.Sprintf("DATE#%s", meetingDate)
}

func ledgerSK(timestamp time.Time, id string) string {
	return fmt.Sprintf("TS#%s#%s", sortKeyTime(timestamp), id)
}

func ledgerPrefix() string {
	return "TS#"
}

// Id lookup keys: PK=ATTENDANCE#{id}, SK=META. Holds a copy of the record so
// delete by id can find its ledger item.
func attendanceIndexPK(id string) string {
	return fmt.Sprintf("ATTENDANCE#%s", id)
}

func attendanceIndexSK() string {
	return "META"
}
