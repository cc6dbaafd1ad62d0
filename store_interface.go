package rollcall

import "context"

// MeetingBackend persists meeting documents.
// Several documents may coexist; LatestMeeting returns the most recently updated one.
type MeetingBackend interface {
	// LatestMeeting returns ErrNotFound when no meeting has ever been saved
	LatestMeeting(ctx context.Context) (*MeetingDocument, error)
	// SaveMeeting creates the document or replaces the one with the same ID
	SaveMeeting(ctx context.Context, doc *MeetingDocument) error
}

// AttendanceBackend persists the attendance ledger
type AttendanceBackend interface {
	InsertAttendance(ctx context.Context, rec *AttendanceRecord) error
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]*AttendanceRecord, error)
	// DeleteAttendance removes one record and returns it, or ErrNotFound
	DeleteAttendance(ctx context.Context, id string) (*AttendanceRecord, error)
}

// Backend is a complete persistence implementation
type Backend interface {
	MeetingBackend
	AttendanceBackend

	Close(ctx context.Context) error
}
