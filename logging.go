package rollcall

import (
	"github.com/rs/zerolog"
)

// Log event names
const (
	// Meeting events
	EventMeetingCreated = "meeting_created"
	EventMeetingUpdated = "meeting_updated"

	// Attendance events
	EventAttendanceCreated = "attendance_created"
	EventAttendanceDeleted = "attendance_deleted"

	// Persistence events
	EventPersistenceError = "persistence_error"
	EventFileFallback     = "file_fallback"
)

// LogMeetingCreated logs when a meeting document is first written
func LogMeetingCreated(logger zerolog.Logger, meetingID, meetingDate, agenda string, lazy bool) {
	logger.Info().
		Str("event", EventMeetingCreated).
		Str("meeting_id", meetingID).
		Str("meeting_date", meetingDate).
		Str("agenda", agenda).
		Bool("lazy", lazy).
		Msg("Meeting created")
}

// LogMeetingUpdated logs when the current meeting is replaced
func LogMeetingUpdated(logger zerolog.Logger, meetingID, meetingDate, agenda string) {
	logger.Info().
		Str("event", EventMeetingUpdated).
		Str("meeting_id", meetingID).
		Str("meeting_date", meetingDate).
		Str("agenda", agenda).
		Msg("Meeting updated")
}

// LogAttendanceCreated logs a new ledger entry
func LogAttendanceCreated(logger zerolog.Logger, rec *AttendanceRecord) {
	logger.Info().
		Str("event", EventAttendanceCreated).
		Str("record_id", rec.ID.String()).
		Str("meeting_date", rec.MeetingDate).
		Str("name", rec.Name).
		Msg("Attendance marked")
}

// LogAttendanceDeleted logs the removal of a ledger entry
func LogAttendanceDeleted(logger zerolog.Logger, rec *AttendanceRecord) {
	logger.Info().
		Str("event", EventAttendanceDeleted).
		Str("record_id", rec.ID.String()).
		Str("meeting_date", rec.MeetingDate).
		Str("name", rec.Name).
		Msg("Attendance deleted")
}

// LogPersistenceError logs errors during persistence operations
func LogPersistenceError(logger zerolog.Logger, operation string, err error) {
	logger.Error().
		Str("event", EventPersistenceError).
		Str("operation", operation).
		Err(err).
		Msg("Persistence error")
}

// LogFileFallback logs when a data file could not be read and a default was used instead
func LogFileFallback(logger zerolog.Logger, path string, err error) {
	logger.Warn().
		Str("event", EventFileFallback).
		Str("path", path).
		Err(err).
		Msg("Data file unreadable, using default")
}
