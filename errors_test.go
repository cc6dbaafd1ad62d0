package rollcall

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordError_Error(t *testing.T) {
	err := NewValidationError("CreateAttendance", "name, branch, and year are required", "name")
	assert.Equal(t, "[VALIDATION_ERROR] name, branch, and year are required (op: CreateAttendance)", err.Error())

	cause := errors.New("disk full")
	storage := NewStorageError("SaveMeeting", cause)
	assert.Equal(t, "[STORAGE_ERROR] storage failure (op: SaveMeeting): disk full", storage.Error())
	assert.ErrorIs(t, storage, cause)
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		validation   bool
		precondition bool
		notFound     bool
		storage      bool
	}{
		{name: "validation", err: NewValidationError("op", "bad"), validation: true},
		{name: "precondition", err: NewPreconditionError("op", "no meeting"), precondition: true},
		{name: "not found", err: NewNotFoundError("op", "missing"), notFound: true},
		{name: "storage", err: NewStorageError("op", errors.New("boom")), storage: true},
		{name: "wrapped", err: fmt.Errorf("handler: %w", NewNotFoundError("op", "missing")), notFound: true},
		{name: "plain", err: errors.New("plain")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.precondition, IsPreconditionError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.storage, IsStorageError(tt.err))
		})
	}
}

func TestNotFoundError_WrapsSentinel(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("DeleteAttendance", "attendance record not found"), ErrNotFound)
}

func TestValidateStruct_Fields(t *testing.T) {
	err := validateStruct("CreateAttendance", AttendanceInput{Name: "Alice"}, "name, branch, and year are required")

	var re *RecordError
	assert.True(t, errors.As(err, &re))
	assert.ElementsMatch(t, []string{"branch", "year"}, re.Fields)
	assert.Equal(t, "name, branch, and year are required", re.Message)

	err = validateStruct("SetCurrentMeeting", meetingInput{MeetingDate: "tomorrow", Agenda: "x"}, "meeting date and agenda are required")
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, []string{"meetingDate"}, re.Fields)
	assert.Equal(t, "meetingDate must be a date in YYYY-MM-DD format", re.Message)
}
