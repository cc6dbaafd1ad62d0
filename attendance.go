package rollcall

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// AttendanceStore owns the attendance ledger.
// Records are append-only apart from deletion by id.
type AttendanceStore struct {
	backend  AttendanceBackend
	meetings *MeetingStore
	logger   zerolog.Logger
	clock    Clock
	newID    IDGenerator

	// serialises ledger mutations
	mu sync.Mutex
}

// NewAttendanceStore creates an attendance store. The meeting store supplies
// defaults for records submitted without a meeting date or agenda.
func NewAttendanceStore(backend AttendanceBackend, meetings *MeetingStore, opts ...Option) *AttendanceStore {
	o := newOptions(opts)
	return &AttendanceStore{
		backend:  backend,
		meetings: meetings,
		logger:   o.logger.With().Str("component", "attendance_store").Logger(),
		clock:    o.clock,
		newID:    o.newID,
	}
}

// Create marks someone present. Name, branch and year are required. A missing
// meeting date or agenda is taken from the current meeting at call time and
// copied into the record; later meeting changes do not touch it.
// The record is durable when Create returns.
func (s *AttendanceStore) Create(ctx context.Context, input AttendanceInput) (*AttendanceRecord, error) {
	const op = "CreateAttendance"

	in := AttendanceInput{
		Name:        strings.TrimSpace(input.Name),
		Branch:      strings.TrimSpace(input.Branch),
		Year:        strings.TrimSpace(input.Year),
		MeetingDate: strings.TrimSpace(input.MeetingDate),
		Agenda:      strings.TrimSpace(input.Agenda),
	}
	if err := validateStruct(op, in, "name, branch, and year are required"); err != nil {
		return nil, err
	}

	if in.MeetingDate == "" || in.Agenda == "" {
		current, err := s.meetings.GetCurrentMeeting(ctx)
		if err != nil {
			if IsPreconditionError(err) {
				return nil, NewPreconditionError(op, "no current meeting configured")
			}
			return nil, err
		}
		if in.MeetingDate == "" {
			in.MeetingDate = current.MeetingDate
		}
		if in.Agenda == "" {
			in.Agenda = current.Agenda
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return nil, NewStorageError(op, err)
	}

	now := s.clock().UTC()
	rec := &AttendanceRecord{
		ID:          RecordID(id),
		Name:        in.Name,
		Branch:      in.Branch,
		Year:        in.Year,
		MeetingDate: in.MeetingDate,
		Agenda:      in.Agenda,
		Timestamp:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.backend.InsertAttendance(ctx, rec); err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}

	LogAttendanceCreated(s.logger, rec)
	return rec, nil
}

// ListByMeetingDate returns the records for a meeting date, most recent first.
// An empty date means the current meeting's date; when there is no current
// meeting the result is empty and no meeting is created.
func (s *AttendanceStore) ListByMeetingDate(ctx context.Context, meetingDate string) ([]*AttendanceRecord, error) {
	const op = "ListAttendance"

	date := strings.TrimSpace(meetingDate)
	if date != "" && !IsValidDate(date) {
		return nil, NewValidationError(op, "meetingDate must be a date in YYYY-MM-DD format", "meetingDate")
	}
	if date == "" {
		current, err := s.meetings.PeekCurrentMeeting(ctx)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return []*AttendanceRecord{}, nil
		}
		date = current.MeetingDate
	}

	records, err := s.backend.ListAttendance(ctx, AttendanceFilter{MeetingDate: date})
	if err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}
	if records == nil {
		records = []*AttendanceRecord{}
	}

	sortNewestFirst(records)
	return records, nil
}

// Count returns the number of records for a meeting date, resolved like ListByMeetingDate
func (s *AttendanceStore) Count(ctx context.Context, meetingDate string) (int, error) {
	records, err := s.ListByMeetingDate(ctx, meetingDate)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// DeleteByID removes exactly one record and returns what was removed
func (s *AttendanceStore) DeleteByID(ctx context.Context, id string) (*AttendanceRecord, error) {
	const op = "DeleteAttendance"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewNotFoundError(op, "attendance record not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.backend.DeleteAttendance(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NewNotFoundError(op, "attendance record not found")
	}
	if err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}

	LogAttendanceDeleted(s.logger, rec)
	return rec, nil
}
