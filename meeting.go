package rollcall

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// MeetingStore owns the current meeting.
// The backend may keep several meeting documents; the most recently updated
// one is treated as current.
type MeetingStore struct {
	backend MeetingBackend
	logger  zerolog.Logger
	config  StoreConfig
	clock   Clock
	newID   IDGenerator

	// serialises lazy creation and updates
	mu sync.Mutex
}

type meetingInput struct {
	MeetingDate string `json:"meetingDate" validate:"required,datetime=2006-01-02"`
	Agenda      string `json:"agenda" validate:"required"`
}

// NewMeetingStore creates a meeting store over the given backend
func NewMeetingStore(backend MeetingBackend, opts ...Option) *MeetingStore {
	o := newOptions(opts)
	return &MeetingStore{
		backend: backend,
		logger:  o.logger.With().Str("component", "meeting_store").Logger(),
		config:  o.config,
		clock:   o.clock,
		newID:   o.newID,
	}
}

// GetCurrentMeeting returns the current meeting. On an empty store it creates
// one for today's UTC date with the default agenda, persists it and returns
// it, so repeated calls see the same meeting.
func (s *MeetingStore) GetCurrentMeeting(ctx context.Context) (*Meeting, error) {
	const op = "GetCurrentMeeting"

	doc, err := s.latest(ctx, op)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc.Meeting(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have created it while we waited
	doc, err = s.latest(ctx, op)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc.Meeting(), nil
	}

	if !s.config.AutoCreate {
		return nil, NewPreconditionError(op, "no current meeting configured")
	}

	now := s.clock().UTC()
	doc, err = s.newDocument(op)
	if err != nil {
		return nil, err
	}
	doc.MeetingDate = Today(now)
	doc.Agenda = s.config.DefaultAgenda
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := s.backend.SaveMeeting(ctx, doc); err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}

	LogMeetingCreated(s.logger, doc.ID, doc.MeetingDate, doc.Agenda, true)
	return doc.Meeting(), nil
}

// PeekCurrentMeeting returns the current meeting, or nil when none exists.
// It never creates one.
func (s *MeetingStore) PeekCurrentMeeting(ctx context.Context) (*Meeting, error) {
	doc, err := s.latest(ctx, "PeekCurrentMeeting")
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Meeting(), nil
}

// SetCurrentMeeting replaces the current meeting. Both fields are required.
// The most recent document is updated in place; a new one is created only
// when the store is empty.
func (s *MeetingStore) SetCurrentMeeting(ctx context.Context, meetingDate, agenda string) (*Meeting, error) {
	const op = "SetCurrentMeeting"

	in := meetingInput{
		MeetingDate: strings.TrimSpace(meetingDate),
		Agenda:      strings.TrimSpace(agenda),
	}
	if err := validateStruct(op, in, "meeting date and agenda are required"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.latest(ctx, op)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	created := doc == nil
	if created {
		if doc, err = s.newDocument(op); err != nil {
			return nil, err
		}
		doc.CreatedAt = now
	}
	doc.MeetingDate = in.MeetingDate
	doc.Agenda = in.Agenda
	doc.UpdatedAt = now

	if err := s.backend.SaveMeeting(ctx, doc); err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}

	if created {
		LogMeetingCreated(s.logger, doc.ID, doc.MeetingDate, doc.Agenda, false)
	} else {
		LogMeetingUpdated(s.logger, doc.ID, doc.MeetingDate, doc.Agenda)
	}
	return doc.Meeting(), nil
}

func (s *MeetingStore) latest(ctx context.Context, op string) (*MeetingDocument, error) {
	doc, err := s.backend.LatestMeeting(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		LogPersistenceError(s.logger, op, err)
		return nil, NewStorageError(op, err)
	}
	return doc, nil
}

func (s *MeetingStore) newDocument(op string) (*MeetingDocument, error) {
	id, err := s.newID()
	if err != nil {
		return nil, NewStorageError(op, err)
	}
	return &MeetingDocument{ID: id}, nil
}
