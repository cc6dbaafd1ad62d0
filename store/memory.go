package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sicko7947/rollcall"
)

// MemoryStore implements rollcall.Backend using in-memory storage (for testing)
type MemoryStore struct {
	meetings   map[string]*rollcall.MeetingDocument
	attendance []*rollcall.AttendanceRecord // insertion order
	mu         sync.RWMutex
}

// NewMemoryStore creates a new in-memory backend
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings: make(map[string]*rollcall.MeetingDocument),
	}
}

// Meeting operations

func (s *MemoryStore) LatestMeeting(ctx context.Context) (*rollcall.MeetingDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *rollcall.MeetingDocument
	for _, doc := range s.meetings {
		if latest == nil || doc.UpdatedAt.After(latest.UpdatedAt) ||
			(doc.UpdatedAt.Equal(latest.UpdatedAt) && doc.ID > latest.ID) {
			latest = doc
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("meeting: %w", rollcall.ErrNotFound)
	}

	// Deep copy
	docCopy := *latest
	return &docCopy, nil
}

func (s *MemoryStore) SaveMeeting(ctx context.Context, doc *rollcall.MeetingDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep copy
	docCopy := *doc
	s.meetings[doc.ID] = &docCopy

	return nil
}

// Attendance operations

func (s *MemoryStore) InsertAttendance(ctx context.Context, rec *rollcall.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.attendance {
		if existing.ID == rec.ID {
			return fmt.Errorf("attendance record %s already exists", rec.ID)
		}
	}

	// Deep copy
	recCopy := *rec
	s.attendance = append(s.attendance, &recCopy)

	return nil
}

func (s *MemoryStore) ListAttendance(ctx context.Context, filter rollcall.AttendanceFilter) ([]*rollcall.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []*rollcall.AttendanceRecord{}
	for _, rec := range s.attendance {
		if !filter.Matches(rec) {
			continue
		}

		// Deep copy
		recCopy := *rec
		records = append(records, &recCopy)
	}

	return records, nil
}

func (s *MemoryStore) DeleteAttendance(ctx context.Context, id string) (*rollcall.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.attendance {
		if rec.ID.String() != id {
			continue
		}
		s.attendance = slices.Delete(s.attendance, i, i+1)
		return rec, nil
	}

	return nil, fmt.Errorf("attendance record %s: %w", id, rollcall.ErrNotFound)
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
