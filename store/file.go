package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sicko7947/rollcall"
)

// Data file names inside the data directory
const (
	MeetingFileName    = "meeting.json"
	AttendanceFileName = "attendance.json"
)

// FileStore implements rollcall.Backend on two JSON files. Both collections
// are cached in memory and every mutation rewrites the whole file before the
// cache is updated.
type FileStore struct {
	meetingPath    string
	attendancePath string
	logger         zerolog.Logger

	meetingMu sync.RWMutex
	meeting   *rollcall.MeetingDocument

	attendanceMu sync.RWMutex
	attendance   []*rollcall.AttendanceRecord // insertion order
}

// NewFileStore opens (or creates) the data directory. Missing or unreadable
// data files are logged and replaced by an empty collection.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &FileStore{
		meetingPath:    filepath.Join(dir, MeetingFileName),
		attendancePath: filepath.Join(dir, AttendanceFileName),
		logger:         logger.With().Str("component", "file_store").Logger(),
	}

	s.meeting = loadJSON[*rollcall.MeetingDocument](s.meetingPath, nil, s.logger)
	if s.meeting != nil && s.meeting.MeetingDate == "" {
		rollcall.LogFileFallback(s.logger, s.meetingPath, errors.New("meeting has no date"))
		s.meeting = nil
	}
	s.attendance = loadJSON(s.attendancePath, []*rollcall.AttendanceRecord{}, s.logger)
	s.attendance = slices.DeleteFunc(s.attendance, func(rec *rollcall.AttendanceRecord) bool {
		return rec == nil
	})

	return s, nil
}

// Meeting operations

func (s *FileStore) LatestMeeting(ctx context.Context) (*rollcall.MeetingDocument, error) {
	s.meetingMu.RLock()
	defer s.meetingMu.RUnlock()

	if s.meeting == nil {
		return nil, fmt.Errorf("meeting: %w", rollcall.ErrNotFound)
	}

	docCopy := *s.meeting
	return &docCopy, nil
}

// SaveMeeting overwrites the single stored meeting
func (s *FileStore) SaveMeeting(ctx context.Context, doc *rollcall.MeetingDocument) error {
	s.meetingMu.Lock()
	defer s.meetingMu.Unlock()

	docCopy := *doc
	if err := saveJSON(s.meetingPath, &docCopy); err != nil {
		return fmt.Errorf("failed to save meeting: %w", err)
	}
	s.meeting = &docCopy

	return nil
}

// Attendance operations

func (s *FileStore) InsertAttendance(ctx context.Context, rec *rollcall.AttendanceRecord) error {
	s.attendanceMu.Lock()
	defer s.attendanceMu.Unlock()

	for _, existing := range s.attendance {
		if existing.ID == rec.ID {
			return fmt.Errorf("attendance record %s already exists", rec.ID)
		}
	}

	recCopy := *rec
	next := append(slices.Clone(s.attendance), &recCopy)
	if err := saveJSON(s.attendancePath, next); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	s.attendance = next

	return nil
}

func (s *FileStore) ListAttendance(ctx context.Context, filter rollcall.AttendanceFilter) ([]*rollcall.AttendanceRecord, error) {
	s.attendanceMu.RLock()
	defer s.attendanceMu.RUnlock()

	records := []*rollcall.AttendanceRecord{}
	for _, rec := range s.attendance {
		if !filter.Matches(rec) {
			continue
		}
		recCopy := *rec
		records = append(records, &recCopy)
	}

	return records, nil
}

func (s *FileStore) DeleteAttendance(ctx context.Context, id string) (*rollcall.AttendanceRecord, error) {
	s.attendanceMu.Lock()
	defer s.attendanceMu.Unlock()

	idx := slices.IndexFunc(s.attendance, func(rec *rollcall.AttendanceRecord) bool {
		return rec.ID.String() == id
	})
	if idx < 0 {
		return nil, fmt.Errorf("attendance record %s: %w", id, rollcall.ErrNotFound)
	}

	removed := s.attendance[idx]
	next := slices.Delete(slices.Clone(s.attendance), idx, idx+1)
	if err := saveJSON(s.attendancePath, next); err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}
	s.attendance = next

	return removed, nil
}

func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

// loadJSON reads path into a T. A missing or corrupt file yields def.
func loadJSON[T any](path string, def T, logger zerolog.Logger) T {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info().Str("path", path).Msg("Data file not found, starting empty")
		} else {
			rollcall.LogFileFallback(logger, path, err)
		}
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		rollcall.LogFileFallback(logger, path, err)
		return def
	}
	return v
}

// saveJSON writes v to a temp file next to path, syncs it and renames it into place
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
