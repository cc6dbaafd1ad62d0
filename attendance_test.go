package rollcall_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/rollcall"
	"github.com/sicko7947/rollcall/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T, backend rollcall.Backend, opts ...rollcall.Option) (*rollcall.MeetingStore, *rollcall.AttendanceStore) {
	t.Helper()
	opts = testOptions(opts...)
	meetings := rollcall.NewMeetingStore(backend, opts...)
	return meetings, rollcall.NewAttendanceStore(backend, meetings, opts...)
}

func ids(records []*rollcall.AttendanceRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID.String())
	}
	return out
}

func TestAttendanceStore_KickoffScenario(t *testing.T) {
	meetings, attendance := newStores(t, store.NewMemoryStore())
	ctx := context.Background()

	_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
	require.NoError(t, err)

	alice, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: "2nd"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", alice.MeetingDate)
	assert.Equal(t, "Kickoff", alice.Agenda)
	assert.NotEmpty(t, alice.ID)

	bob, err := attendance.Create(ctx, rollcall.AttendanceInput{
		Name: "Bob", Branch: "ECE", Year: "1st", MeetingDate: "2024-05-02", Agenda: "Workshop",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", bob.MeetingDate)
	assert.Equal(t, "Workshop", bob.Agenda)

	first, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID.String()}, ids(first))

	second, err := attendance.ListByMeetingDate(ctx, "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID.String()}, ids(second))

	current, err := attendance.ListByMeetingDate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID.String()}, ids(current))
}

func TestAttendanceStore_Create_PartialOverride(t *testing.T) {
	meetings, attendance := newStores(t, store.NewMemoryStore())
	ctx := context.Background()

	_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
	require.NoError(t, err)

	rec, err := attendance.Create(ctx, rollcall.AttendanceInput{
		Name: "Carol", Branch: "ME", Year: "3rd", Agenda: "Late session",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", rec.MeetingDate)
	assert.Equal(t, "Late session", rec.Agenda)
}

func TestAttendanceStore_Create_LazyMeeting(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	meetings, attendance := newStores(t, store.NewMemoryStore(), rollcall.WithClock(fixedClock(now)))
	ctx := context.Background()

	rec, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: "Dan", Branch: "CSE", Year: "4th"})
	require.NoError(t, err)

	current, err := meetings.PeekCurrentMeeting(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, current.MeetingDate, rec.MeetingDate)
	assert.Equal(t, current.Agenda, rec.Agenda)
	assert.Equal(t, "2024-06-10", rec.MeetingDate)
	assert.Equal(t, now, rec.Timestamp)
}

func TestAttendanceStore_Create_NoCurrentMeeting(t *testing.T) {
	backend := newCountingBackend()
	_, attendance := newStores(t, backend, rollcall.WithConfig(rollcall.StoreConfig{AutoCreate: false}))
	ctx := context.Background()

	_, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: "Eve", Branch: "CSE", Year: "1st"})
	require.Error(t, err)
	assert.True(t, rollcall.IsPreconditionError(err))

	// Fully specified records do not need a current meeting
	rec, err := attendance.Create(ctx, rollcall.AttendanceInput{
		Name: "Eve", Branch: "CSE", Year: "1st", MeetingDate: "2024-05-01", Agenda: "Kickoff",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", rec.MeetingDate)
	assert.Equal(t, 0, backend.saveCount())
}

func TestAttendanceStore_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input rollcall.AttendanceInput
	}{
		{name: "empty name", input: rollcall.AttendanceInput{Name: "", Branch: "CSE", Year: "2nd"}},
		{name: "empty branch", input: rollcall.AttendanceInput{Name: "Alice", Branch: "", Year: "2nd"}},
		{name: "empty year", input: rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: ""}},
		{name: "blank name", input: rollcall.AttendanceInput{Name: "  ", Branch: "CSE", Year: "2nd"}},
		{name: "bad meeting date", input: rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: "2nd", MeetingDate: "01/05/2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meetings, attendance := newStores(t, store.NewMemoryStore())
			ctx := context.Background()

			_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
			require.NoError(t, err)

			before, err := attendance.Count(ctx, "")
			require.NoError(t, err)

			_, err = attendance.Create(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, rollcall.IsValidationError(err), "got %v", err)

			after, err := attendance.Count(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestAttendanceStore_Create_AppearsAtHead(t *testing.T) {
	base := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	meetings, attendance := newStores(t, store.NewMemoryStore(), rollcall.WithClock(clock))
	ctx := context.Background()

	_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		rec, err := attendance.Create(ctx, rollcall.AttendanceInput{
			Name: fmt.Sprintf("member-%d", i), Branch: "CSE", Year: "1st",
		})
		require.NoError(t, err)

		list, err := attendance.ListByMeetingDate(ctx, rec.MeetingDate)
		require.NoError(t, err)
		require.Len(t, list, i+1)
		assert.Equal(t, rec.ID, list[0].ID)

		seen := 0
		for _, r := range list {
			if r.ID == rec.ID {
				seen++
			}
		}
		assert.Equal(t, 1, seen)
	}
}

func TestAttendanceStore_ListByMeetingDate_TiesFavourLaterInsertion(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	_, attendance := newStores(t, store.NewMemoryStore(), rollcall.WithClock(fixedClock(now)))
	ctx := context.Background()

	var created []string
	for _, name := range []string{"A", "B", "C"} {
		rec, err := attendance.Create(ctx, rollcall.AttendanceInput{
			Name: name, Branch: "CSE", Year: "1st", MeetingDate: "2024-05-01", Agenda: "Kickoff",
		})
		require.NoError(t, err)
		created = append(created, rec.ID.String())
	}

	list, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{created[2], created[1], created[0]}, ids(list))
}

func TestAttendanceStore_ListByMeetingDate_NoMeetingNoSideEffect(t *testing.T) {
	backend := newCountingBackend()
	meetings, attendance := newStores(t, backend)
	ctx := context.Background()

	list, err := attendance.ListByMeetingDate(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	current, err := meetings.PeekCurrentMeeting(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, 0, backend.saveCount())
}

func TestAttendanceStore_ListByMeetingDate_RejectsMalformedDate(t *testing.T) {
	_, attendance := newStores(t, store.NewMemoryStore())

	_, err := attendance.ListByMeetingDate(context.Background(), "01/05/2024")
	require.Error(t, err)
	assert.True(t, rollcall.IsValidationError(err))
}

func TestAttendanceStore_RecordsKeepMeetingSnapshot(t *testing.T) {
	meetings, attendance := newStores(t, store.NewMemoryStore())
	ctx := context.Background()

	_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
	require.NoError(t, err)
	rec, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: "2nd"})
	require.NoError(t, err)

	_, err = meetings.SetCurrentMeeting(ctx, "2024-05-08", "Workshop")
	require.NoError(t, err)

	old, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, rec.ID, old[0].ID)
	assert.Equal(t, "Kickoff", old[0].Agenda)

	current, err := attendance.ListByMeetingDate(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestAttendanceStore_DeleteByID(t *testing.T) {
	meetings, attendance := newStores(t, store.NewMemoryStore())
	ctx := context.Background()

	_, err := meetings.SetCurrentMeeting(ctx, "2024-05-01", "Kickoff")
	require.NoError(t, err)

	var created []*rollcall.AttendanceRecord
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		rec, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: name, Branch: "CSE", Year: "2nd"})
		require.NoError(t, err)
		created = append(created, rec)
	}

	before, err := attendance.ListByMeetingDate(ctx, "")
	require.NoError(t, err)

	removed, err := attendance.DeleteByID(ctx, " "+created[1].ID.String()+" ")
	require.NoError(t, err)
	assert.Equal(t, created[1], removed)

	after, err := attendance.ListByMeetingDate(ctx, "")
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.ElementsMatch(t, []string{created[0].ID.String(), created[2].ID.String()}, ids(after))

	// Ids are never reused and a second delete finds nothing
	_, err = attendance.DeleteByID(ctx, created[1].ID.String())
	require.Error(t, err)
	assert.True(t, rollcall.IsNotFoundError(err))
}

func TestAttendanceStore_DeleteByID_NotFound(t *testing.T) {
	_, attendance := newStores(t, store.NewMemoryStore())

	for _, id := range []string{"", "   ", "does-not-exist"} {
		_, err := attendance.DeleteByID(context.Background(), id)
		require.Error(t, err)
		assert.True(t, rollcall.IsNotFoundError(err), "id %q: %v", id, err)
	}
}

func TestAttendanceStore_ConcurrentCreate_FileBackend(t *testing.T) {
	backend, err := store.NewFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	_, attendance := newStores(t, backend)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := attendance.Create(ctx, rollcall.AttendanceInput{
				Name: fmt.Sprintf("member-%d", i), Branch: "CSE", Year: "1st",
				MeetingDate: "2024-05-01", Agenda: "Kickoff",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, list, writers)
}

func TestAttendanceStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	input := rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: "2nd", MeetingDate: "2024-05-01", Agenda: "Kickoff"}

	t.Run("insert", func(t *testing.T) {
		backend := newCountingBackend()
		backend.failInsert = errors.New("disk full")
		_, attendance := newStores(t, backend)

		_, err := attendance.Create(ctx, input)
		require.Error(t, err)
		assert.True(t, rollcall.IsStorageError(err))

		backend.failInsert = nil
		list, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("list", func(t *testing.T) {
		backend := newCountingBackend()
		backend.failList = errors.New("connection reset")
		_, attendance := newStores(t, backend)

		_, err := attendance.ListByMeetingDate(ctx, "2024-05-01")
		require.Error(t, err)
		assert.True(t, rollcall.IsStorageError(err))
	})

	t.Run("delete", func(t *testing.T) {
		backend := newCountingBackend()
		_, attendance := newStores(t, backend)
		rec, err := attendance.Create(ctx, input)
		require.NoError(t, err)

		backend.failDelete = errors.New("connection reset")
		_, err = attendance.DeleteByID(ctx, rec.ID.String())
		require.Error(t, err)
		assert.True(t, rollcall.IsStorageError(err))
		assert.False(t, rollcall.IsNotFoundError(err))
	})

	t.Run("meeting lookup", func(t *testing.T) {
		backend := newCountingBackend()
		backend.failLatest = errors.New("connection reset")
		_, attendance := newStores(t, backend)

		_, err := attendance.Create(ctx, rollcall.AttendanceInput{Name: "Alice", Branch: "CSE", Year: "2nd"})
		require.Error(t, err)
		assert.True(t, rollcall.IsStorageError(err))
	})
}

func TestAttendanceStore_CustomIDGenerator(t *testing.T) {
	next := 0
	gen := func() (string, error) {
		next++
		return fmt.Sprintf("%d", next), nil
	}
	_, attendance := newStores(t, store.NewMemoryStore(), rollcall.WithIDGenerator(gen))
	ctx := context.Background()

	rec, err := attendance.Create(ctx, rollcall.AttendanceInput{
		Name: "Alice", Branch: "CSE", Year: "2nd", MeetingDate: "2024-05-01", Agenda: "Kickoff",
	})
	require.NoError(t, err)
	assert.Equal(t, rollcall.RecordID("1"), rec.ID)

	_, err = attendance.DeleteByID(ctx, "1")
	require.NoError(t, err)
}
