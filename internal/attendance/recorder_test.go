package attendance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/repository"
)

type fakeEvents map[string]model.Event

func (f fakeEvents) GetByID(_ context.Context, id string) (model.Event, error) {
	e, ok := f[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

type fakeMembers map[string]model.MemberSnapshot

func (f fakeMembers) Snapshot(_ context.Context, id string) (model.MemberSnapshot, error) {
	m, ok := f[id]
	if !ok {
		return model.MemberSnapshot{}, repository.ErrNotFound
	}
	return m, nil
}

// memStore enforces the (event, member) unique key like the table does.
type memStore struct {
	mu   sync.Mutex
	rows map[[2]string]model.Attendance
}

func newMemStore() *memStore { return &memStore{rows: map[[2]string]model.Attendance{}} }

func (s *memStore) Find(_ context.Context, eventID, memberID string) (model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[[2]string{eventID, memberID}]
	if !ok {
		return model.Attendance{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *memStore) Insert(_ context.Context, a model.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]string{a.EventID, a.MemberID}
	if _, ok := s.rows[k]; ok {
		return repository.ErrDuplicate
	}
	s.rows[k] = a
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// gatedStore holds the first n pre-check Finds until all n have arrived, so
// every caller passes the existence check and the unique key has to decide.
type gatedStore struct {
	*memStore
	n       int32
	arrived atomic.Int32
	gate    chan struct{}
}

func (g *gatedStore) Find(ctx context.Context, eventID, memberID string) (model.Attendance, error) {
	if k := g.arrived.Add(1); k <= g.n {
		if k == g.n {
			close(g.gate)
		}
		<-g.gate
	}
	return g.memStore.Find(ctx, eventID, memberID)
}

const (
	activeEvent   = "e-active"
	inactiveEvent = "e-closed"
	memberID      = "6f1d2c3b-4a59-4e7f-8a1b-2c3d4e5f6a7b"
	adminID       = "a-1"
)

func fixtures() (fakeEvents, fakeMembers) {
	events := fakeEvents{
		activeEvent:   {ID: activeEvent, Name: "ورشة القيادة", IsActive: true},
		inactiveEvent: {ID: inactiveEvent, Name: "مؤتمر مغلق", IsActive: false},
	}
	members := fakeMembers{
		memberID: {ID: memberID, FullNameAr: "أحمد محمد علي حسن", MemberNumber: "CA-00001"},
	}
	return events, members
}

func TestRecordThenDuplicateKeepsOriginalTimestamp(t *testing.T) {
	events, members := fixtures()
	store := newMemStore()
	r := NewRecorder(events, members, store, nil)

	t1 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return t1 }
	first, err := r.Record(context.Background(), activeEvent, memberID, adminID)
	require.NoError(t, err)
	assert.Equal(t, Recorded, first.Outcome)
	assert.Equal(t, t1, first.ScannedAt)
	assert.Equal(t, "CA-00001", first.Member.MemberNumber)
	assert.Equal(t, "ورشة القيادة", first.EventName)

	r.now = func() time.Time { return t1.Add(time.Hour) }
	second, err := r.Record(context.Background(), activeEvent, memberID, adminID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyAttended, second.Outcome)
	assert.Equal(t, t1, second.ScannedAt)
	assert.Equal(t, first.AttendanceID, second.AttendanceID)
	assert.Equal(t, "CA-00001", second.Member.MemberNumber)

	assert.Equal(t, 1, store.count())
}

func TestRecordRejections(t *testing.T) {
	events, members := fixtures()

	tests := []struct {
		name     string
		eventID  string
		memberID string
		want     Outcome
	}{
		{"unknown event", "nope", memberID, EventNotFound},
		{"inactive event", inactiveEvent, memberID, EventInactive},
		{"unknown member", activeEvent, "00000000-0000-0000-0000-000000000000", MemberNotFound},
		{"unknown event wins over unknown member", "nope", "nobody", EventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			res, err := NewRecorder(events, members, store, nil).Record(context.Background(), tt.eventID, tt.memberID, adminID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Zero(t, store.count())
		})
	}
}

func TestInactiveEventIgnoresPriorAttendance(t *testing.T) {
	events, members := fixtures()
	store := newMemStore()
	require.NoError(t, store.Insert(context.Background(), model.Attendance{ID: "x", EventID: inactiveEvent, MemberID: memberID}))

	res, err := NewRecorder(events, members, store, nil).Record(context.Background(), inactiveEvent, memberID, adminID)
	require.NoError(t, err)
	assert.Equal(t, EventInactive, res.Outcome)
	assert.Equal(t, 1, store.count())
}

func TestConcurrentScansRecordOnce(t *testing.T) {
	events, members := fixtures()
	const n = 50
	store := &gatedStore{memStore: newMemStore(), n: n, gate: make(chan struct{})}
	r := NewRecorder(events, members, store, nil)

	var wg sync.WaitGroup
	var recorded, already, failed atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Record(context.Background(), activeEvent, memberID, adminID)
			switch {
			case err != nil:
				failed.Add(1)
			case res.Outcome == Recorded:
				recorded.Add(1)
			case res.Outcome == AlreadyAttended:
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failed.Load())
	assert.Equal(t, int32(1), recorded.Load())
	assert.Equal(t, int32(n-1), already.Load())
	assert.Equal(t, 1, store.count())
}

type brokenStore struct{ *memStore }

func (brokenStore) Insert(context.Context, model.Attendance) error {
	return errors.New("lock wait timeout")
}

func TestInfrastructureErrorsAreReturned(t *testing.T) {
	events, members := fixtures()
	_, err := NewRecorder(events, members, brokenStore{newMemStore()}, nil).
		Record(context.Background(), activeEvent, memberID, adminID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock wait timeout")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ALREADY_ATTENDED", AlreadyAttended.String())
	assert.Equal(t, "UNKNOWN", Outcome(0).String())
}
