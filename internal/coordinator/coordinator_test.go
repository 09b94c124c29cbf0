package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/internal/store"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCoordinator(t *testing.T) (*Coordinator, store.Store, *clock) {
	t.Helper()
	s := store.NewMemory()
	clk := &clock{now: t0}
	c := New(s, NewLocalLocker(), classroom.DefaultLimits(), nil)
	c.SetClock(clk.Now)
	return c, s, clk
}

func joinInstructor(t *testing.T, c *Coordinator, roomID string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := c.Apply(context.Background(), roomID, classroom.JoinAction{UserID: id, DisplayName: "Ada", Role: models.RoleInstructor, CanInstruct: true})
	require.NoError(t, err)
	return id
}

func TestApplyCommitsVersions(t *testing.T) {
	c, s, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := c.Snapshot(ctx, "r1")
	assert.ErrorIs(t, err, classroom.ErrRoomNotFound)

	joinInstructor(t, c, "r1")
	room, err := c.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.Version)

	stored, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, room.Version, stored.Version)
}

func TestApplyRejectsInvalidRoomID(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.Apply(context.Background(), "a/b", classroom.JoinAction{UserID: uuid.New(), DisplayName: "x"})
	assert.ErrorIs(t, err, classroom.ErrInvalidInput)
	_, err = c.Apply(context.Background(), "r1", nil)
	assert.ErrorIs(t, err, classroom.ErrInvalidInput)
}

func TestFailedActionLeavesSnapshotUntouched(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	joinInstructor(t, c, "r1")
	student := uuid.New()
	_, err := c.Apply(ctx, "r1", classroom.JoinAction{UserID: student, DisplayName: "Grace"})
	require.NoError(t, err)
	before, err := c.Snapshot(ctx, "r1")
	require.NoError(t, err)

	_, err = c.Apply(ctx, "r1", classroom.MuteAllAction{ActorID: student})
	assert.Equal(t, classroom.KindForbidden, classroom.KindOf(err))

	after, err := c.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConcurrentRaisesAreSerialized(t *testing.T) {
	c, _, clk := newTestCoordinator(t)
	ctx := context.Background()
	joinInstructor(t, c, "r1")

	const n = 25
	students := make([]uuid.UUID, n)
	for i := range students {
		students[i] = uuid.New()
		_, err := c.Apply(ctx, "r1", classroom.JoinAction{UserID: students[i], DisplayName: fmt.Sprintf("s%d", i)})
		require.NoError(t, err)
	}
	clk.Advance(time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range students {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := c.Apply(ctx, "r1", classroom.RaiseHandAction{UserID: id, Question: "why?"})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	room, err := c.Snapshot(ctx, "r1")
	require.NoError(t, err)
	pending := classroom.Pending(room)
	require.Len(t, pending, n)
	seen := make(map[uuid.UUID]bool)
	for i, h := range pending {
		assert.Equal(t, int64(i+1), h.Priority)
		assert.False(t, seen[h.UserID], "one pending raise per user")
		seen[h.UserID] = true
	}
	// 1 instructor join + n student joins + n raises.
	assert.Equal(t, int64(1+2*n), room.Version)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	s := store.NewMemory()
	limits := classroom.DefaultLimits()
	limits.MaxParticipants = 5
	c := New(s, NewLocalLocker(), limits, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	full := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Apply(ctx, "r1", classroom.JoinAction{UserID: uuid.New(), DisplayName: fmt.Sprintf("s%d", i)})
			if errors.Is(err, classroom.ErrRoomFull) {
				mu.Lock()
				full++
				mu.Unlock()
				return
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	room, err := c.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, classroom.ActiveParticipants(room), 5)
	assert.Equal(t, 7, full)
}

type conflictStore struct {
	store.Store
}

func (conflictStore) Save(context.Context, *models.Room, int64) error {
	return store.ErrVersionConflict
}

func TestVersionConflictMapsToConflictKind(t *testing.T) {
	c := New(conflictStore{Store: store.NewMemory()}, nil, classroom.DefaultLimits(), nil)
	_, err := c.Apply(context.Background(), "r1", classroom.JoinAction{UserID: uuid.New(), DisplayName: "Ada"})
	assert.ErrorIs(t, err, classroom.ErrConflict)
	assert.Equal(t, classroom.KindConflict, classroom.KindOf(err))
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Get(context.Context, string) (*models.Room, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailureIsInternal(t *testing.T) {
	c := New(brokenStore{Store: store.NewMemory()}, nil, classroom.DefaultLimits(), nil)
	_, err := c.Apply(context.Background(), "r1", classroom.LeaveAction{UserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, classroom.KindInternal, classroom.KindOf(err))
}

func TestHooksSeeCommittedChangesOnly(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	var commits []Commit
	c.OnCommit(func(_ context.Context, cm Commit) { commits = append(commits, cm) })

	teacher := joinInstructor(t, c, "r1")
	require.Len(t, commits, 1)
	assert.Nil(t, commits[0].Before)
	assert.Equal(t, int64(1), commits[0].After.Version)

	// Re-joining with identical data is a no-op.
	_, err := c.Apply(ctx, "r1", classroom.JoinAction{UserID: teacher, DisplayName: "Ada", Role: models.RoleInstructor, CanInstruct: true})
	require.NoError(t, err)
	assert.Len(t, commits, 1)

	_, err = c.Apply(ctx, "r1", classroom.CloseRoomAction{ActorID: teacher})
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.False(t, commits[1].Before.IsClosed())
	assert.True(t, commits[1].After.IsClosed())
	assert.IsType(t, classroom.CloseRoomAction{}, commits[1].Action)
}

func TestSweeperClosesIdleRoomsOnly(t *testing.T) {
	c, s, clk := newTestCoordinator(t)
	ctx := context.Background()
	joinInstructor(t, c, "idle")
	clk.Advance(50 * time.Minute)
	joinInstructor(t, c, "busy")
	clk.Advance(20 * time.Minute)

	sw := NewSweeper(c, s, time.Hour, time.Minute, nil)
	closed, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	idle, err := c.Snapshot(ctx, "idle")
	require.NoError(t, err)
	assert.True(t, idle.IsClosed())
	assert.Equal(t, models.CloseReasonOrphaned, idle.CloseReason)

	busy, err := c.Snapshot(ctx, "busy")
	require.NoError(t, err)
	assert.False(t, busy.IsClosed())

	closed, err = sw.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	c, s, _ := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(c, s, time.Hour, 5*time.Millisecond, nil).Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
