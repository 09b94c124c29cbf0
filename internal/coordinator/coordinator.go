// Package coordinator is the single entry point for room mutations. It serializes
// writers per room and commits each transition as one versioned document write.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/internal/store"
)

// Commit describes one persisted transition. Before is nil when the action created the room.
type Commit struct {
	RoomID string
	Action classroom.Action
	Before *models.Room
	After  *models.Room
}

// CommitHook runs after a commit, outside the room lock. Hooks must not mutate the rooms.
type CommitHook func(ctx context.Context, c Commit)

// Coordinator applies actions to rooms.
type Coordinator struct {
	store  store.Store
	locks  Locker
	limits classroom.Limits
	logger *zap.Logger

	mu    sync.RWMutex
	now   func() time.Time
	hooks []CommitHook
}

// New creates a coordinator over the given store and lock.
func New(s store.Store, locks Locker, limits classroom.Limits, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocalLocker()
	}
	return &Coordinator{
		store:  s,
		locks:  locks,
		limits: limits,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// OnCommit registers a hook invoked after every committed change.
func (c *Coordinator) OnCommit(h CommitHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Now returns the coordinator's current time.
func (c *Coordinator) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now()
}

// Limits returns the limits applied to every action.
func (c *Coordinator) Limits() classroom.Limits { return c.limits }

// Apply runs act against the room under its lock. Validation failures are returned
// before anything is written. A lost optimistic write surfaces as classroom.ErrConflict
// and is not retried here.
func (c *Coordinator) Apply(ctx context.Context, roomID string, act classroom.Action) (classroom.Outcome, error) {
	if act == nil || !classroom.ValidRoomID(roomID) {
		return classroom.Outcome{}, classroom.ErrInvalidInput
	}
	out, commit, err := c.commit(ctx, roomID, act)
	if err != nil {
		if kind := classroom.KindOf(err); kind != classroom.KindInternal {
			c.logger.Info("action rejected",
				zap.String("room_id", roomID),
				zap.String("action", string(act.Kind())),
				zap.String("kind", string(kind)),
				zap.Error(err))
		} else {
			c.logger.Error("action failed",
				zap.String("room_id", roomID),
				zap.String("action", string(act.Kind())),
				zap.Error(err))
		}
		return classroom.Outcome{}, err
	}
	if commit != nil {
		c.logger.Debug("action committed",
			zap.String("room_id", roomID),
			zap.String("action", string(act.Kind())),
			zap.Int64("version", out.Room.Version))
		c.mu.RLock()
		hooks := c.hooks
		c.mu.RUnlock()
		for _, h := range hooks {
			h(ctx, *commit)
		}
	}
	return out, nil
}

func (c *Coordinator) commit(ctx context.Context, roomID string, act classroom.Action) (classroom.Outcome, *Commit, error) {
	unlock, err := c.locks.Lock(ctx, roomID)
	if err != nil {
		return classroom.Outcome{}, nil, fmt.Errorf("lock room %s: %w", roomID, err)
	}
	defer unlock()

	current, err := c.store.Get(ctx, roomID)
	if err != nil {
		return classroom.Outcome{}, nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	out, err := classroom.Apply(current.Clone(), roomID, act, classroom.Env{Now: c.Now(), Limits: c.limits})
	if err != nil {
		return classroom.Outcome{}, nil, err
	}
	if !out.Changed {
		return out, nil, nil
	}
	var prev int64
	if current != nil {
		prev = current.Version
	}
	if err := c.store.Save(ctx, out.Room, prev); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return classroom.Outcome{}, nil, classroom.ErrConflict
		}
		return classroom.Outcome{}, nil, fmt.Errorf("save room %s: %w", roomID, err)
	}
	return out, &Commit{RoomID: roomID, Action: act, Before: current, After: out.Room}, nil
}

// Snapshot returns the last committed room without taking the lock.
func (c *Coordinator) Snapshot(ctx context.Context, roomID string) (*models.Room, error) {
	if !classroom.ValidRoomID(roomID) {
		return nil, classroom.ErrInvalidInput
	}
	room, err := c.store.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	if room == nil {
		return nil, classroom.ErrRoomNotFound
	}
	return room, nil
}
