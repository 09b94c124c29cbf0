package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/store"
)

// Sweeper closes rooms that saw no traffic for the orphan TTL. Each close goes through
// the coordinator, so a room that woke up between listing and locking is left alone.
type Sweeper struct {
	coord    *Coordinator
	store    store.Store
	ttl      time.Duration
	interval time.Duration
	batch    int
	logger   *zap.Logger
}

// NewSweeper creates a sweeper. interval is the pause between passes.
func NewSweeper(coord *Coordinator, s store.Store, ttl, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{coord: coord, store: s, ttl: ttl, interval: interval, batch: 200, logger: logger}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("orphan sweeper started", zap.Duration("ttl", s.ttl), zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("orphan sweep", zap.Error(err))
			}
		}
	}
}

// SweepOnce runs a single pass and returns the number of rooms closed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.coord.Now().Add(-s.ttl)
	idle, err := s.store.ListIdle(ctx, cutoff, s.batch)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, sum := range idle {
		out, err := s.coord.Apply(ctx, sum.RoomID, classroom.SweepIdleAction{Cutoff: cutoff})
		if err != nil {
			if ctx.Err() != nil {
				return closed, ctx.Err()
			}
			s.logger.Warn("sweep room", zap.String("room_id", sum.RoomID), zap.Error(err))
			continue
		}
		if out.Changed {
			closed++
			s.logger.Info("closed orphaned room", zap.String("room_id", sum.RoomID), zap.Time("last_activity_at", sum.LastActivityAt))
		}
	}
	return closed, nil
}
