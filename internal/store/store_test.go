package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/models"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRoom(id string, version int64, lastActivity time.Time) *models.Room {
	owner := uuid.New()
	return &models.Room{
		ID:             id,
		OwnerID:        &owner,
		Status:         models.RoomStatusActive,
		Version:        version,
		CreatedAt:      t0,
		LastActivityAt: lastActivity,
		Participants: []models.Participant{{
			UserID:            owner,
			DisplayName:       "Ada",
			Role:              models.RoleInstructor,
			ConnectionQuality: models.QualityGood,
			JoinedAt:          t0,
		}},
		Attendance: []models.AttendanceInterval{{UserID: owner, RoomID: id, JoinedAt: t0}},
	}
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, s Store, prefix string) {
	ctx := context.Background()
	id := prefix + uuid.NewString()

	t.Run("missing room", func(t *testing.T) {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("create and read back", func(t *testing.T) {
		room := newRoom(id, 1, t0)
		require.NoError(t, s.Save(ctx, room, 0))

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, room.Participants[0].UserID, got.Participants[0].UserID)
		assert.True(t, got.LastActivityAt.Equal(t0))
	})

	t.Run("second create conflicts", func(t *testing.T) {
		err := s.Save(ctx, newRoom(id, 1, t0), 0)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("stale update conflicts", func(t *testing.T) {
		room, err := s.Get(ctx, id)
		require.NoError(t, err)
		room.Version = 2
		require.NoError(t, s.Save(ctx, room, 1))

		stale := newRoom(id, 2, t0)
		assert.ErrorIs(t, s.Save(ctx, stale, 1), ErrVersionConflict)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("returned rooms are independent copies", func(t *testing.T) {
		a, err := s.Get(ctx, id)
		require.NoError(t, err)
		a.Participants[0].DisplayName = "changed"

		b, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ada", b.Participants[0].DisplayName)
	})

	t.Run("idle listing skips recent and closed rooms", func(t *testing.T) {
		idle := prefix + uuid.NewString()
		recent := prefix + uuid.NewString()
		closed := prefix + uuid.NewString()
		old := t0.Add(-2 * time.Hour)

		require.NoError(t, s.Save(ctx, newRoom(idle, 1, old), 0))
		require.NoError(t, s.Save(ctx, newRoom(recent, 1, t0.Add(time.Hour)), 0))
		room := newRoom(closed, 1, old)
		room.Status = models.RoomStatusClosed
		require.NoError(t, s.Save(ctx, room, 0))

		list, err := s.ListIdle(ctx, t0.Add(-time.Hour), 100)
		require.NoError(t, err)
		var ids []string
		for _, sum := range list {
			ids = append(ids, sum.RoomID)
		}
		assert.Contains(t, ids, idle)
		assert.NotContains(t, ids, recent)
		assert.NotContains(t, ids, closed)
	})
}
