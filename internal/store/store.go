// Package store persists room aggregates as versioned documents.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aura-webinar/classroom/internal/models"
)

// ErrVersionConflict is returned by Save when the stored version no longer matches
// the version the caller read.
var ErrVersionConflict = errors.New("store: version conflict")

// Summary is the index entry the sweeper scans.
type Summary struct {
	RoomID         string
	LastActivityAt time.Time
}

// Store holds one document per room. Get returns nil, nil when the room does not exist.
// The returned room is owned by the caller.
type Store interface {
	Get(ctx context.Context, roomID string) (*models.Room, error)
	// Save writes room if the stored version still equals prevVersion. prevVersion 0
	// means the room must not exist yet.
	Save(ctx context.Context, room *models.Room, prevVersion int64) error
	// ListIdle returns active rooms whose last activity is before the cutoff, oldest first.
	ListIdle(ctx context.Context, before time.Time, limit int) ([]Summary, error)
}
