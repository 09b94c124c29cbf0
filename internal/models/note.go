package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a participant-private annotation anchored to a position in the session.
type Note struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	RoomID           string    `json:"room_id"`
	Content          string    `json:"content"`
	TimestampSeconds int64     `json:"timestamp_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}
