package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceInterval is one continuous presence span. LeftAt nil means currently present.
type AttendanceInterval struct {
	UserID   uuid.UUID  `json:"user_id"`
	RoomID   string     `json:"room_id"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// Open reports whether the interval has not been closed yet.
func (a *AttendanceInterval) Open() bool {
	return a.LeftAt == nil
}

// Duration returns the closed span, or the span up to now when still open.
func (a *AttendanceInterval) Duration(now time.Time) time.Duration {
	end := now
	if a.LeftAt != nil {
		end = *a.LeftAt
	}
	if end.Before(a.JoinedAt) {
		return 0
	}
	return end.Sub(a.JoinedAt)
}
