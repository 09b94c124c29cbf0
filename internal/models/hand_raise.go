package models

import (
	"time"

	"github.com/google/uuid"
)

// HandRaiseStatus moves forward only: pending -> acknowledged -> resolved.
type HandRaiseStatus string

const (
	HandRaisePending      HandRaiseStatus = "pending"
	HandRaiseAcknowledged HandRaiseStatus = "acknowledged"
	HandRaiseResolved     HandRaiseStatus = "resolved"
)

// HandRaise is one entry in a room's question queue.
type HandRaise struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	UserName       string          `json:"user_name"`
	Question       string          `json:"question,omitempty"`
	Priority       int64           `json:"priority"` // per-room sequence number, defines FIFO order
	Status         HandRaiseStatus `json:"status"`
	RaisedAt       time.Time       `json:"raised_at"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
}
