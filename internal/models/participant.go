package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a participant's classroom role.
type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleInstructor || r == RoleStudent
}

// ConnectionQuality is the media connection quality reported by the client.
type ConnectionQuality string

const (
	QualityGood    ConnectionQuality = "good"
	QualityMedium  ConnectionQuality = "medium"
	QualityPoor    ConnectionQuality = "poor"
	QualityUnknown ConnectionQuality = "unknown"
)

// Valid reports whether q is a known quality level.
func (q ConnectionQuality) Valid() bool {
	switch q {
	case QualityGood, QualityMedium, QualityPoor, QualityUnknown:
		return true
	}
	return false
}

// Participant is one user's membership in a room. A participant with LeftAt set is
// kept as a tombstone so the attendance history and re-admission still resolve.
type Participant struct {
	UserID            uuid.UUID         `json:"user_id"`
	DisplayName       string            `json:"display_name"`
	Role              Role              `json:"role"`
	IsMuted           bool              `json:"is_muted"`
	IsHandRaised      bool              `json:"is_hand_raised"`
	ConnectionQuality ConnectionQuality `json:"connection_quality"`
	JoinedAt          time.Time         `json:"joined_at"`
	LeftAt            *time.Time        `json:"left_at,omitempty"`
	Kicked            bool              `json:"kicked,omitempty"`
}

// Active reports whether the participant is currently in the live roster.
func (p *Participant) Active() bool {
	return p.LeftAt == nil
}
