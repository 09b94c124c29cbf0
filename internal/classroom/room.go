// Package classroom holds the live-session state machine: roster, hand-raise queue,
// polls, attendance and notes, all applied to a single models.Room aggregate.
// Nothing here does I/O; the coordinator owns locking and persistence.
package classroom

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// MaxRoomIDLength bounds the external room identifier.
const MaxRoomIDLength = 128

// Limits bounds user-supplied sizes.
type Limits struct {
	MaxParticipants   int
	MaxPollOptions    int
	MaxQuestionLength int
	MaxNoteLength     int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxParticipants:   300,
		MaxPollOptions:    10,
		MaxQuestionLength: 500,
		MaxNoteLength:     4000,
	}
}

// NewRoom returns an active room with empty collections.
func NewRoom(roomID string, now time.Time) *models.Room {
	return &models.Room{
		ID:             roomID,
		Status:         models.RoomStatusActive,
		CreatedAt:      now,
		LastActivityAt: now,
		Participants:   []models.Participant{},
		HandRaises:     []models.HandRaise{},
		Polls:          []models.Poll{},
		Attendance:     []models.AttendanceInterval{},
		Notes:          []models.Note{},
	}
}

// ValidRoomID reports whether id can name a room.
func ValidRoomID(id string) bool {
	if id == "" || len(id) > MaxRoomIDLength || strings.TrimSpace(id) != id {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// IsInstructor reports whether userID holds instructor privileges in the room:
// an active instructor-role participant, or the room owner.
func IsInstructor(room *models.Room, userID uuid.UUID) bool {
	if room.OwnerID != nil && *room.OwnerID == userID {
		return true
	}
	p := findParticipant(room, userID)
	return p != nil && p.Active() && p.Role == models.RoleInstructor
}

func taughtIn(room *models.Room, userID uuid.UUID) bool {
	if room.OwnerID != nil && *room.OwnerID == userID {
		return true
	}
	p := findParticipant(room, userID)
	return p != nil && p.Role == models.RoleInstructor
}

func requireInstructor(room *models.Room, actorID uuid.UUID) error {
	if !IsInstructor(room, actorID) {
		return ErrForbidden
	}
	return nil
}

// CloseRoom ends the session on an instructor's request. An instructor closing
// an already closed room is a no-op; anyone else is refused either way.
func CloseRoom(room *models.Room, actorID uuid.UUID, now time.Time) (bool, error) {
	if room.IsClosed() {
		// Closing marks everyone as left, so match on the recorded role.
		if !taughtIn(room, actorID) {
			return false, ErrForbidden
		}
		return false, nil
	}
	if err := requireInstructor(room, actorID); err != nil {
		return false, err
	}
	closeRoom(room, models.CloseReasonInstructor, now)
	return true, nil
}

// EndSession closes the room on behalf of the system (provider signal, sweeper).
func EndSession(room *models.Room, reason models.CloseReason, now time.Time) bool {
	if room.IsClosed() {
		return false
	}
	closeRoom(room, reason, now)
	return true
}

// SweepIdle closes the room as orphaned only if it has seen no activity since cutoff.
func SweepIdle(room *models.Room, cutoff, now time.Time) bool {
	if room.IsClosed() || !room.LastActivityAt.Before(cutoff) {
		return false
	}
	closeRoom(room, models.CloseReasonOrphaned, now)
	return true
}

// closeRoom freezes every open sub-entity at now. History stays embedded.
func closeRoom(room *models.Room, reason models.CloseReason, now time.Time) {
	for i := range room.Participants {
		p := &room.Participants[i]
		if p.Active() {
			left := now
			p.LeftAt = &left
			p.IsHandRaised = false
		}
	}
	for i := range room.Attendance {
		if room.Attendance[i].Open() {
			closeInterval(&room.Attendance[i], now)
		}
	}
	for i := range room.Polls {
		if room.Polls[i].Status == models.PollOpen {
			closed := now
			room.Polls[i].Status = models.PollClosed
			room.Polls[i].ClosedAt = &closed
		}
	}
	closedAt := now
	room.Status = models.RoomStatusClosed
	room.ClosedAt = &closedAt
	room.CloseReason = reason
}

func findParticipant(room *models.Room, userID uuid.UUID) *models.Participant {
	for i := range room.Participants {
		if room.Participants[i].UserID == userID {
			return &room.Participants[i]
		}
	}
	return nil
}

func activeCount(room *models.Room) int {
	n := 0
	for i := range room.Participants {
		if room.Participants[i].Active() {
			n++
		}
	}
	return n
}
