package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lifecycle state of a classroom. A room that was never joined has no document.
type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusClosed RoomStatus = "closed"
)

// CloseReason records who ended a room.
type CloseReason string

const (
	CloseReasonInstructor CloseReason = "instructor"
	CloseReasonProvider   CloseReason = "provider"
	CloseReasonOrphaned   CloseReason = "orphaned"
)

// Room is the per-classroom aggregate. It is stored and updated as one document.
type Room struct {
	ID               string               `json:"room_id"` // conferencing provider room name
	OwnerID          *uuid.UUID           `json:"owner_id,omitempty"`
	Status           RoomStatus           `json:"status"`
	Version          int64                `json:"version"`
	CreatedAt        time.Time            `json:"created_at"`
	LastActivityAt   time.Time            `json:"last_activity_at"`
	ClosedAt         *time.Time           `json:"closed_at,omitempty"`
	CloseReason      CloseReason          `json:"close_reason,omitempty"`
	PeakParticipants int                  `json:"peak_participants"`
	HandRaiseSeq     int64                `json:"hand_raise_seq"`
	Participants     []Participant        `json:"participants"`
	HandRaises       []HandRaise          `json:"hand_raises"`
	Polls            []Poll               `json:"polls"`
	Attendance       []AttendanceInterval `json:"attendance"`
	Notes            []Note               `json:"notes"`
}

// IsClosed reports whether the room accepts no further mutations.
func (r *Room) IsClosed() bool {
	return r.Status == RoomStatusClosed
}

// Clone returns a deep copy of the room so a failed transition never leaks into the committed snapshot.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.OwnerID != nil {
		id := *r.OwnerID
		out.OwnerID = &id
	}
	out.ClosedAt = cloneTime(r.ClosedAt)

	out.Participants = make([]Participant, len(r.Participants))
	for i, p := range r.Participants {
		p.LeftAt = cloneTime(p.LeftAt)
		out.Participants[i] = p
	}
	out.HandRaises = make([]HandRaise, len(r.HandRaises))
	for i, h := range r.HandRaises {
		h.AcknowledgedAt = cloneTime(h.AcknowledgedAt)
		h.ResolvedAt = cloneTime(h.ResolvedAt)
		out.HandRaises[i] = h
	}
	out.Polls = make([]Poll, len(r.Polls))
	for i, p := range r.Polls {
		out.Polls[i] = p.clone()
	}
	out.Attendance = make([]AttendanceInterval, len(r.Attendance))
	for i, a := range r.Attendance {
		a.LeftAt = cloneTime(a.LeftAt)
		out.Attendance[i] = a
	}
	out.Notes = append([]Note(nil), r.Notes...)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
