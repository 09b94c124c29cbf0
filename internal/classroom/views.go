package classroom

import (
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// RoomView is what a polling client renders. Notes and poll votes are scoped to the viewer.
type RoomView struct {
	RoomID           string               `json:"room_id"`
	Status           models.RoomStatus    `json:"status"`
	Version          int64                `json:"version"`
	OwnerID          *uuid.UUID           `json:"owner_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	LastActivityAt   time.Time            `json:"last_activity_at"`
	ClosedAt         *time.Time           `json:"closed_at,omitempty"`
	CloseReason      models.CloseReason   `json:"close_reason,omitempty"`
	PeakParticipants int                  `json:"peak_participants"`
	IsInstructor     bool                 `json:"is_instructor"`
	Participants     []models.Participant `json:"participants"`
	PendingHands     []models.HandRaise   `json:"pending_hands"`
	Polls            []PollView           `json:"polls"`
	Notes            []models.Note        `json:"notes"`
}

// RosterView is returned by roster mutations.
type RosterView struct {
	Participant  *models.Participant  `json:"participant,omitempty"`
	Participants []models.Participant `json:"participants"`
}

// QueueView is returned by hand-raise mutations.
type QueueView struct {
	HandRaise *models.HandRaise  `json:"hand_raise,omitempty"`
	Pending   []models.HandRaise `json:"pending"`
}

// PollView carries a poll with its derived tally. Individual votes are only shown to instructors.
type PollView struct {
	models.Poll
	Tally  Tally `json:"tally"`
	MyVote []int `json:"my_vote,omitempty"`
}

// NewRoomView builds the full snapshot as seen by viewer.
func NewRoomView(room *models.Room, viewer uuid.UUID) RoomView {
	polls := make([]PollView, 0, len(room.Polls))
	for _, p := range room.Polls {
		polls = append(polls, NewPollView(room, p, viewer))
	}
	return RoomView{
		RoomID:           room.ID,
		Status:           room.Status,
		Version:          room.Version,
		OwnerID:          room.OwnerID,
		CreatedAt:        room.CreatedAt,
		LastActivityAt:   room.LastActivityAt,
		ClosedAt:         room.ClosedAt,
		CloseReason:      room.CloseReason,
		PeakParticipants: room.PeakParticipants,
		IsInstructor:     IsInstructor(room, viewer),
		Participants:     ActiveParticipants(room),
		PendingHands:     Pending(room),
		Polls:            polls,
		Notes:            ListNotes(room, viewer),
	}
}

// NewRosterView lists the active roster, optionally highlighting one participant.
func NewRosterView(room *models.Room, p *models.Participant) RosterView {
	return RosterView{Participant: p, Participants: ActiveParticipants(room)}
}

// NewQueueView lists the pending queue, optionally highlighting one entry.
func NewQueueView(room *models.Room, h *models.HandRaise) QueueView {
	return QueueView{HandRaise: h, Pending: Pending(room)}
}

// NewPollView derives the tally and hides other users' votes from non-instructors.
func NewPollView(room *models.Room, p models.Poll, viewer uuid.UUID) PollView {
	v := PollView{Poll: p, Tally: TallyPoll(p)}
	for _, vote := range p.Votes {
		if vote.UserID == viewer {
			v.MyVote = append([]int(nil), vote.SelectedOptionIndexes...)
		}
	}
	if !IsInstructor(room, viewer) {
		v.Poll.Votes = nil
	}
	return v
}
