package classroom

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// RaiseInput is a request to join the question queue.
type RaiseInput struct {
	UserID   uuid.UUID
	UserName string
	Question string
}

// Raise queues a hand for the participant. If the user already has a pending entry it
// is returned unchanged, so client retries never create a second one.
func Raise(room *models.Room, in RaiseInput, limits Limits, now time.Time) (models.HandRaise, bool, error) {
	p := findParticipant(room, in.UserID)
	if p == nil || !p.Active() {
		return models.HandRaise{}, false, ErrParticipantNotFound
	}
	if existing := pendingFor(room, in.UserID); existing != nil {
		return *existing, false, nil
	}
	question := strings.TrimSpace(in.Question)
	if limits.MaxQuestionLength > 0 && len(question) > limits.MaxQuestionLength {
		return models.HandRaise{}, false, ErrInvalidInput.withMessage("question is too long")
	}
	name := strings.TrimSpace(in.UserName)
	if name == "" {
		name = p.DisplayName
	}

	room.HandRaiseSeq++
	h := models.HandRaise{
		ID:       uuid.New(),
		UserID:   in.UserID,
		UserName: name,
		Question: question,
		Priority: room.HandRaiseSeq,
		Status:   models.HandRaisePending,
		RaisedAt: now,
	}
	room.HandRaises = append(room.HandRaises, h)
	p.IsHandRaised = true
	return h, true, nil
}

// Lower removes the user's pending entry. Acknowledged or resolved entries are untouched.
func Lower(room *models.Room, userID uuid.UUID) bool {
	return withdrawPending(room, userID)
}

// Acknowledge moves a pending entry to acknowledged. Acknowledging twice is a no-op.
func Acknowledge(room *models.Room, actorID, handRaiseID uuid.UUID, now time.Time) (models.HandRaise, bool, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return models.HandRaise{}, false, err
	}
	h := findHandRaise(room, handRaiseID)
	if h == nil {
		return models.HandRaise{}, false, ErrHandRaiseNotFound
	}
	switch h.Status {
	case models.HandRaiseAcknowledged:
		return *h, false, nil
	case models.HandRaiseResolved:
		return models.HandRaise{}, false, ErrInvalidTransition.withMessage("hand raise is already resolved")
	}
	at := now
	h.Status = models.HandRaiseAcknowledged
	h.AcknowledgedAt = &at
	clearHandFlag(room, h.UserID)
	return *h, true, nil
}

// Resolve moves a pending or acknowledged entry to the terminal resolved state.
func Resolve(room *models.Room, actorID, handRaiseID uuid.UUID, now time.Time) (models.HandRaise, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return models.HandRaise{}, err
	}
	h := findHandRaise(room, handRaiseID)
	if h == nil {
		return models.HandRaise{}, ErrHandRaiseNotFound
	}
	if h.Status == models.HandRaiseResolved {
		return models.HandRaise{}, ErrInvalidTransition.withMessage("hand raise is already resolved")
	}
	at := now
	h.Status = models.HandRaiseResolved
	h.ResolvedAt = &at
	clearHandFlag(room, h.UserID)
	return *h, nil
}

// Pending returns the pending entries in arrival order (ascending priority).
func Pending(room *models.Room) []models.HandRaise {
	out := make([]models.HandRaise, 0)
	for _, h := range room.HandRaises {
		if h.Status == models.HandRaisePending {
			out = append(out, h)
		}
	}
	sortByPriority(out)
	return out
}

// History returns every entry still held by the room in arrival order.
func History(room *models.Room) []models.HandRaise {
	out := append([]models.HandRaise{}, room.HandRaises...)
	sortByPriority(out)
	return out
}

func sortByPriority(list []models.HandRaise) {
	sort.Slice(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
}

func pendingFor(room *models.Room, userID uuid.UUID) *models.HandRaise {
	for i := range room.HandRaises {
		h := &room.HandRaises[i]
		if h.UserID == userID && h.Status == models.HandRaisePending {
			return h
		}
	}
	return nil
}

func findHandRaise(room *models.Room, id uuid.UUID) *models.HandRaise {
	for i := range room.HandRaises {
		if room.HandRaises[i].ID == id {
			return &room.HandRaises[i]
		}
	}
	return nil
}

func withdrawPending(room *models.Room, userID uuid.UUID) bool {
	for i := range room.HandRaises {
		if room.HandRaises[i].UserID == userID && room.HandRaises[i].Status == models.HandRaisePending {
			room.HandRaises = append(room.HandRaises[:i], room.HandRaises[i+1:]...)
			clearHandFlag(room, userID)
			return true
		}
	}
	return false
}

func clearHandFlag(room *models.Room, userID uuid.UUID) {
	if p := findParticipant(room, userID); p != nil {
		p.IsHandRaised = false
	}
}
