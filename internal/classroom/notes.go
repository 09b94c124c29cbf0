package classroom

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// NoteInput is a private note taken during the session.
type NoteInput struct {
	UserID           uuid.UUID
	Content          string
	TimestampSeconds int64
}

// AddNote stores a note for a user who has been part of the room.
func AddNote(room *models.Room, in NoteInput, limits Limits, now time.Time) (models.Note, error) {
	if findParticipant(room, in.UserID) == nil {
		return models.Note{}, ErrParticipantNotFound
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Note{}, ErrInvalidInput.withMessage("note content is required")
	}
	if limits.MaxNoteLength > 0 && len(content) > limits.MaxNoteLength {
		return models.Note{}, ErrInvalidInput.withMessage("note is too long")
	}
	if in.TimestampSeconds < 0 {
		return models.Note{}, ErrInvalidInput.withMessage("timestamp must not be negative")
	}
	n := models.Note{
		ID:               uuid.New(),
		UserID:           in.UserID,
		RoomID:           room.ID,
		Content:          content,
		TimestampSeconds: in.TimestampSeconds,
		CreatedAt:        now,
	}
	room.Notes = append(room.Notes, n)
	return n, nil
}

// DeleteNote removes one of the user's own notes. A note owned by someone else is
// reported as not found.
func DeleteNote(room *models.Room, userID, noteID uuid.UUID) error {
	for i, n := range room.Notes {
		if n.ID == noteID && n.UserID == userID {
			room.Notes = append(room.Notes[:i], room.Notes[i+1:]...)
			return nil
		}
	}
	return ErrNoteNotFound
}

// ListNotes returns only userID's notes, ordered by session position.
func ListNotes(room *models.Room, userID uuid.UUID) []models.Note {
	out := make([]models.Note, 0)
	for _, n := range room.Notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimestampSeconds != out[j].TimestampSeconds {
			return out[i].TimestampSeconds < out[j].TimestampSeconds
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
