package classroom

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// MaxPollQuestionLength bounds a poll's question text.
const MaxPollQuestionLength = 500

// PollInput is an instructor's poll definition.
type PollInput struct {
	Question string
	Options  []string
	Type     models.PollType
}

// Tally is derived from the vote list on every read.
type Tally struct {
	PollID     uuid.UUID   `json:"poll_id"`
	Counts     map[int]int `json:"counts"`
	TotalVotes int         `json:"total_votes"`
}

// CreatePoll validates and opens a new poll. Empty options are dropped; at least two must remain.
func CreatePoll(room *models.Room, actorID uuid.UUID, in PollInput, limits Limits, now time.Time) (models.Poll, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return models.Poll{}, err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" || len(question) > MaxPollQuestionLength {
		return models.Poll{}, ErrInvalidPoll.withMessage("poll question is required")
	}
	pollType := in.Type
	if pollType == "" {
		pollType = models.PollSingle
	}
	if pollType != models.PollSingle && pollType != models.PollMultiple {
		return models.Poll{}, ErrInvalidPoll.withMessage("poll type must be single or multiple")
	}

	options := make([]string, 0, len(in.Options))
	seen := make(map[string]struct{}, len(in.Options))
	for _, o := range in.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		key := strings.ToLower(o)
		if _, dup := seen[key]; dup {
			return models.Poll{}, ErrInvalidPoll.withMessage("duplicate poll option: " + o)
		}
		seen[key] = struct{}{}
		options = append(options, o)
	}
	if len(options) < 2 {
		return models.Poll{}, ErrInvalidPoll
	}
	if limits.MaxPollOptions > 0 && len(options) > limits.MaxPollOptions {
		return models.Poll{}, ErrInvalidPoll.withMessage("too many poll options")
	}

	p := models.Poll{
		ID:        uuid.New(),
		Question:  question,
		Options:   options,
		Type:      pollType,
		Status:    models.PollOpen,
		CreatedBy: actorID,
		CreatedAt: now,
		Votes:     []models.PollVote{},
	}
	room.Polls = append(room.Polls, p)
	return p, nil
}

// Vote records the user's only vote on an open poll.
func Vote(room *models.Room, pollID, userID uuid.UUID, selected []int, now time.Time) (models.Poll, error) {
	p := findPoll(room, pollID)
	if p == nil {
		return models.Poll{}, ErrPollNotFound
	}
	if p.Status != models.PollOpen {
		return models.Poll{}, ErrPollClosed
	}
	if part := findParticipant(room, userID); part == nil || !part.Active() {
		return models.Poll{}, ErrParticipantNotFound
	}
	for _, v := range p.Votes {
		if v.UserID == userID {
			return models.Poll{}, ErrAlreadyVoted
		}
	}
	if err := validateSelection(p, selected); err != nil {
		return models.Poll{}, err
	}
	p.Votes = append(p.Votes, models.PollVote{
		UserID:                userID,
		SelectedOptionIndexes: append([]int(nil), selected...),
		VotedAt:               now,
	})
	return *p, nil
}

// ClosePoll stops accepting votes. Closing a closed poll is a no-op.
func ClosePoll(room *models.Room, actorID, pollID uuid.UUID, now time.Time) (models.Poll, bool, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return models.Poll{}, false, err
	}
	p := findPoll(room, pollID)
	if p == nil {
		return models.Poll{}, false, ErrPollNotFound
	}
	if p.Status == models.PollClosed {
		return *p, false, nil
	}
	at := now
	p.Status = models.PollClosed
	p.ClosedAt = &at
	return *p, true, nil
}

// TallyPoll counts, per option index, the votes that selected it.
func TallyPoll(p models.Poll) Tally {
	t := Tally{PollID: p.ID, Counts: make(map[int]int, len(p.Options)), TotalVotes: len(p.Votes)}
	for i := range p.Options {
		t.Counts[i] = 0
	}
	for _, v := range p.Votes {
		for _, idx := range v.SelectedOptionIndexes {
			t.Counts[idx]++
		}
	}
	return t
}

// GetPoll returns a poll by id.
func GetPoll(room *models.Room, pollID uuid.UUID) (models.Poll, error) {
	p := findPoll(room, pollID)
	if p == nil {
		return models.Poll{}, ErrPollNotFound
	}
	return *p, nil
}

// ListPolls returns the room's polls in creation order, optionally filtered by status.
func ListPolls(room *models.Room, status models.PollStatus) []models.Poll {
	out := make([]models.Poll, 0, len(room.Polls))
	for _, p := range room.Polls {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func validateSelection(p *models.Poll, selected []int) error {
	if len(selected) == 0 {
		return ErrInvalidSelection.withMessage("select at least one option")
	}
	if p.Type == models.PollSingle && len(selected) != 1 {
		return ErrInvalidSelection.withMessage("single-choice poll takes exactly one option")
	}
	seen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		if idx < 0 || idx >= len(p.Options) {
			return ErrInvalidSelection.withMessage("option index out of range")
		}
		if _, dup := seen[idx]; dup {
			return ErrInvalidSelection.withMessage("option selected twice")
		}
		seen[idx] = struct{}{}
	}
	return nil
}

func findPoll(room *models.Room, id uuid.UUID) *models.Poll {
	for i := range room.Polls {
		if room.Polls[i].ID == id {
			return &room.Polls[i]
		}
	}
	return nil
}
