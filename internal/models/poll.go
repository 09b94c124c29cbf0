package models

import (
	"time"

	"github.com/google/uuid"
)

// PollType selects how many options a vote may carry.
type PollType string

const (
	PollSingle   PollType = "single"
	PollMultiple PollType = "multiple"
)

// PollStatus is open until closed; closed is terminal.
type PollStatus string

const (
	PollOpen   PollStatus = "open"
	PollClosed PollStatus = "closed"
)

// Poll is an instructor-created question with an immutable vote per user.
type Poll struct {
	ID        uuid.UUID  `json:"id"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	Type      PollType   `json:"type"`
	Status    PollStatus `json:"status"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Votes     []PollVote `json:"votes,omitempty"`
}

// PollVote is one user's selection. Tallies are always derived from these.
type PollVote struct {
	UserID                uuid.UUID `json:"user_id"`
	SelectedOptionIndexes []int     `json:"selected_option_indexes"`
	VotedAt               time.Time `json:"voted_at"`
}

func (p Poll) clone() Poll {
	p.Options = append([]string(nil), p.Options...)
	p.ClosedAt = cloneTime(p.ClosedAt)
	if p.Votes != nil {
		votes := make([]PollVote, len(p.Votes))
		for i, v := range p.Votes {
			v.SelectedOptionIndexes = append([]int(nil), v.SelectedOptionIndexes...)
			votes[i] = v
		}
		p.Votes = votes
	}
	return p
}
