package classroom_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/models"
)

func TestCreatePoll(t *testing.T) {
	f := newFixture(t)
	student := f.student(t, "Bob", t0)

	tests := []struct {
		name    string
		actor   uuid.UUID
		in      classroom.PollInput
		wantErr error
	}{
		{"valid single", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}}, nil},
		{"valid multiple", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B", "C"}, Type: models.PollMultiple}, nil},
		{"student", student, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}}, classroom.ErrForbidden},
		{"one option", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A"}}, classroom.ErrInvalidPoll},
		{"blank options dropped", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", " ", ""}}, classroom.ErrInvalidPoll},
		{"duplicates", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "a"}}, classroom.ErrInvalidPoll},
		{"no question", f.instructor, classroom.PollInput{Options: []string{"A", "B"}}, classroom.ErrInvalidPoll},
		{"bad type", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}, Type: "ranked"}, classroom.ErrInvalidPoll},
		{"too many", f.instructor, classroom.PollInput{Question: "Q", Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}}, classroom.ErrInvalidPoll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := classroom.CreatePoll(f.room, tt.actor, tt.in, f.limits, t0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.PollOpen, p.Status)
			assert.NotEqual(t, uuid.Nil, p.ID)
		})
	}
	assert.Len(t, f.room.Polls, 2)
}

func TestCreatePollTrimsOptions(t *testing.T) {
	f := newFixture(t)
	p, err := classroom.CreatePoll(f.room, f.instructor, classroom.PollInput{Question: " Pick ", Options: []string{" A ", "", "B"}}, f.limits, t0)
	require.NoError(t, err)
	assert.Equal(t, "Pick", p.Question)
	assert.Equal(t, []string{"A", "B"}, p.Options)
	assert.Equal(t, models.PollSingle, p.Type)
}

func TestVote(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "U", t0)
	p, err := classroom.CreatePoll(f.room, f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B", "C"}}, f.limits, t0)
	require.NoError(t, err)

	t.Run("invalid selections", func(t *testing.T) {
		for _, sel := range [][]int{{}, nil, {0, 1}, {3}, {-1}} {
			_, err := classroom.Vote(f.room, p.ID, u, sel, t0)
			assert.ErrorIs(t, err, classroom.ErrInvalidSelection, "selection %v", sel)
			assert.Equal(t, classroom.KindInvalidInput, classroom.KindOf(err))
		}
	})

	t.Run("vote is immutable", func(t *testing.T) {
		_, err := classroom.Vote(f.room, p.ID, u, []int{0}, t0)
		require.NoError(t, err)

		_, err = classroom.Vote(f.room, p.ID, u, []int{1}, t0)
		assert.ErrorIs(t, err, classroom.ErrAlreadyVoted)

		got, err := classroom.GetPoll(f.room, p.ID)
		require.NoError(t, err)
		tally := classroom.TallyPoll(got)
		assert.Equal(t, map[int]int{0: 1, 1: 0, 2: 0}, tally.Counts)
		assert.Equal(t, 1, tally.TotalVotes)
	})

	t.Run("unknown poll and voter", func(t *testing.T) {
		_, err := classroom.Vote(f.room, uuid.New(), u, []int{0}, t0)
		assert.ErrorIs(t, err, classroom.ErrPollNotFound)
		_, err = classroom.Vote(f.room, p.ID, uuid.New(), []int{0}, t0)
		assert.ErrorIs(t, err, classroom.ErrParticipantNotFound)
	})
}

func TestMultipleChoiceTally(t *testing.T) {
	f := newFixture(t)
	u1 := f.student(t, "u1", t0)
	u2 := f.student(t, "u2", t0)
	u3 := f.student(t, "u3", t0)
	p, err := classroom.CreatePoll(f.room, f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}, Type: models.PollMultiple}, f.limits, t0)
	require.NoError(t, err)

	for user, sel := range map[uuid.UUID][]int{u1: {0}, u2: {0, 1}, u3: {1}} {
		_, err := classroom.Vote(f.room, p.ID, user, sel, t0)
		require.NoError(t, err)
	}
	_, err = classroom.Vote(f.room, p.ID, f.instructor, []int{1, 1}, t0)
	assert.ErrorIs(t, err, classroom.ErrInvalidSelection)

	got, err := classroom.GetPoll(f.room, p.ID)
	require.NoError(t, err)
	tally := classroom.TallyPoll(got)
	assert.Equal(t, map[int]int{0: 2, 1: 2}, tally.Counts)
	assert.Equal(t, 3, tally.TotalVotes)
}

func TestClosePoll(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "U", t0)
	p, err := classroom.CreatePoll(f.room, f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}}, f.limits, t0)
	require.NoError(t, err)

	_, _, err = classroom.ClosePoll(f.room, u, p.ID, t0)
	assert.ErrorIs(t, err, classroom.ErrForbidden)
	assert.Len(t, classroom.ListPolls(f.room, models.PollOpen), 1)

	closed, changed, err := classroom.ClosePoll(f.room, f.instructor, p.ID, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PollClosed, closed.Status)

	_, changed, err = classroom.ClosePoll(f.room, f.instructor, p.ID, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = classroom.Vote(f.room, p.ID, u, []int{0}, t0)
	assert.ErrorIs(t, err, classroom.ErrPollClosed)
	assert.Empty(t, classroom.ListPolls(f.room, models.PollOpen))
	assert.Len(t, classroom.ListPolls(f.room, ""), 1)
}

func TestPollViewHidesVotesFromStudents(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "U", t0)
	other := f.student(t, "O", t0)
	p, err := classroom.CreatePoll(f.room, f.instructor, classroom.PollInput{Question: "Q", Options: []string{"A", "B"}}, f.limits, t0)
	require.NoError(t, err)
	_, err = classroom.Vote(f.room, p.ID, u, []int{1}, t0)
	require.NoError(t, err)
	p, err = classroom.Vote(f.room, p.ID, other, []int{0}, t0)
	require.NoError(t, err)

	studentView := classroom.NewPollView(f.room, p, u)
	assert.Nil(t, studentView.Votes)
	assert.Equal(t, []int{1}, studentView.MyVote)
	assert.Equal(t, 2, studentView.Tally.TotalVotes)

	instructorView := classroom.NewPollView(f.room, p, f.instructor)
	assert.Len(t, instructorView.Votes, 2)
	assert.Nil(t, instructorView.MyVote)
}
