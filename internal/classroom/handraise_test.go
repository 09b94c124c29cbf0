package classroom_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/models"
)

func TestRaise(t *testing.T) {
	t.Run("assigns increasing priority", func(t *testing.T) {
		f := newFixture(t)
		a := f.student(t, "A", t0)
		b := f.student(t, "B", t0)

		ha, changed, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a, Question: "Why?"}, f.limits, t0)
		require.NoError(t, err)
		assert.True(t, changed)
		hb, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: b}, f.limits, t0)
		require.NoError(t, err)

		assert.Less(t, ha.Priority, hb.Priority)
		assert.Equal(t, "A", ha.UserName, "falls back to the display name")
		assert.Equal(t, models.HandRaisePending, ha.Status)
	})

	t.Run("raising twice keeps one pending entry", func(t *testing.T) {
		f := newFixture(t)
		a := f.student(t, "A", t0)

		first, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a}, f.limits, t0)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, changed, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a, Question: "again"}, f.limits, t0)
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, first.ID, again.ID)
		}
		assert.Len(t, classroom.Pending(f.room), 1)
	})

	t.Run("requires an active participant", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: uuid.New()}, f.limits, t0)
		assert.ErrorIs(t, err, classroom.ErrParticipantNotFound)
	})

	t.Run("question length", func(t *testing.T) {
		f := newFixture(t)
		a := f.student(t, "A", t0)
		_, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a, Question: strings.Repeat("x", f.limits.MaxQuestionLength+1)}, f.limits, t0)
		assert.ErrorIs(t, err, classroom.ErrInvalidInput)
		assert.Equal(t, int64(0), f.room.HandRaiseSeq)
	})

	t.Run("participant flag tracks the pending entry", func(t *testing.T) {
		f := newFixture(t)
		a := f.student(t, "A", t0)
		_, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a}, f.limits, t0)
		require.NoError(t, err)
		assert.True(t, participant(t, f.room, a).IsHandRaised)

		assert.True(t, classroom.Lower(f.room, a))
		assert.False(t, participant(t, f.room, a).IsHandRaised)
		assert.False(t, classroom.Lower(f.room, a))
	})
}

func TestPendingIsFIFOBySequence(t *testing.T) {
	f := newFixture(t)
	var users []uuid.UUID
	for i := 0; i < 20; i++ {
		users = append(users, f.student(t, "s", t0))
	}
	for _, u := range users {
		// Wall-clock raise times are deliberately shuffled; only the sequence matters.
		at := t0.Add(time.Duration(rand.Intn(1000)) * time.Millisecond)
		_, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: u}, f.limits, at)
		require.NoError(t, err)
	}
	// Scramble storage order as an unordered store might.
	rand.Shuffle(len(f.room.HandRaises), func(i, j int) {
		f.room.HandRaises[i], f.room.HandRaises[j] = f.room.HandRaises[j], f.room.HandRaises[i]
	})

	pending := classroom.Pending(f.room)
	require.Len(t, pending, len(users))
	for i, h := range pending {
		assert.Equal(t, users[i], h.UserID)
	}
}

func TestAcknowledgeResolve(t *testing.T) {
	f := newFixture(t)
	a := f.student(t, "A", t0)
	h, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a}, f.limits, t0)
	require.NoError(t, err)

	_, _, err = classroom.Acknowledge(f.room, a, h.ID, t0)
	assert.ErrorIs(t, err, classroom.ErrForbidden)
	assert.Len(t, classroom.Pending(f.room), 1, "rejected action leaves state unchanged")

	acked, changed, err := classroom.Acknowledge(f.room, f.instructor, h.ID, t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.HandRaiseAcknowledged, acked.Status)
	assert.Empty(t, classroom.Pending(f.room))

	_, changed, err = classroom.Acknowledge(f.room, f.instructor, h.ID, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, changed)

	resolved, err := classroom.Resolve(f.room, f.instructor, h.ID, t0.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, models.HandRaiseResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = classroom.Resolve(f.room, f.instructor, h.ID, t0)
	assert.ErrorIs(t, err, classroom.ErrInvalidTransition)
	_, _, err = classroom.Acknowledge(f.room, f.instructor, h.ID, t0)
	assert.ErrorIs(t, err, classroom.ErrInvalidTransition)

	_, err = classroom.Resolve(f.room, f.instructor, uuid.New(), t0)
	assert.ErrorIs(t, err, classroom.ErrHandRaiseNotFound)

	history := classroom.History(f.room)
	require.Len(t, history, 1)
	assert.Equal(t, models.HandRaiseResolved, history[0].Status)
}

func TestResolveFromPending(t *testing.T) {
	f := newFixture(t)
	a := f.student(t, "A", t0)
	h, _, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a}, f.limits, t0)
	require.NoError(t, err)

	_, err = classroom.Resolve(f.room, f.instructor, h.ID, t0)
	require.NoError(t, err)
	assert.Empty(t, classroom.Pending(f.room))
	assert.False(t, participant(t, f.room, a).IsHandRaised)

	again, changed, err := classroom.Raise(f.room, classroom.RaiseInput{UserID: a}, f.limits, t0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, h.ID, again.ID)
}

func participant(t *testing.T, room *models.Room, id uuid.UUID) models.Participant {
	t.Helper()
	for _, p := range room.Participants {
		if p.UserID == id {
			return p
		}
	}
	t.Fatalf("participant %s not found", id)
	return models.Participant{}
}
