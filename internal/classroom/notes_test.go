package classroom_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
)

func TestNotesArePrivate(t *testing.T) {
	f := newFixture(t)
	a := f.student(t, "A", t0)
	b := f.student(t, "B", t0)

	_, err := classroom.AddNote(f.room, classroom.NoteInput{UserID: a, Content: "second", TimestampSeconds: 90}, f.limits, t0)
	require.NoError(t, err)
	first, err := classroom.AddNote(f.room, classroom.NoteInput{UserID: a, Content: "first", TimestampSeconds: 30}, f.limits, t0)
	require.NoError(t, err)
	theirs, err := classroom.AddNote(f.room, classroom.NoteInput{UserID: b, Content: "mine", TimestampSeconds: 10}, f.limits, t0)
	require.NoError(t, err)

	notes := classroom.ListNotes(f.room, a)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, "second", notes[1].Content)

	assert.ErrorIs(t, classroom.DeleteNote(f.room, a, theirs.ID), classroom.ErrNoteNotFound)
	require.NoError(t, classroom.DeleteNote(f.room, a, first.ID))
	assert.Len(t, classroom.ListNotes(f.room, a), 1)
	assert.Len(t, classroom.ListNotes(f.room, b), 1)
}

func TestAddNoteValidation(t *testing.T) {
	f := newFixture(t)
	a := f.student(t, "A", t0)

	_, err := classroom.AddNote(f.room, classroom.NoteInput{UserID: uuid.New(), Content: "x"}, f.limits, t0)
	assert.ErrorIs(t, err, classroom.ErrParticipantNotFound)

	_, err = classroom.AddNote(f.room, classroom.NoteInput{UserID: a, Content: "  "}, f.limits, t0)
	assert.ErrorIs(t, err, classroom.ErrInvalidInput)

	_, err = classroom.AddNote(f.room, classroom.NoteInput{UserID: a, Content: "x", TimestampSeconds: -1}, f.limits, t0)
	assert.ErrorIs(t, err, classroom.ErrInvalidInput)
}
