package classroom_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/models"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	room       *models.Room
	instructor uuid.UUID
	limits     classroom.Limits
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		room:       classroom.NewRoom("r1", t0),
		instructor: uuid.New(),
		limits:     classroom.DefaultLimits(),
	}
	_, _, err := classroom.Join(f.room, classroom.JoinInput{
		UserID:      f.instructor,
		DisplayName: "Ada",
		Role:        models.RoleInstructor,
		CanInstruct: true,
	}, f.limits, t0)
	require.NoError(t, err)
	return f
}

func (f *fixture) student(t *testing.T, name string, at time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, _, err := classroom.Join(f.room, classroom.JoinInput{UserID: id, DisplayName: name}, f.limits, at)
	require.NoError(t, err)
	return id
}
