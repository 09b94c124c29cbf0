package classroom_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/classroom/internal/classroom"
)

func TestRecordJoinIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := uuid.New()

	assert.True(t, classroom.RecordJoin(f.room, u, t0))
	assert.False(t, classroom.RecordJoin(f.room, u, t0.Add(time.Minute)))

	assert.Equal(t, 10*time.Minute, classroom.TotalDuration(f.room, u, t0.Add(10*time.Minute)))
}

func TestRecordLeave(t *testing.T) {
	f := newFixture(t)
	u := uuid.New()

	assert.False(t, classroom.RecordLeave(f.room, u, t0), "no open interval")

	classroom.RecordJoin(f.room, u, t0)
	assert.True(t, classroom.RecordLeave(f.room, u, t0.Add(2*time.Minute)))
	assert.False(t, classroom.RecordLeave(f.room, u, t0.Add(3*time.Minute)))

	classroom.RecordJoin(f.room, u, t0.Add(5*time.Minute))
	assert.Equal(t, 2*time.Minute+5*time.Minute, classroom.TotalDuration(f.room, u, t0.Add(10*time.Minute)))
}

func TestRecordLeaveBeforeJoinClampsToZero(t *testing.T) {
	f := newFixture(t)
	u := uuid.New()
	classroom.RecordJoin(f.room, u, t0.Add(time.Minute))

	require.True(t, classroom.RecordLeave(f.room, u, t0))
	assert.Equal(t, time.Duration(0), classroom.TotalDuration(f.room, u, t0.Add(time.Hour)))
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, "Bob", t0.Add(time.Minute))
	_, err := classroom.Leave(f.room, s, t0.Add(3*time.Minute))
	require.NoError(t, err)

	summary := classroom.Summary(f.room, t0.Add(10*time.Minute))
	require.Len(t, summary, 2)

	assert.Equal(t, f.instructor, summary[0].UserID)
	assert.True(t, summary[0].Present)
	assert.Equal(t, int64(600), summary[0].TotalSeconds)

	assert.Equal(t, "Bob", summary[1].DisplayName)
	assert.False(t, summary[1].Present)
	assert.Equal(t, int64(120), summary[1].TotalSeconds)
	assert.Len(t, summary[1].Intervals, 1)

	_, ok := classroom.UserSummary(f.room, uuid.New(), t0)
	assert.False(t, ok)
}
