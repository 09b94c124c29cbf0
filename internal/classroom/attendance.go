package classroom

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// AttendanceSummary is one user's accumulated presence in a room.
type AttendanceSummary struct {
	UserID       uuid.UUID                   `json:"user_id"`
	DisplayName  string                      `json:"display_name"`
	TotalSeconds int64                       `json:"total_seconds"`
	Present      bool                        `json:"present"`
	FirstJoinAt  time.Time                   `json:"first_join_at"`
	Intervals    []models.AttendanceInterval `json:"intervals"`
}

// RecordJoin opens an interval for userID unless one is already open.
func RecordJoin(room *models.Room, userID uuid.UUID, at time.Time) bool {
	if openInterval(room, userID) != nil {
		return false
	}
	room.Attendance = append(room.Attendance, models.AttendanceInterval{
		UserID:   userID,
		RoomID:   room.ID,
		JoinedAt: at,
	})
	return true
}

// RecordLeave closes the user's open interval, if any. A leave reported before the
// join it races with is clamped to a zero-length interval.
func RecordLeave(room *models.Room, userID uuid.UUID, at time.Time) bool {
	iv := openInterval(room, userID)
	if iv == nil {
		return false
	}
	closeInterval(iv, at)
	return true
}

// TotalDuration sums closed intervals plus the elapsed part of an open one.
func TotalDuration(room *models.Room, userID uuid.UUID, now time.Time) time.Duration {
	var total time.Duration
	for i := range room.Attendance {
		if room.Attendance[i].UserID == userID {
			total += room.Attendance[i].Duration(now)
		}
	}
	return total
}

// Summary returns every user that ever attended, ordered by first join.
func Summary(room *models.Room, now time.Time) []AttendanceSummary {
	byUser := make(map[uuid.UUID]*AttendanceSummary)
	var order []uuid.UUID
	for _, iv := range room.Attendance {
		s, ok := byUser[iv.UserID]
		if !ok {
			s = &AttendanceSummary{UserID: iv.UserID, FirstJoinAt: iv.JoinedAt}
			if p := findParticipant(room, iv.UserID); p != nil {
				s.DisplayName = p.DisplayName
			}
			byUser[iv.UserID] = s
			order = append(order, iv.UserID)
		}
		if iv.JoinedAt.Before(s.FirstJoinAt) {
			s.FirstJoinAt = iv.JoinedAt
		}
		if iv.Open() {
			s.Present = true
		}
		s.Intervals = append(s.Intervals, iv)
	}
	out := make([]AttendanceSummary, 0, len(order))
	for _, id := range order {
		s := byUser[id]
		s.TotalSeconds = int64(TotalDuration(room, id, now) / time.Second)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FirstJoinAt.Before(out[j].FirstJoinAt) })
	return out
}

// UserSummary returns the attendance of a single user; ok is false if the user never attended.
func UserSummary(room *models.Room, userID uuid.UUID, now time.Time) (AttendanceSummary, bool) {
	for _, s := range Summary(room, now) {
		if s.UserID == userID {
			return s, true
		}
	}
	return AttendanceSummary{}, false
}

func openInterval(room *models.Room, userID uuid.UUID) *models.AttendanceInterval {
	for i := range room.Attendance {
		if room.Attendance[i].UserID == userID && room.Attendance[i].Open() {
			return &room.Attendance[i]
		}
	}
	return nil
}

func closeInterval(iv *models.AttendanceInterval, at time.Time) {
	if at.Before(iv.JoinedAt) {
		at = iv.JoinedAt
	}
	iv.LeftAt = &at
}
