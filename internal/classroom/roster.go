package classroom

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// MaxDisplayNameLength bounds participant display names.
const MaxDisplayNameLength = 100

// JoinInput describes a join request. CanInstruct comes from the caller's platform
// role and is never taken from the request body.
type JoinInput struct {
	UserID            uuid.UUID
	DisplayName       string
	Role              models.Role
	ConnectionQuality models.ConnectionQuality
	CanInstruct       bool
}

// Join upserts the participant and opens an attendance interval. An active participant
// only has its display name and connection quality refreshed; a removed one is re-admitted.
func Join(room *models.Room, in JoinInput, limits Limits, now time.Time) (models.Participant, bool, error) {
	name := strings.TrimSpace(in.DisplayName)
	if in.UserID == uuid.Nil || name == "" || len(name) > MaxDisplayNameLength {
		return models.Participant{}, false, ErrInvalidInput.withMessage("user id and display name are required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return models.Participant{}, false, ErrInvalidInput.withMessage("role must be instructor or student")
	}
	quality := in.ConnectionQuality
	if quality != "" && !quality.Valid() {
		return models.Participant{}, false, ErrInvalidInput.withMessage("unknown connection quality")
	}
	isOwner := room.OwnerID != nil && *room.OwnerID == in.UserID

	if p := findParticipant(room, in.UserID); p != nil && p.Active() {
		changed := false
		if p.DisplayName != name {
			p.DisplayName = name
			changed = true
		}
		if quality != "" && p.ConnectionQuality != quality {
			p.ConnectionQuality = quality
			changed = true
		}
		// A privileged user first seen through a provider event is upgraded on their own join.
		if role == models.RoleInstructor && p.Role != models.RoleInstructor && (in.CanInstruct || isOwner) {
			p.Role = models.RoleInstructor
			changed = true
		}
		if RecordJoin(room, in.UserID, now) {
			changed = true
		}
		return *p, changed, nil
	}

	if role == models.RoleInstructor && !in.CanInstruct && !isOwner {
		return models.Participant{}, false, ErrInstructorNotAllowed
	}
	if limits.MaxParticipants > 0 && activeCount(room) >= limits.MaxParticipants {
		return models.Participant{}, false, ErrRoomFull
	}
	if quality == "" {
		quality = models.QualityUnknown
	}

	fresh := models.Participant{
		UserID:            in.UserID,
		DisplayName:       name,
		Role:              role,
		ConnectionQuality: quality,
		JoinedAt:          now,
	}
	if p := findParticipant(room, in.UserID); p != nil {
		*p = fresh
	} else {
		room.Participants = append(room.Participants, fresh)
	}
	if role == models.RoleInstructor && room.OwnerID == nil {
		owner := in.UserID
		room.OwnerID = &owner
	}
	RecordJoin(room, in.UserID, now)
	if n := activeCount(room); n > room.PeakParticipants {
		room.PeakParticipants = n
	}
	return fresh, true, nil
}

// Leave removes the participant from the live roster, keeping its history.
// Leaving twice is a no-op.
func Leave(room *models.Room, userID uuid.UUID, now time.Time) (bool, error) {
	p := findParticipant(room, userID)
	if p == nil {
		return false, ErrParticipantNotFound
	}
	if !p.Active() {
		return false, nil
	}
	removeParticipant(room, p, now)
	return true, nil
}

// SetMute flips the roster's mute flag for a non-instructor target.
func SetMute(room *models.Room, actorID, targetID uuid.UUID, muted bool) (models.Participant, bool, error) {
	target, err := moderationTarget(room, actorID, targetID)
	if err != nil {
		return models.Participant{}, false, err
	}
	if target.IsMuted == muted {
		return *target, false, nil
	}
	target.IsMuted = muted
	return *target, true, nil
}

// MuteAll mutes every active non-instructor and returns the ones that changed.
func MuteAll(room *models.Room, actorID uuid.UUID) ([]models.Participant, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return nil, err
	}
	var muted []models.Participant
	for i := range room.Participants {
		p := &room.Participants[i]
		if p.Active() && p.Role != models.RoleInstructor && !p.IsMuted {
			p.IsMuted = true
			muted = append(muted, *p)
		}
	}
	return muted, nil
}

// Kick removes a non-instructor from the live roster. The tombstone lets a later join
// re-admit the user. Kicking an already removed participant is a no-op.
func Kick(room *models.Room, actorID, targetID uuid.UUID, now time.Time) (bool, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return false, err
	}
	p := findParticipant(room, targetID)
	if p == nil {
		return false, ErrParticipantNotFound
	}
	if !p.Active() {
		return false, nil
	}
	if p.Role == models.RoleInstructor {
		return false, ErrInvalidRole
	}
	removeParticipant(room, p, now)
	p.Kicked = true
	return true, nil
}

// SetRole promotes or demotes an active participant. The owner keeps the instructor role.
func SetRole(room *models.Room, actorID, targetID uuid.UUID, role models.Role) (models.Participant, bool, error) {
	if !role.Valid() {
		return models.Participant{}, false, ErrInvalidInput.withMessage("role must be instructor or student")
	}
	if err := requireInstructor(room, actorID); err != nil {
		return models.Participant{}, false, err
	}
	p := findParticipant(room, targetID)
	if p == nil || !p.Active() {
		return models.Participant{}, false, ErrParticipantNotFound
	}
	if p.Role == role {
		return *p, false, nil
	}
	if role == models.RoleStudent && room.OwnerID != nil && *room.OwnerID == targetID {
		return models.Participant{}, false, ErrOwnerDemotion
	}
	p.Role = role
	return *p, true, nil
}

// UpdateConnectionQuality records a participant's self-reported connection quality.
func UpdateConnectionQuality(room *models.Room, userID uuid.UUID, q models.ConnectionQuality) (models.Participant, bool, error) {
	if !q.Valid() {
		return models.Participant{}, false, ErrInvalidInput.withMessage("unknown connection quality")
	}
	p := findParticipant(room, userID)
	if p == nil || !p.Active() {
		return models.Participant{}, false, ErrParticipantNotFound
	}
	if p.ConnectionQuality == q {
		return *p, false, nil
	}
	p.ConnectionQuality = q
	return *p, true, nil
}

// ActiveParticipants lists the live roster ordered by join time.
func ActiveParticipants(room *models.Room) []models.Participant {
	out := make([]models.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p.Active() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func moderationTarget(room *models.Room, actorID, targetID uuid.UUID) (*models.Participant, error) {
	if err := requireInstructor(room, actorID); err != nil {
		return nil, err
	}
	target := findParticipant(room, targetID)
	if target == nil || !target.Active() {
		return nil, ErrParticipantNotFound
	}
	if target.Role == models.RoleInstructor {
		return nil, ErrInvalidRole
	}
	return target, nil
}

func removeParticipant(room *models.Room, p *models.Participant, now time.Time) {
	left := now
	p.LeftAt = &left
	RecordLeave(room, p.UserID, now)
	withdrawPending(room, p.UserID)
}
