package classroom

import (
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/models"
)

// ActionKind names an action variant in logs and hooks.
type ActionKind string

const (
	KindJoin              ActionKind = "join"
	KindLeave             ActionKind = "leave"
	KindConnectionQuality ActionKind = "connection_quality"
	KindSetMute           ActionKind = "set_mute"
	KindMuteAll           ActionKind = "mute_all"
	KindKick              ActionKind = "kick"
	KindSetRole           ActionKind = "set_role"
	KindRaiseHand         ActionKind = "raise_hand"
	KindLowerHand         ActionKind = "lower_hand"
	KindAcknowledgeHand   ActionKind = "acknowledge_hand"
	KindResolveHand       ActionKind = "resolve_hand"
	KindCreatePoll        ActionKind = "create_poll"
	KindVote              ActionKind = "vote"
	KindClosePoll         ActionKind = "close_poll"
	KindAddNote           ActionKind = "add_note"
	KindDeleteNote        ActionKind = "delete_note"
	KindCloseRoom         ActionKind = "close_room"
	KindEndSession        ActionKind = "end_session"
	KindSweepIdle         ActionKind = "sweep_idle"
)

// Action is one state transition. The set is closed: only the variants in this file implement it.
type Action interface {
	Kind() ActionKind
	apply(s *session) (view func() any, changed bool, err error)
}

// Env carries the inputs an action needs besides the room.
type Env struct {
	Now    time.Time
	Limits Limits
}

// Outcome is the result of a successful Apply. When Changed is set the room's version
// and activity time have already been advanced.
type Outcome struct {
	Room    *models.Room
	View    any
	Changed bool
}

type session struct {
	room   *models.Room
	now    time.Time
	limits Limits
}

func (s *session) at(t time.Time) time.Time {
	if t.IsZero() || t.After(s.now) {
		return s.now
	}
	return t
}

// Apply runs act against room, mutating it in place. room is nil when no document exists
// yet; only a join creates one. Every validation happens before the first write, and
// callers pass a clone so a failure leaves the committed snapshot untouched. The view is
// rendered after the version bump so it always carries the version being committed.
func Apply(room *models.Room, roomID string, act Action, env Env) (Outcome, error) {
	if act == nil {
		return Outcome{}, ErrInvalidInput.withMessage("missing action")
	}
	created := false
	if room == nil {
		if _, ok := act.(JoinAction); !ok {
			return Outcome{}, ErrRoomNotFound
		}
		room = NewRoom(roomID, env.Now)
		created = true
	}
	if room.IsClosed() && !closing(act) {
		return Outcome{}, ErrRoomClosed
	}
	view, changed, err := act.apply(&session{room: room, now: env.Now, limits: env.Limits})
	if err != nil {
		return Outcome{}, err
	}
	changed = changed || created
	if changed {
		room.Version++
		room.LastActivityAt = env.Now
	}
	return Outcome{Room: room, View: view(), Changed: changed}, nil
}

func closing(act Action) bool {
	switch act.(type) {
	case CloseRoomAction, EndSessionAction, SweepIdleAction:
		return true
	}
	return false
}

// JoinAction adds or refreshes a participant. At is the provider-confirmed join time, if known.
type JoinAction struct {
	UserID            uuid.UUID
	DisplayName       string
	Role              models.Role
	ConnectionQuality models.ConnectionQuality
	CanInstruct       bool
	At                time.Time
}

func (JoinAction) Kind() ActionKind { return KindJoin }

func (a JoinAction) apply(s *session) (func() any, bool, error) {
	_, changed, err := Join(s.room, JoinInput{
		UserID:            a.UserID,
		DisplayName:       a.DisplayName,
		Role:              a.Role,
		ConnectionQuality: a.ConnectionQuality,
		CanInstruct:       a.CanInstruct,
	}, s.limits, s.at(a.At))
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRoomView(s.room, a.UserID) }, changed, nil
}

// LeaveAction removes a participant from the live roster.
type LeaveAction struct {
	UserID uuid.UUID
	At     time.Time
}

func (LeaveAction) Kind() ActionKind { return KindLeave }

func (a LeaveAction) apply(s *session) (func() any, bool, error) {
	changed, err := Leave(s.room, a.UserID, s.at(a.At))
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, nil) }, changed, nil
}

// ConnectionQualityAction records the participant's own connection report.
type ConnectionQualityAction struct {
	UserID  uuid.UUID
	Quality models.ConnectionQuality
}

func (ConnectionQualityAction) Kind() ActionKind { return KindConnectionQuality }

func (a ConnectionQualityAction) apply(s *session) (func() any, bool, error) {
	p, changed, err := UpdateConnectionQuality(s.room, a.UserID, a.Quality)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, &p) }, changed, nil
}

// SetMuteAction mutes or unmutes one student.
type SetMuteAction struct {
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Muted    bool
}

func (SetMuteAction) Kind() ActionKind { return KindSetMute }

func (a SetMuteAction) apply(s *session) (func() any, bool, error) {
	p, changed, err := SetMute(s.room, a.ActorID, a.TargetID, a.Muted)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, &p) }, changed, nil
}

// MuteAllAction mutes every active student.
type MuteAllAction struct {
	ActorID uuid.UUID
}

func (MuteAllAction) Kind() ActionKind { return KindMuteAll }

func (a MuteAllAction) apply(s *session) (func() any, bool, error) {
	muted, err := MuteAll(s.room, a.ActorID)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, nil) }, len(muted) > 0, nil
}

// KickAction removes a student and leaves a tombstone for re-admission.
type KickAction struct {
	ActorID  uuid.UUID
	TargetID uuid.UUID
}

func (KickAction) Kind() ActionKind { return KindKick }

func (a KickAction) apply(s *session) (func() any, bool, error) {
	changed, err := Kick(s.room, a.ActorID, a.TargetID, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, nil) }, changed, nil
}

// SetRoleAction promotes or demotes a participant for co-teaching.
type SetRoleAction struct {
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Role     models.Role
}

func (SetRoleAction) Kind() ActionKind { return KindSetRole }

func (a SetRoleAction) apply(s *session) (func() any, bool, error) {
	p, changed, err := SetRole(s.room, a.ActorID, a.TargetID, a.Role)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRosterView(s.room, &p) }, changed, nil
}

// RaiseHandAction queues a question.
type RaiseHandAction struct {
	UserID   uuid.UUID
	UserName string
	Question string
}

func (RaiseHandAction) Kind() ActionKind { return KindRaiseHand }

func (a RaiseHandAction) apply(s *session) (func() any, bool, error) {
	h, changed, err := Raise(s.room, RaiseInput{UserID: a.UserID, UserName: a.UserName, Question: a.Question}, s.limits, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewQueueView(s.room, &h) }, changed, nil
}

// LowerHandAction withdraws the user's pending entry.
type LowerHandAction struct {
	UserID uuid.UUID
}

func (LowerHandAction) Kind() ActionKind { return KindLowerHand }

func (a LowerHandAction) apply(s *session) (func() any, bool, error) {
	changed := Lower(s.room, a.UserID)
	return func() any { return NewQueueView(s.room, nil) }, changed, nil
}

// AcknowledgeHandAction marks an entry as being answered.
type AcknowledgeHandAction struct {
	ActorID     uuid.UUID
	HandRaiseID uuid.UUID
}

func (AcknowledgeHandAction) Kind() ActionKind { return KindAcknowledgeHand }

func (a AcknowledgeHandAction) apply(s *session) (func() any, bool, error) {
	h, changed, err := Acknowledge(s.room, a.ActorID, a.HandRaiseID, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewQueueView(s.room, &h) }, changed, nil
}

// ResolveHandAction closes an entry.
type ResolveHandAction struct {
	ActorID     uuid.UUID
	HandRaiseID uuid.UUID
}

func (ResolveHandAction) Kind() ActionKind { return KindResolveHand }

func (a ResolveHandAction) apply(s *session) (func() any, bool, error) {
	h, err := Resolve(s.room, a.ActorID, a.HandRaiseID, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewQueueView(s.room, &h) }, true, nil
}

// CreatePollAction opens a new poll.
type CreatePollAction struct {
	ActorID  uuid.UUID
	Question string
	Options  []string
	Type     models.PollType
}

func (CreatePollAction) Kind() ActionKind { return KindCreatePoll }

func (a CreatePollAction) apply(s *session) (func() any, bool, error) {
	p, err := CreatePoll(s.room, a.ActorID, PollInput{Question: a.Question, Options: a.Options, Type: a.Type}, s.limits, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewPollView(s.room, p, a.ActorID) }, true, nil
}

// VoteAction casts the user's single, immutable vote.
type VoteAction struct {
	PollID                uuid.UUID
	UserID                uuid.UUID
	SelectedOptionIndexes []int
}

func (VoteAction) Kind() ActionKind { return KindVote }

func (a VoteAction) apply(s *session) (func() any, bool, error) {
	p, err := Vote(s.room, a.PollID, a.UserID, a.SelectedOptionIndexes, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewPollView(s.room, p, a.UserID) }, true, nil
}

// ClosePollAction freezes a poll's tally.
type ClosePollAction struct {
	ActorID uuid.UUID
	PollID  uuid.UUID
}

func (ClosePollAction) Kind() ActionKind { return KindClosePoll }

func (a ClosePollAction) apply(s *session) (func() any, bool, error) {
	p, changed, err := ClosePoll(s.room, a.ActorID, a.PollID, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewPollView(s.room, p, a.ActorID) }, changed, nil
}

// AddNoteAction stores a private note.
type AddNoteAction struct {
	UserID           uuid.UUID
	Content          string
	TimestampSeconds int64
}

func (AddNoteAction) Kind() ActionKind { return KindAddNote }

func (a AddNoteAction) apply(s *session) (func() any, bool, error) {
	n, err := AddNote(s.room, NoteInput{UserID: a.UserID, Content: a.Content, TimestampSeconds: a.TimestampSeconds}, s.limits, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return n }, true, nil
}

// DeleteNoteAction removes one of the user's notes.
type DeleteNoteAction struct {
	UserID uuid.UUID
	NoteID uuid.UUID
}

func (DeleteNoteAction) Kind() ActionKind { return KindDeleteNote }

func (a DeleteNoteAction) apply(s *session) (func() any, bool, error) {
	if err := DeleteNote(s.room, a.UserID, a.NoteID); err != nil {
		return nil, false, err
	}
	return func() any { return ListNotes(s.room, a.UserID) }, true, nil
}

// CloseRoomAction ends the session on an instructor's request.
type CloseRoomAction struct {
	ActorID uuid.UUID
}

func (CloseRoomAction) Kind() ActionKind { return KindCloseRoom }

func (a CloseRoomAction) apply(s *session) (func() any, bool, error) {
	changed, err := CloseRoom(s.room, a.ActorID, s.now)
	if err != nil {
		return nil, false, err
	}
	return func() any { return NewRoomView(s.room, a.ActorID) }, changed, nil
}

// EndSessionAction closes the room on an external signal.
type EndSessionAction struct {
	Reason models.CloseReason
}

func (EndSessionAction) Kind() ActionKind { return KindEndSession }

func (a EndSessionAction) apply(s *session) (func() any, bool, error) {
	reason := a.Reason
	if reason == "" {
		reason = models.CloseReasonProvider
	}
	changed := EndSession(s.room, reason, s.now)
	return func() any { return NewRoomView(s.room, uuid.Nil) }, changed, nil
}

// SweepIdleAction closes the room as orphaned if it is still idle since Cutoff
// when re-read under the room lock.
type SweepIdleAction struct {
	Cutoff time.Time
}

func (SweepIdleAction) Kind() ActionKind { return KindSweepIdle }

func (a SweepIdleAction) apply(s *session) (func() any, bool, error) {
	changed := SweepIdle(s.room, a.Cutoff, s.now)
	return func() any { return NewRoomView(s.room, uuid.Nil) }, changed, nil
}
