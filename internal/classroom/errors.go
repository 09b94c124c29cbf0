package classroom

import "errors"

// Kind is the error taxonomy surfaced to clients in the "kind" field.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindForbidden         Kind = "Forbidden"
	KindInvalidRole       Kind = "InvalidRole"
	KindInvalidTransition Kind = "InvalidTransition"
	KindAlreadyExists     Kind = "AlreadyExists"
	KindInvalidInput      Kind = "InvalidInput"
	KindRoomClosed        Kind = "RoomClosed"
	KindConflict          Kind = "Conflict"
	KindInternal          Kind = "Internal"
)

// Error is a domain failure. Two errors match under errors.Is when their codes match,
// so callers may compare against the sentinels below even after a message override.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

var (
	ErrRoomNotFound        = &Error{Kind: KindNotFound, Code: "RoomNotFound", Message: "room not found"}
	ErrParticipantNotFound = &Error{Kind: KindNotFound, Code: "ParticipantNotFound", Message: "participant not found"}
	ErrHandRaiseNotFound   = &Error{Kind: KindNotFound, Code: "HandRaiseNotFound", Message: "hand raise not found"}
	ErrPollNotFound        = &Error{Kind: KindNotFound, Code: "PollNotFound", Message: "poll not found"}
	ErrNoteNotFound        = &Error{Kind: KindNotFound, Code: "NoteNotFound", Message: "note not found"}
	ErrArchiveNotFound     = &Error{Kind: KindNotFound, Code: "ArchiveNotFound", Message: "room archive is not available yet"}

	ErrForbidden            = &Error{Kind: KindForbidden, Code: "Forbidden", Message: "instructor role required"}
	ErrInstructorNotAllowed = &Error{Kind: KindForbidden, Code: "InstructorNotAllowed", Message: "not allowed to join as instructor"}
	ErrOwnerDemotion        = &Error{Kind: KindForbidden, Code: "OwnerDemotion", Message: "room owner cannot be demoted"}
	ErrInvalidRole          = &Error{Kind: KindInvalidRole, Code: "InvalidRole", Message: "target participant is an instructor"}

	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Code: "InvalidTransition", Message: "invalid state transition"}
	ErrPollClosed        = &Error{Kind: KindInvalidTransition, Code: "PollClosed", Message: "poll is closed"}
	ErrAlreadyVoted      = &Error{Kind: KindInvalidTransition, Code: "AlreadyVoted", Message: "vote already recorded"}
	ErrRoomActive        = &Error{Kind: KindInvalidTransition, Code: "RoomActive", Message: "room is still active"}

	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Code: "InvalidInput", Message: "invalid input"}
	ErrInvalidPoll      = &Error{Kind: KindInvalidInput, Code: "InvalidPoll", Message: "poll needs at least 2 non-empty options"}
	ErrInvalidSelection = &Error{Kind: KindInvalidInput, Code: "InvalidSelection", Message: "invalid option selection"}
	ErrRoomFull         = &Error{Kind: KindInvalidInput, Code: "RoomFull", Message: "room is full"}

	ErrRoomClosed = &Error{Kind: KindRoomClosed, Code: "RoomClosed", Message: "room is closed"}
	ErrConflict   = &Error{Kind: KindConflict, Code: "VersionConflict", Message: "room was modified concurrently, retry"}
)

// KindOf returns the taxonomy kind of err, or KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
