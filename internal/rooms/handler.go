// Package rooms exposes the classroom coordinator over HTTP: one POST per action and
// cheap, cacheable GETs for polling clients.
package rooms

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/internal/auth"
	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/coordinator"
	"github.com/aura-webinar/classroom/internal/middleware"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/pkg/response"
)

// ArchiveLinker resolves a download link for a closed room's archived snapshot.
type ArchiveLinker interface {
	ArchiveURL(ctx context.Context, roomID string, version int64) (string, error)
}

// Handler serves the room endpoints.
type Handler struct {
	coord        *coordinator.Coordinator
	archive      ArchiveLinker
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewHandler creates a room handler. archive may be nil when archiving is disabled.
func NewHandler(coord *coordinator.Coordinator, archive ArchiveLinker, pollInterval time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Handler{coord: coord, archive: archive, pollInterval: pollInterval, logger: logger}
}

// Register mounts the room routes on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	r := rg.Group("/rooms/:roomId")

	r.POST("/join", h.Join)
	r.POST("/leave", h.Leave)
	r.POST("/connection-quality", h.ConnectionQuality)
	r.POST("/mute-all", h.MuteAll)
	r.POST("/participants/:userId/mute", h.SetMute)
	r.POST("/participants/:userId/kick", h.Kick)
	r.POST("/participants/:userId/role", h.SetRole)
	r.POST("/hands/raise", h.RaiseHand)
	r.POST("/hands/lower", h.LowerHand)
	r.POST("/hands/:handId/acknowledge", h.AcknowledgeHand)
	r.POST("/hands/:handId/resolve", h.ResolveHand)
	r.POST("/polls", h.CreatePoll)
	r.POST("/polls/:pollId/vote", h.Vote)
	r.POST("/polls/:pollId/close", h.ClosePoll)
	r.POST("/notes", h.AddNote)
	r.DELETE("/notes/:noteId", h.DeleteNote)
	r.POST("/close", h.CloseRoom)

	r.GET("", h.GetRoom)
	r.GET("/participants", h.ListParticipants)
	r.GET("/hands/pending", h.PendingHands)
	r.GET("/hands", h.HandHistory)
	r.GET("/polls", h.ListPolls)
	r.GET("/polls/:pollId", h.GetPoll)
	r.GET("/polls/:pollId/tally", h.PollTally)
	r.GET("/attendance", h.Attendance)
	r.GET("/attendance/:userId", h.UserAttendance)
	r.GET("/notes", h.ListNotes)
	r.GET("/archive-url", h.ArchiveURL)
}

// JoinRequest is the body for POST /rooms/:roomId/join. The display name defaults to the token's name.
type JoinRequest struct {
	DisplayName       string                   `json:"display_name" binding:"omitempty,max=100"`
	Role              models.Role              `json:"role" binding:"omitempty,oneof=instructor student"`
	ConnectionQuality models.ConnectionQuality `json:"connection_quality" binding:"omitempty,oneof=good medium poor unknown"`
}

// ConnectionQualityRequest is the body for POST /rooms/:roomId/connection-quality.
type ConnectionQualityRequest struct {
	Quality models.ConnectionQuality `json:"quality" binding:"required,oneof=good medium poor unknown"`
}

// MuteRequest is the body for POST /rooms/:roomId/participants/:userId/mute.
type MuteRequest struct {
	Muted *bool `json:"muted" binding:"required"`
}

// RoleRequest is the body for POST /rooms/:roomId/participants/:userId/role.
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=instructor student"`
}

// RaiseHandRequest is the body for POST /rooms/:roomId/hands/raise.
type RaiseHandRequest struct {
	Question string `json:"question"`
}

// CreatePollRequest is the body for POST /rooms/:roomId/polls.
type CreatePollRequest struct {
	Question string          `json:"question" binding:"required"`
	Options  []string        `json:"options"`
	Type     models.PollType `json:"type" binding:"omitempty,oneof=single multiple"`
}

// VoteRequest is the body for POST /rooms/:roomId/polls/:pollId/vote.
type VoteRequest struct {
	SelectedOptionIndexes []int `json:"selected_option_indexes"`
}

// NoteRequest is the body for POST /rooms/:roomId/notes.
type NoteRequest struct {
	Content          string `json:"content" binding:"required"`
	TimestampSeconds int64  `json:"timestamp_seconds"`
}

// Join handles POST /rooms/:roomId/join.
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if !bindOptional(c, &req) {
		return
	}
	name := req.DisplayName
	if name == "" {
		name = middleware.UserName(c)
	}
	h.apply(c, classroom.JoinAction{
		UserID:            middleware.UserID(c),
		DisplayName:       name,
		Role:              req.Role,
		ConnectionQuality: req.ConnectionQuality,
		CanInstruct:       auth.CanInstruct(middleware.UserRole(c)),
	})
}

// Leave handles POST /rooms/:roomId/leave.
func (h *Handler) Leave(c *gin.Context) {
	h.apply(c, classroom.LeaveAction{UserID: middleware.UserID(c)})
}

// ConnectionQuality handles POST /rooms/:roomId/connection-quality.
func (h *Handler) ConnectionQuality(c *gin.Context) {
	var req ConnectionQualityRequest
	if !bind(c, &req) {
		return
	}
	h.apply(c, classroom.ConnectionQualityAction{UserID: middleware.UserID(c), Quality: req.Quality})
}

// SetMute handles POST /rooms/:roomId/participants/:userId/mute (instructor).
func (h *Handler) SetMute(c *gin.Context) {
	target, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	var req MuteRequest
	if !bind(c, &req) {
		return
	}
	h.apply(c, classroom.SetMuteAction{ActorID: middleware.UserID(c), TargetID: target, Muted: *req.Muted})
}

// MuteAll handles POST /rooms/:roomId/mute-all (instructor).
func (h *Handler) MuteAll(c *gin.Context) {
	h.apply(c, classroom.MuteAllAction{ActorID: middleware.UserID(c)})
}

// Kick handles POST /rooms/:roomId/participants/:userId/kick (instructor).
func (h *Handler) Kick(c *gin.Context) {
	target, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	h.apply(c, classroom.KickAction{ActorID: middleware.UserID(c), TargetID: target})
}

// SetRole handles POST /rooms/:roomId/participants/:userId/role (instructor).
func (h *Handler) SetRole(c *gin.Context) {
	target, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	var req RoleRequest
	if !bind(c, &req) {
		return
	}
	h.apply(c, classroom.SetRoleAction{ActorID: middleware.UserID(c), TargetID: target, Role: req.Role})
}

// RaiseHand handles POST /rooms/:roomId/hands/raise. Raising while pending returns the existing entry.
func (h *Handler) RaiseHand(c *gin.Context) {
	var req RaiseHandRequest
	if !bindOptional(c, &req) {
		return
	}
	// The queue entry takes the roster display name.
	h.apply(c, classroom.RaiseHandAction{UserID: middleware.UserID(c), Question: req.Question})
}

// LowerHand handles POST /rooms/:roomId/hands/lower.
func (h *Handler) LowerHand(c *gin.Context) {
	h.apply(c, classroom.LowerHandAction{UserID: middleware.UserID(c)})
}

// AcknowledgeHand handles POST /rooms/:roomId/hands/:handId/acknowledge (instructor).
func (h *Handler) AcknowledgeHand(c *gin.Context) {
	id, ok := pathUUID(c, "handId")
	if !ok {
		return
	}
	h.apply(c, classroom.AcknowledgeHandAction{ActorID: middleware.UserID(c), HandRaiseID: id})
}

// ResolveHand handles POST /rooms/:roomId/hands/:handId/resolve (instructor).
func (h *Handler) ResolveHand(c *gin.Context) {
	id, ok := pathUUID(c, "handId")
	if !ok {
		return
	}
	h.apply(c, classroom.ResolveHandAction{ActorID: middleware.UserID(c), HandRaiseID: id})
}

// CreatePoll handles POST /rooms/:roomId/polls (instructor).
func (h *Handler) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if !bind(c, &req) {
		return
	}
	h.applyStatus(c, classroom.CreatePollAction{
		ActorID:  middleware.UserID(c),
		Question: req.Question,
		Options:  req.Options,
		Type:     req.Type,
	}, true)
}

// Vote handles POST /rooms/:roomId/polls/:pollId/vote.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := pathUUID(c, "pollId")
	if !ok {
		return
	}
	var req VoteRequest
	if !bind(c, &req) {
		return
	}
	h.apply(c, classroom.VoteAction{PollID: id, UserID: middleware.UserID(c), SelectedOptionIndexes: req.SelectedOptionIndexes})
}

// ClosePoll handles POST /rooms/:roomId/polls/:pollId/close (instructor).
func (h *Handler) ClosePoll(c *gin.Context) {
	id, ok := pathUUID(c, "pollId")
	if !ok {
		return
	}
	h.apply(c, classroom.ClosePollAction{ActorID: middleware.UserID(c), PollID: id})
}

// AddNote handles POST /rooms/:roomId/notes.
func (h *Handler) AddNote(c *gin.Context) {
	var req NoteRequest
	if !bind(c, &req) {
		return
	}
	h.applyStatus(c, classroom.AddNoteAction{
		UserID:           middleware.UserID(c),
		Content:          req.Content,
		TimestampSeconds: req.TimestampSeconds,
	}, true)
}

// DeleteNote handles DELETE /rooms/:roomId/notes/:noteId.
func (h *Handler) DeleteNote(c *gin.Context) {
	id, ok := pathUUID(c, "noteId")
	if !ok {
		return
	}
	h.apply(c, classroom.DeleteNoteAction{UserID: middleware.UserID(c), NoteID: id})
}

// CloseRoom handles POST /rooms/:roomId/close (instructor).
func (h *Handler) CloseRoom(c *gin.Context) {
	h.apply(c, classroom.CloseRoomAction{ActorID: middleware.UserID(c)})
}

func (h *Handler) apply(c *gin.Context, act classroom.Action) {
	h.applyStatus(c, act, false)
}

func (h *Handler) applyStatus(c *gin.Context, act classroom.Action, created bool) {
	out, err := h.coord.Apply(c.Request.Context(), c.Param("roomId"), act)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	setVersion(c, out.Room.Version)
	if created {
		response.Created(c, out.View)
		return
	}
	response.OK(c, out.View)
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, req)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
