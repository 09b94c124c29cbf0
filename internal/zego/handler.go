package zego

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/config"
	"github.com/aura-webinar/classroom/internal/auth"
	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/coordinator"
	"github.com/aura-webinar/classroom/internal/middleware"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/internal/rooms"
	"github.com/aura-webinar/classroom/pkg/response"
)

const defaultTokenValidSec = 3600 * 24

// Handler serves provider tokens and the provider room callback.
type Handler struct {
	coord  *coordinator.Coordinator
	cfg    config.ZegoConfig
	logger *zap.Logger
}

// NewHandler creates a ZEGO handler.
func NewHandler(coord *coordinator.Coordinator, cfg config.ZegoConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{coord: coord, cfg: cfg, logger: logger}
}

// GetToken handles GET /rooms/:roomId/provider-token?role=instructor|student.
// Returns { token, app_id, room_id, user_id } for the client SDK. JWT required.
func (h *Handler) GetToken(c *gin.Context) {
	if !h.cfg.Enabled() {
		response.ServiceUnavailable(c, "ZEGOCLOUD not configured (ZEGO_APP_ID, ZEGO_SERVER_SECRET)")
		return
	}
	roomID := c.Param("roomId")
	if !classroom.ValidRoomID(roomID) {
		response.BadRequest(c, "invalid roomId")
		return
	}
	role := models.Role(c.DefaultQuery("role", string(models.RoleStudent)))
	if !role.Valid() {
		response.BadRequest(c, "role must be instructor or student")
		return
	}
	userID := middleware.UserID(c)

	room, err := h.coord.Snapshot(c.Request.Context(), roomID)
	if err != nil && !errors.Is(err, classroom.ErrRoomNotFound) {
		rooms.Fail(c, h.logger, err)
		return
	}
	if room != nil && room.IsClosed() {
		rooms.Fail(c, h.logger, classroom.ErrRoomClosed)
		return
	}
	if role == models.RoleInstructor && !auth.CanInstruct(middleware.UserRole(c)) && (room == nil || !classroom.IsInstructor(room, userID)) {
		rooms.Fail(c, h.logger, classroom.ErrInstructorNotAllowed)
		return
	}

	validSec := h.cfg.TokenValidSec
	if validSec <= 0 {
		validSec = defaultTokenValidSec
	}
	token, err := GenerateRoomToken(h.cfg.AppID, h.cfg.ServerSecret, roomID, userID.String(), role, validSec)
	if err != nil {
		h.logger.Error("zego token generation failed", zap.Error(err), zap.String("room_id", roomID))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, gin.H{
		"token":   token,
		"app_id":  h.cfg.AppID,
		"room_id": roomID,
		"user_id": userID.String(),
	})
}

// Callback handles POST /webhooks/zego. Room logins and logouts become roster
// changes and a provider room close ends the session. The provider retries on
// non-2xx, so events that can never apply are acknowledged and dropped.
func (h *Handler) Callback(c *gin.Context) {
	var e Event
	if err := c.ShouldBindJSON(&e); err != nil {
		response.BadRequest(c, "invalid callback body")
		return
	}
	if !VerifySignature(h.cfg.CallbackSecret, e) {
		h.logger.Warn("zego callback signature mismatch", zap.String("event", e.Event), zap.String("room_id", e.RoomID))
		response.Unauthorized(c, "invalid signature")
		return
	}

	act, ok := h.action(e)
	if !ok {
		response.OK(c, gin.H{"ignored": true})
		return
	}
	_, err := h.coord.Apply(c.Request.Context(), e.RoomID, act)
	switch {
	case err == nil:
	case classroom.KindOf(err) == classroom.KindInternal || classroom.KindOf(err) == classroom.KindConflict:
		h.logger.Error("zego callback failed", zap.String("event", e.Event), zap.String("room_id", e.RoomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.Body{Success: false, Error: "retry later"})
		return
	default:
		// A logout for someone already gone, or a login to a closed room.
		h.logger.Info("zego callback not applied",
			zap.String("event", e.Event),
			zap.String("room_id", e.RoomID),
			zap.String("kind", string(classroom.KindOf(err))))
	}
	response.OK(c, gin.H{"ignored": err != nil})
}

func (h *Handler) action(e Event) (classroom.Action, bool) {
	if !classroom.ValidRoomID(e.RoomID) {
		return nil, false
	}
	if e.Event == EventRoomClose {
		return classroom.EndSessionAction{Reason: models.CloseReasonProvider}, true
	}
	userID, err := uuid.Parse(e.UserAccount)
	if err != nil {
		// Accounts outside the classroom user space, such as recorders.
		return nil, false
	}
	switch e.Event {
	case EventRoomLogin:
		name := strings.TrimSpace(e.UserNickname)
		if name == "" {
			name = e.UserAccount
		}
		return classroom.JoinAction{UserID: userID, DisplayName: name, At: e.At()}, true
	case EventRoomLogout:
		return classroom.LeaveAction{UserID: userID, At: e.At()}, true
	}
	return nil, false
}
