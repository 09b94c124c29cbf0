package rooms

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/middleware"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/pkg/response"
	"github.com/aura-webinar/classroom/pkg/storage"
)

// Read endpoints serve the last committed snapshot without taking the room lock.
// Views that depend only on the room document carry a weak ETag of its version so a
// polling client that already has the latest state gets a bodyless 304.

// GetRoom handles GET /rooms/:roomId.
func (h *Handler) GetRoom(c *gin.Context) {
	room, ok := h.cached(c)
	if !ok {
		return
	}
	response.OK(c, classroom.NewRoomView(room, middleware.UserID(c)))
}

// ListParticipants handles GET /rooms/:roomId/participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	room, ok := h.cached(c)
	if !ok {
		return
	}
	response.OK(c, classroom.ActiveParticipants(room))
}

// PendingHands handles GET /rooms/:roomId/hands/pending, oldest raise first.
func (h *Handler) PendingHands(c *gin.Context) {
	room, ok := h.cached(c)
	if !ok {
		return
	}
	response.OK(c, classroom.Pending(room))
}

// HandHistory handles GET /rooms/:roomId/hands.
func (h *Handler) HandHistory(c *gin.Context) {
	room, ok := h.cached(c)
	if !ok {
		return
	}
	response.OK(c, classroom.History(room))
}

// ListPolls handles GET /rooms/:roomId/polls?status=open|closed.
func (h *Handler) ListPolls(c *gin.Context) {
	status := models.PollStatus(c.Query("status"))
	if status != "" && status != models.PollOpen && status != models.PollClosed {
		response.BadRequest(c, "status must be open or closed")
		return
	}
	room, ok := h.cached(c)
	if !ok {
		return
	}
	viewer := middleware.UserID(c)
	polls := classroom.ListPolls(room, status)
	out := make([]classroom.PollView, 0, len(polls))
	for _, p := range polls {
		out = append(out, classroom.NewPollView(room, p, viewer))
	}
	response.OK(c, out)
}

// GetPoll handles GET /rooms/:roomId/polls/:pollId.
func (h *Handler) GetPoll(c *gin.Context) {
	id, ok := pathUUID(c, "pollId")
	if !ok {
		return
	}
	room, ok := h.cached(c)
	if !ok {
		return
	}
	p, err := classroom.GetPoll(room, id)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	response.OK(c, classroom.NewPollView(room, p, middleware.UserID(c)))
}

// PollTally handles GET /rooms/:roomId/polls/:pollId/tally.
func (h *Handler) PollTally(c *gin.Context) {
	id, ok := pathUUID(c, "pollId")
	if !ok {
		return
	}
	room, ok := h.cached(c)
	if !ok {
		return
	}
	p, err := classroom.GetPoll(room, id)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	response.OK(c, classroom.TallyPoll(p))
}

// Attendance handles GET /rooms/:roomId/attendance (instructors). Open intervals keep
// growing between commits, so this view is never answered with 304.
func (h *Handler) Attendance(c *gin.Context) {
	room, ok := h.load(c)
	if !ok {
		return
	}
	if !canReview(room, middleware.UserID(c)) {
		Fail(c, h.logger, classroom.ErrForbidden)
		return
	}
	h.pollHint(c)
	response.OK(c, classroom.Summary(room, h.coord.Now()))
}

// UserAttendance handles GET /rooms/:roomId/attendance/:userId (self or instructors).
func (h *Handler) UserAttendance(c *gin.Context) {
	target, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	room, ok := h.load(c)
	if !ok {
		return
	}
	if target != middleware.UserID(c) && !canReview(room, middleware.UserID(c)) {
		Fail(c, h.logger, classroom.ErrForbidden)
		return
	}
	sum, found := classroom.UserSummary(room, target, h.coord.Now())
	if !found {
		Fail(c, h.logger, classroom.ErrParticipantNotFound)
		return
	}
	h.pollHint(c)
	response.OK(c, sum)
}

// ListNotes handles GET /rooms/:roomId/notes. Only the caller's own notes are returned.
func (h *Handler) ListNotes(c *gin.Context) {
	room, ok := h.cached(c)
	if !ok {
		return
	}
	response.OK(c, classroom.ListNotes(room, middleware.UserID(c)))
}

// ArchiveURL handles GET /rooms/:roomId/archive-url (instructors, closed rooms).
func (h *Handler) ArchiveURL(c *gin.Context) {
	if h.archive == nil {
		response.ServiceUnavailable(c, "room archive is not configured")
		return
	}
	room, ok := h.load(c)
	if !ok {
		return
	}
	if !canReview(room, middleware.UserID(c)) {
		Fail(c, h.logger, classroom.ErrForbidden)
		return
	}
	if !room.IsClosed() {
		Fail(c, h.logger, classroom.ErrRoomActive)
		return
	}
	url, err := h.archive.ArchiveURL(c.Request.Context(), room.ID, room.Version)
	if errors.Is(err, storage.ErrObjectNotFound) {
		Fail(c, h.logger, classroom.ErrArchiveNotFound)
		return
	}
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url, "version": room.Version})
}

func (h *Handler) load(c *gin.Context) (*models.Room, bool) {
	room, err := h.coord.Snapshot(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		Fail(c, h.logger, err)
		return nil, false
	}
	return room, true
}

// cached loads the room and answers 304 when the client already holds this version.
func (h *Handler) cached(c *gin.Context) (*models.Room, bool) {
	room, ok := h.load(c)
	if !ok {
		return nil, false
	}
	h.pollHint(c)
	etag := setVersion(c, room.Version)
	if matchETag(c.GetHeader("If-None-Match"), etag) {
		response.NotModified(c)
		return nil, false
	}
	return room, true
}

func (h *Handler) pollHint(c *gin.Context) {
	c.Header(middleware.HeaderPollInterval, strconv.Itoa(int(h.pollInterval.Seconds())))
}

func setVersion(c *gin.Context, version int64) string {
	etag := versionETag(version)
	c.Header("ETag", etag)
	return etag
}

func versionETag(version int64) string {
	return `W/"` + strconv.FormatInt(version, 10) + `"`
}

func matchETag(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag || `W/`+candidate == etag {
			return true
		}
	}
	return false
}

// canReview allows history reads to anyone who instructed in the room, even after
// they left or the room closed.
func canReview(room *models.Room, userID uuid.UUID) bool {
	if classroom.IsInstructor(room, userID) {
		return true
	}
	for _, p := range room.Participants {
		if p.UserID == userID && p.Role == models.RoleInstructor {
			return true
		}
	}
	return false
}
