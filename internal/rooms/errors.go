package rooms

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/pkg/response"
)

// StatusFor maps a classroom error kind to an HTTP status.
func StatusFor(kind classroom.Kind) int {
	switch kind {
	case classroom.KindNotFound:
		return http.StatusNotFound
	case classroom.KindForbidden, classroom.KindInvalidRole:
		return http.StatusForbidden
	case classroom.KindInvalidInput:
		return http.StatusBadRequest
	case classroom.KindInvalidTransition, classroom.KindAlreadyExists, classroom.KindConflict:
		return http.StatusConflict
	case classroom.KindRoomClosed:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// Fail writes err as an error body. Infrastructure failures are logged and hidden.
func Fail(c *gin.Context, logger *zap.Logger, err error) {
	var e *classroom.Error
	if !errors.As(err, &e) {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
		return
	}
	response.Fail(c, StatusFor(e.Kind), e.Message, string(e.Kind), e.Code)
}
