package rooms

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/pkg/response"
)

// Sweeper runs one orphan sweep pass.
type Sweeper interface {
	SweepOnce(ctx context.Context) (int, error)
}

// SweepNow handles POST /admin/rooms/sweep. It runs one pass immediately and reports
// how many rooms were closed.
func SweepNow(s Sweeper, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		closed, err := s.SweepOnce(c.Request.Context())
		if err != nil {
			logger.Error("manual sweep", zap.Error(err))
			response.Internal(c, "sweep failed")
			return
		}
		logger.Info("manual sweep", zap.Int("closed", closed))
		response.OK(c, gin.H{"closed": closed})
	}
}
