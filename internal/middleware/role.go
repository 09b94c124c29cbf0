package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/classroom/pkg/response"
)

// RequireRole gates operator routes such as the idle sweep on the caller's
// platform role. Classroom roles (instructor, student) are per room and are
// checked by the coordinator instead.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	msg := "platform role required: " + strings.Join(roles, " or ")
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserRole); !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if _, ok := allowed[UserRole(c)]; !ok {
			response.Fail(c, http.StatusForbidden, msg, "Forbidden", "PlatformRoleRequired")
			c.Abort()
			return
		}
		c.Next()
	}
}
