package middlewares

import (
	"net/http"

	"github.com/Congregate/policy"
	"github.com/gin-gonic/gin"
)

// RequireAction aborts with 403 unless the caller's role may perform the
// action. Must run after CheckAuth.
func RequireAction(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")

		if !policy.CanPerform(role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "You do not have permission to perform this action",
				"action": string(action),
			})
			return
		}

		c.Next()
	}
}
