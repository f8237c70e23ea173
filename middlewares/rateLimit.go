package middlewares

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/Congregate/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	limiters = make(map[string]*rate.Limiter)
	mu       sync.Mutex
)

func getLimiter(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	limiter, exists := limiters[key]
	if !exists {
		limiter = rate.NewLimiter(r, b)
		limiters[key] = limiter
	}
	return limiter
}

func RateLimitMiddleware(r rate.Limit, b int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		limiter := getLimiter(key, r, b)

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down :("})
			return
		}

		c.Next()
	}
}

// ClientIPKey buckets anonymous routes (login, signup, password reset) by
// caller address.
func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// UserKey buckets authenticated routes by account, falling back to the
// caller address when CheckAuth has not run.
func UserKey(c *gin.Context) string {
	if user, ok := c.Get("currentUser"); ok {
		if profile, ok := user.(models.UserProfile); ok {
			return "user:" + strconv.Itoa(profile.User_Profile_ID)
		}
	}
	return ClientIPKey(c)
}
