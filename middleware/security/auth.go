package security

import (
	"net/http"
	"strings"

	"EasyChat/tools/security"

	"github.com/gin-gonic/gin"
)

// CtxUserIDKey is where the middleware leaves the authenticated user id
// for downstream handlers.
const CtxUserIDKey = "userId"

// Middleware verifies the bearer token and injects the resolved user
// identity into the request context. Requests without a valid token are
// rejected before any handler runs.
func Middleware(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
		if token == "" {
			token = strings.TrimSpace(c.Query("token"))
		}

		userID, err := security.ResolveUserID(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the identity the middleware stored; 0 means the route
// was mounted without auth, which is a wiring bug.
func UserID(c *gin.Context) int64 {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0
	}
	uid, _ := v.(int64)
	return uid
}
