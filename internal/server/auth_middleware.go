package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authsvc "github.com/kapu/sql-detective-go/internal/service/auth"
)

const userIDKey = "user_id"

func parseBearerToken(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return "", false
	}
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth: Bearer 토큰을 검증하고 user_id를 컨텍스트에 심는 미들웨어
func RequireAuth(auth *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := parseBearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized. Please log in.",
			})
			return
		}

		userID, err := auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized. Please log in.",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID: RequireAuth가 심어둔 user_id를 꺼낸다.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
