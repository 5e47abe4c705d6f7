package middleware

import (
	"errors"
	"net/http"
	"strings"

	pkgAuth "chuchuang-service/pkg/auth"
	"chuchuang-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextPlayerIDKey = "playerID"
	ContextRoomIDKey   = "roomID"
)

// PlayerAuthRequired accepts a bearer player token. When the route carries a
// :roomId parameter the token must have been issued for that room.
func PlayerAuthRequired(issuer *pkgAuth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		claims, err := issuer.ParsePlayerToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if roomID := c.Param("roomId"); roomID != "" && !strings.EqualFold(roomID, claims.RoomID) {
			response.Error(c, http.StatusForbidden, "token not issued for this room")
			c.Abort()
			return
		}

		c.Set(ContextPlayerIDKey, claims.PlayerID)
		c.Set(ContextRoomIDKey, claims.RoomID)
		c.Next()
	}
}

func PlayerID(c *gin.Context) string {
	return c.GetString(ContextPlayerIDKey)
}

func extractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
