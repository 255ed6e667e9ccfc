package server

import (
	"net/http"
	"strings"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userContextKey = "user"

// RequireUser resolves the caller from a bearer ID token or the ID token
// cookie and provisions the user on first sight.
func RequireUser(verifier app.IdentityVerifier, users *app.UserService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			respondMessage(c, http.StatusUnauthorized, "no id token found")
			return
		}
		identity, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.Debug("rejected id token", zap.Error(err))
			respondMessage(c, http.StatusUnauthorized, "can not verify id token")
			return
		}
		user, err := users.EnsureUser(c.Request.Context(), identity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func currentUser(c *gin.Context) *app.User {
	return c.MustGet(userContextKey).(*app.User)
}
