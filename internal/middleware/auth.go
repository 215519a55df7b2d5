package middleware

import (
	"github.com/agensea/agency-nexus-flow/internal/constants"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth resolves the signed-in user from the session cookie. A session
// holding anything but a user id is cleared and treated as signed out.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, ok := sessionUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			if session.Get(constants.ContextKeyUserID) != nil {
				session.Clear()
				_ = session.Save()
			}
			apierrors.Unauthorized(c, "")
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// sessionUserID accepts the integer shapes a session codec may hand back.
func sessionUserID(v any) (uint64, bool) {
	switch id := v.(type) {
	case uint64:
		return id, id != 0
	case int64:
		return uint64(id), id > 0
	case int:
		return uint64(id), id > 0
	default:
		return 0, false
	}
}

// GetUserID returns the user id set by RequireAuth.
func GetUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := v.(uint64)
	return userID, ok
}
