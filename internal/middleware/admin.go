package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/response"
)

const (
	// AdminSessionCookie carries the admin session id issued by PUT /admin/session.
	AdminSessionCookie = "admin_session"
	// ContextAdminTokenKey stores the backend bearer token on the gin context.
	ContextAdminTokenKey = "adminToken"
)

type tokenResolver interface {
	Token(ctx context.Context, sessionID string) (string, error)
}

// AdminToken resolves the backend token for admin routes, preferring an
// explicit Authorization header over the session cookie. A missing token is
// not an error: the backend decides whether the call is authorised.
func AdminToken(sessions tokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
				c.Abort()
				return
			}
			c.Set(ContextAdminTokenKey, strings.TrimSpace(parts[1]))
			c.Next()
			return
		}

		sessionID, err := c.Cookie(AdminSessionCookie)
		if err != nil || sessionID == "" || sessions == nil {
			c.Next()
			return
		}
		token, err := sessions.Token(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, appErrors.ErrUnauthorized) {
				c.Next()
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextAdminTokenKey, token)
		c.Next()
	}
}

// AdminTokenFrom returns the token attached by AdminToken, or "".
func AdminTokenFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextAdminTokenKey); ok {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}
