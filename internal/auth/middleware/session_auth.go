package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/session"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
)

// IdentityKey is the gin context key holding the *domain.Identity.
const IdentityKey = "identity"

// RequireSession rejects requests without a verified identity. On success the
// identity is stored both in the gin context and the request context.
func RequireSession(verifier session.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := verifier.Verify(ctx, c.Request)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logging.FromContext(ctx).Error("session lookup failed", slog.Any("error", err))
			}
			apperr.Respond(c, apperr.NewUnauthenticated("unauthorized"))
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(session.WithIdentity(ctx, id))
		c.Next()
	}
}

// Identity returns the identity stored by RequireSession.
func Identity(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*domain.Identity)
	return id, ok && id != nil
}
