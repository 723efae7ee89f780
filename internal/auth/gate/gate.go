// Package gate resolves the effective user a project operation is scoped to:
// the caller, or an impersonated user when the caller is an allow-listed admin.
package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
)

const (
	HeaderImpersonating  = "X-Admin-Impersonating"
	HeaderImpersonatedID = "X-Impersonated-User-Id"

	effectiveUserKey = "effective_user_id"

	msgDenied = "admin privileges required"
)

// Impersonation is the raw impersonation signal taken from request headers.
type Impersonation struct {
	Flag     string
	TargetID string
}

// FromHeaders reads the impersonation headers.
func FromHeaders(h http.Header) Impersonation {
	return Impersonation{
		Flag:     strings.TrimSpace(h.Get(HeaderImpersonating)),
		TargetID: strings.TrimSpace(h.Get(HeaderImpersonatedID)),
	}
}

// requested reports whether impersonation was asked for. A flag that is not
// a boolean, a true flag without a target, or a target without a true flag
// is malformed.
func (i Impersonation) requested() (bool, bool) {
	switch {
	case i.Flag == "":
		return false, i.TargetID == ""
	case strings.EqualFold(i.Flag, "true"):
		return true, i.TargetID != ""
	case strings.EqualFold(i.Flag, "false"):
		return false, i.TargetID == ""
	default:
		return false, false
	}
}

type Gate struct {
	admins map[string]struct{}
}

// New builds a gate from the admin allow-list. Membership is an exact match
// on the caller's email.
func New(adminEmails []string) *Gate {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Gate{admins: admins}
}

func (g *Gate) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := g.admins[email]
	return ok
}

// Resolve returns the effective user id for caller. A denied or malformed
// impersonation request never falls back to the caller's own id.
func (g *Gate) Resolve(caller domain.Identity, imp Impersonation) (string, error) {
	requested, wellFormed := imp.requested()
	if !wellFormed {
		return "", apperr.NewAuthorizationDenied("malformed impersonation headers")
	}
	if !requested {
		return caller.UserID, nil
	}
	if !g.IsAdmin(caller.Email) {
		return "", apperr.NewAuthorizationDenied(msgDenied)
	}
	if !isUserID(imp.TargetID) {
		return "", apperr.NewAuthorizationDenied("malformed impersonation headers")
	}
	return imp.TargetID, nil
}

// ResolveBodyUser applies the same allow-list rule to a user_id embedded in a
// create request body. An empty body id keeps the effective user.
func (g *Gate) ResolveBodyUser(caller domain.Identity, effective, bodyUserID string) (string, error) {
	bodyUserID = strings.TrimSpace(bodyUserID)
	if bodyUserID == "" {
		return effective, nil
	}
	if !g.IsAdmin(caller.Email) {
		return "", apperr.NewAuthorizationDenied(msgDenied)
	}
	if !isUserID(bodyUserID) {
		return "", apperr.NewValidation("user_id must be a valid user id")
	}
	return bodyUserID, nil
}

// User ids are uuids; anything else cannot name a user.
func isUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Middleware resolves the effective user once per request. It must run after
// middleware.RequireSession.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			apperr.Respond(c, apperr.NewUnauthenticated("unauthorized"))
			return
		}

		effective, err := g.Resolve(*caller, FromHeaders(c.Request.Header))
		if err != nil {
			logging.FromContext(c.Request.Context()).Warn("impersonation denied",
				slog.String("caller", caller.UserID),
				slog.String("target", c.GetHeader(HeaderImpersonatedID)),
			)
			apperr.Respond(c, err)
			return
		}
		if effective != caller.UserID {
			logging.FromContext(c.Request.Context()).Info("admin impersonation",
				slog.String("caller", caller.UserID),
				slog.String("effective_user_id", effective),
			)
		}

		c.Set(effectiveUserKey, effective)
		c.Next()
	}
}

// EffectiveUserID returns the id stored by Middleware.
func EffectiveUserID(c *gin.Context) string {
	return c.GetString(effectiveUserKey)
}
