package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/oauth"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/service"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
)

// RegisterUser creates a credentials identity. The response never carries a
// password field.
func (h *Handler) RegisterUser(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.NewValidation("invalid request body"))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user created successfully",
		"user":    user.Public(),
	})
}

// Login verifies credentials and starts a session. The token is set as a
// cookie and also returned for Bearer clients.
func (h *Handler) Login(c *gin.Context) {
	var in service.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.NewValidation("invalid request body"))
		return
	}

	user, err := h.authService.Login(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	token, ok := h.startSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"user":    user.Public(),
		"token":   token,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), c.Request); err != nil {
		apperr.Respond(c, apperr.Internal("revoke session", err))
		return
	}
	h.sessions.ClearCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Session returns the identity behind the current request.
func (h *Handler) Session(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		apperr.Respond(c, apperr.NewUnauthenticated("unauthorized"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id})
}

// OAuthStart redirects the browser to the provider's consent page.
func (h *Handler) OAuthStart(c *gin.Context) {
	state, err := h.states.Issue(c.Request.Context())
	if err != nil {
		apperr.Respond(c, apperr.Internal("issue oauth state", err))
		return
	}
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// OAuthCallback completes the code flow, signs the user in and redirects to
// the configured success URL.
func (h *Handler) OAuthCallback(c *gin.Context) {
	ctx := c.Request.Context()

	if e := c.Query("error"); e != "" {
		apperr.Respond(c, apperr.NewUnauthenticated("oauth login was cancelled"))
		return
	}

	if err := h.states.Consume(ctx, c.Query("state")); err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			apperr.Respond(c, apperr.NewValidation("invalid oauth state"))
			return
		}
		apperr.Respond(c, apperr.Internal("consume oauth state", err))
		return
	}

	code := c.Query("code")
	if code == "" {
		apperr.Respond(c, apperr.NewValidation("missing authorization code"))
		return
	}

	profile, err := h.google.Exchange(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Warn("oauth exchange failed",
			slog.String("provider", h.google.Name()),
			slog.Any("error", err),
		)
		apperr.Respond(c, apperr.NewUnauthenticated("oauth login failed"))
		return
	}

	user, err := h.authService.OAuthLogin(ctx, *profile)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if _, ok := h.startSession(c, user); !ok {
		return
	}
	c.Redirect(http.StatusFound, h.successURL)
}

func (h *Handler) startSession(c *gin.Context, user *domain.User) (string, bool) {
	token, sess, err := h.sessions.Issue(c.Request.Context(), user)
	if err != nil {
		apperr.Respond(c, apperr.Internal("issue session", err))
		return "", false
	}
	h.sessions.SetCookie(c.Writer, token, sess.ExpiresAt)
	return token, true
}
