package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
)

// Register mounts the auth routes. Middlewares, such as the rate limiter,
// run in front of every route.
func (h *Handler) Register(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	g := rg.Group("/auth", mws...)
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", middleware.RequireSession(h.verifier), h.Session)

	if h.google != nil && h.states != nil {
		g.GET("/oauth/google", h.OAuthStart)
		g.GET("/oauth/google/callback", h.OAuthCallback)
	}
}
