package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group. mws run before
// every route and are expected to authenticate the caller and resolve the
// effective user.
func (h *Handler) Register(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	g := rg.Group("/projects", mws...)
	g.GET("", h.list)
	g.POST("", h.create)

	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.GET("/:id/stages/:stage_id", h.getStage)
	g.PATCH("/:id/stages/:stage_id", h.updateStage)
}
