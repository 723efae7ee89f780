package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/gate"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
)

// MethodNotSupported is installed as the engine's NoMethod handler.
func MethodNotSupported(c *gin.Context) {
	apperr.Respond(c, apperr.New(apperr.MethodNotSupported, "method not supported"))
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), gate.EffectiveUserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

func (h *Handler) create(c *gin.Context) {
	var in domain.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.NewValidation("invalid request body"))
		return
	}

	caller, ok := middleware.Identity(c)
	if !ok {
		apperr.Respond(c, apperr.NewUnauthenticated("unauthorized"))
		return
	}
	owner, err := h.gate.ResolveBodyUser(*caller, gate.EffectiveUserID(c), in.UserID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), owner, in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "project created successfully", "project": p})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), gate.EffectiveUserID(c), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// update handles both PUT and PATCH with partial patch semantics.
func (h *Handler) update(c *gin.Context) {
	var patch domain.Patch
	if err := bindOptionalJSON(c, &patch); err != nil {
		apperr.Respond(c, apperr.NewValidation("invalid request body"))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), gate.EffectiveUserID(c), c.Param("id"), patch)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project updated successfully", "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), gate.EffectiveUserID(c), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}

func (h *Handler) getStage(c *gin.Context) {
	s, err := h.svc.GetStage(c.Request.Context(), gate.EffectiveUserID(c), c.Param("id"), c.Param("stage_id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": s})
}

func (h *Handler) updateStage(c *gin.Context) {
	var patch domain.StagePatch
	if err := bindOptionalJSON(c, &patch); err != nil {
		apperr.Respond(c, apperr.NewValidation("invalid request body"))
		return
	}

	s, err := h.svc.UpdateStage(c.Request.Context(), gate.EffectiveUserID(c), c.Param("id"), c.Param("stage_id"), patch)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stage updated successfully", "stage": s})
}

// bindOptionalJSON treats an empty body as an empty patch.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
