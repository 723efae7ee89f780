package http

import (
	"context"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/gate"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/service"
)

// ProjectService is what the handlers need from service.ProjectService.
type ProjectService interface {
	List(ctx context.Context, userID string) ([]domain.Project, error)
	Create(ctx context.Context, userID string, in domain.CreateInput) (*domain.Project, error)
	Get(ctx context.Context, userID, projectID string) (*domain.Project, error)
	Update(ctx context.Context, userID, projectID string, patch domain.Patch) (*domain.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
	GetStage(ctx context.Context, userID, projectID, stageID string) (*domain.Stage, error)
	UpdateStage(ctx context.Context, userID, projectID, stageID string, patch domain.StagePatch) (*domain.Stage, error)
}

var _ ProjectService = (*service.ProjectService)(nil)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc  ProjectService
	gate *gate.Gate
}

func New(svc ProjectService, g *gate.Gate) *Handler {
	return &Handler{svc: svc, gate: g}
}
