package repository

import (
	"context"

	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
)

// Repository persists projects and their stages. Lookups are scoped by owner
// where an owner is passed; a miss returns domain.ErrNotFound.
type Repository interface {
	ListByOwner(ctx context.Context, userID string) ([]domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	GetOwned(ctx context.Context, id, userID string) (*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error

	CreateStage(ctx context.Context, s *domain.Stage) error
	ListStages(ctx context.Context, projectID string) ([]domain.Stage, error)
	GetStage(ctx context.Context, projectID, stageID string) (*domain.Stage, error)
	UpdateStage(ctx context.Context, s *domain.Stage) error
}

// Acquirer hands out a request scoped Repository. Callers must call release
// exactly once, on every path.
type Acquirer interface {
	Acquire(ctx context.Context) (repo Repository, release func(), err error)
}
