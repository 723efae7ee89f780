package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/repository"
	"github.com/GoSim-25-26J-441/project-auth/internal/validate"
)

const msgProjectNotFound = "project not found"

// ProjectService handles project-related business logic. Every operation is
// scoped to the effective user id it is given and acquires its own
// repository for the duration of the call.
type ProjectService struct {
	store      repository.Acquirer
	stageNames []string
	logger     *slog.Logger
	now        func() time.Time
}

func NewProjectService(store repository.Acquirer, stageNames []string, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		store:      store,
		stageNames: domain.ResolveStageNames(stageNames),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// StageNames returns the names bootstrapped on every new project.
func (s *ProjectService) StageNames() []string {
	return append([]string(nil), s.stageNames...)
}

func (s *ProjectService) acquire(ctx context.Context) (repository.Repository, func(), error) {
	repo, release, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, nil, apperr.Internal("acquire project store", err)
	}
	return repo, release, nil
}

// List returns the user's projects, most recently updated first, without stages.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	projects, err := repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list projects", err)
	}
	return projects, nil
}

// Create inserts the project and then one stage per configured name. A stage
// that fails to insert is logged and skipped; the project is still reported
// as created.
func (s *ProjectService) Create(ctx context.Context, userID string, in domain.CreateInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.NewValidation(validate.FirstMessage(err, "project_title", "tags"))
	}

	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	p := domain.NewProject(userID, in, now)
	if err := repo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrUnknownOwner) {
			return nil, apperr.NewValidation("user not found")
		}
		return nil, apperr.Internal("create project", err)
	}

	p.Stages = make([]domain.Stage, 0, len(s.stageNames))
	for _, name := range s.stageNames {
		stage := domain.NewStage(p.ID, name, now)
		if err := repo.CreateStage(ctx, stage); err != nil {
			s.logger.WarnContext(ctx, "stage bootstrap failed",
				slog.String("project_id", p.ID),
				slog.String("stage_name", name),
				slog.Any("error", err),
			)
			continue
		}
		p.Stages = append(p.Stages, *stage)
	}

	s.logger.InfoContext(ctx, "project created",
		slog.String("project_id", p.ID),
		slog.String("user_id", userID),
		slog.Int("stages", len(p.Stages)),
	)
	return p, nil
}

// Get returns an owned project with its stages ordered by stage name.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.owned(ctx, repo, userID, projectID)
	if err != nil {
		return nil, err
	}

	stages, err := repo.ListStages(ctx, p.ID)
	if err != nil {
		return nil, apperr.Internal("list stages", err)
	}
	p.Stages = stages
	return p, nil
}

// Update applies a partial patch. updated_at is refreshed even when the patch
// is empty.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, patch domain.Patch) (*domain.Project, error) {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.owned(ctx, repo, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, apperr.NewValidation(validate.FirstMessage(err, "project_title", "project_description", "tags"))
	}

	patch.Apply(p)
	p.UpdatedAt = s.now()
	if err := repo.Update(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NewNotFound(msgProjectNotFound)
		}
		return nil, apperr.Internal("update project", err)
	}
	return p, nil
}

// Delete removes an owned project together with its stages.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	p, err := s.owned(ctx, repo, userID, projectID)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.NewNotFound(msgProjectNotFound)
		}
		return apperr.Internal("delete project", err)
	}

	s.logger.InfoContext(ctx, "project deleted",
		slog.String("project_id", p.ID),
		slog.String("user_id", userID),
	)
	return nil
}

// GetStage returns one stage of an owned project.
func (s *ProjectService) GetStage(ctx context.Context, userID, projectID, stageID string) (*domain.Stage, error) {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.ownedStage(ctx, repo, userID, projectID, stageID)
}

// UpdateStage patches a stage's payloads and finalized flag. Stages are never
// created here.
func (s *ProjectService) UpdateStage(ctx context.Context, userID, projectID, stageID string, patch domain.StagePatch) (*domain.Stage, error) {
	repo, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stage, err := s.ownedStage(ctx, repo, userID, projectID, stageID)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, apperr.NewValidation(validate.FirstMessage(err, "user_inputs", "ai_outputs"))
	}

	patch.Apply(stage)
	stage.UpdatedAt = s.now()
	if err := repo.UpdateStage(ctx, stage); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NewNotFound("stage not found")
		}
		return nil, apperr.Internal("update stage", err)
	}
	return stage, nil
}

// owned is the single existence and ownership lookup every item operation
// starts with. Ids that cannot exist are treated as missing.
func (s *ProjectService) owned(ctx context.Context, repo repository.Repository, userID, projectID string) (*domain.Project, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, apperr.NewNotFound(msgProjectNotFound)
	}
	p, err := repo.GetOwned(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NewNotFound(msgProjectNotFound)
		}
		return nil, apperr.Internal("lookup project", err)
	}
	return p, nil
}

func (s *ProjectService) ownedStage(ctx context.Context, repo repository.Repository, userID, projectID, stageID string) (*domain.Stage, error) {
	p, err := s.owned(ctx, repo, userID, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(stageID); err != nil {
		return nil, apperr.NewNotFound("stage not found")
	}
	stage, err := repo.GetStage(ctx, p.ID, stageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NewNotFound("stage not found")
		}
		return nil, apperr.Internal("lookup stage", err)
	}
	return stage, nil
}
