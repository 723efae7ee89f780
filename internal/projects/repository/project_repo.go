package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
)

// Querier is satisfied by *sql.DB and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db Querier
}

func NewProjectRepository(db Querier) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id::text, user_id::text, project_title, project_description, tags, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &desc, pq.Array(&p.Tags), &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

// ListByOwner returns the user's projects, most recently updated first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE user_id = $1::uuid
ORDER BY updated_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	const q = `
INSERT INTO projects (id, user_id, project_title, project_description, tags)
VALUES ($1::uuid, $2::uuid, $3, $4, $5)
RETURNING created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q, p.ID, p.UserID, p.Title, p.Description, pq.Array(p.Tags)).
		Scan(&p.CreatedAt, &p.UpdatedAt)

	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return domain.ErrUnknownOwner
	}
	return err
}

// GetOwned looks a project up by id and owner in one query, so a project
// owned by someone else is indistinguishable from a missing one.
func (r *ProjectRepository) GetOwned(ctx context.Context, id, userID string) (*domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1::uuid AND user_id = $2::uuid;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Update writes the mutable fields and refreshes updated_at. Concurrent
// updates are last write wins.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	const q = `
UPDATE projects
SET project_title = $3, project_description = $4, tags = $5, updated_at = now()
WHERE id = $1::uuid AND user_id = $2::uuid
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q, p.ID, p.UserID, p.Title, p.Description, pq.Array(p.Tags)).
		Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// Delete removes the project's stages and then the project itself.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_stages WHERE project_id = $1::uuid`, id); err != nil {
		return fmt.Errorf("delete stages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

const stageColumns = `id::text, project_id::text, stage_name, user_inputs, ai_outputs, finalized, created_at, updated_at`

func scanStage(row rowScanner) (*domain.Stage, error) {
	var s domain.Stage
	var inputs, outputs []byte
	if err := row.Scan(&s.ID, &s.ProjectID, &s.StageName, &inputs, &outputs, &s.Finalized, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.UserInputs = document(inputs)
	s.AIOutputs = document(outputs)
	return &s, nil
}

func document(b []byte) json.RawMessage {
	if len(b) == 0 {
		return domain.EmptyDocument
	}
	return json.RawMessage(b)
}

func (r *ProjectRepository) CreateStage(ctx context.Context, s *domain.Stage) error {
	const q = `
INSERT INTO project_stages (id, project_id, stage_name, user_inputs, ai_outputs, finalized)
VALUES ($1::uuid, $2::uuid, $3, $4::jsonb, $5::jsonb, $6)
RETURNING created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q, s.ID, s.ProjectID, s.StageName,
		string(document(s.UserInputs)), string(document(s.AIOutputs)), s.Finalized).
		Scan(&s.CreatedAt, &s.UpdatedAt)

	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateStage
	}
	return err
}

// ListStages returns the project's stages ordered by stage name.
func (r *ProjectRepository) ListStages(ctx context.Context, projectID string) ([]domain.Stage, error) {
	q := `
SELECT ` + stageColumns + `
FROM project_stages
WHERE project_id = $1::uuid
ORDER BY stage_name ASC;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Stage, 0, 8)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectRepository) GetStage(ctx context.Context, projectID, stageID string) (*domain.Stage, error) {
	q := `
SELECT ` + stageColumns + `
FROM project_stages
WHERE id = $1::uuid AND project_id = $2::uuid;
`
	s, err := scanStage(r.db.QueryRowContext(ctx, q, stageID, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *ProjectRepository) UpdateStage(ctx context.Context, s *domain.Stage) error {
	const q = `
UPDATE project_stages
SET user_inputs = $3::jsonb, ai_outputs = $4::jsonb, finalized = $5, updated_at = now()
WHERE id = $1::uuid AND project_id = $2::uuid
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q, s.ID, s.ProjectID,
		string(document(s.UserInputs)), string(document(s.AIOutputs)), s.Finalized).
		Scan(&s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
