package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
)

var projectCols = []string{"id", "user_id", "project_title", "project_description", "tags", "created_at", "updated_at"}
var stageCols = []string{"id", "project_id", "stage_name", "user_inputs", "ai_outputs", "finalized", "created_at", "updated_at"}

func setupProjectRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProjectRepository(db), mock
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM projects\s+WHERE user_id = \$1::uuid\s+ORDER BY updated_at DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p2", "u1", "Second", nil, "{}", now, now).
			AddRow("p1", "u1", "First", "about", "{x,y}", now.Add(-time.Hour), now.Add(-time.Hour)))

	got, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Nil(t, got[0].Description)
	assert.Equal(t, []string{}, got[0].Tags)
	require.NotNil(t, got[1].Description)
	assert.Equal(t, "about", *got[1].Description)
	assert.Equal(t, []string{"x", "y"}, got[1].Tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Create(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	now := time.Now()
	p := domain.NewProject("u1", domain.CreateInput{Title: "Demo", Tags: []string{"x", "y"}}, time.Time{})

	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs(p.ID, "u1", "Demo", nil, pq.Array([]string{"x", "y"})).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Create_UnknownOwner(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	p := domain.NewProject("7d4e1f0a-3c57-4b8e-9a51-2f0c6d8e9b10", domain.CreateInput{Title: "Orphan"}, time.Time{})

	mock.ExpectQuery(`INSERT INTO projects`).
		WillReturnError(&pq.Error{Code: "23503"})

	assert.ErrorIs(t, repo.Create(context.Background(), p), domain.ErrUnknownOwner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetOwned(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM projects\s+WHERE id = \$1::uuid AND user_id = \$2::uuid`).
			WithArgs("p1", "u1").
			WillReturnRows(sqlmock.NewRows(projectCols).AddRow("p1", "u1", "Demo", nil, "{x}", now, now))

		p, err := repo.GetOwned(context.Background(), "p1", "u1")
		require.NoError(t, err)
		assert.Equal(t, "Demo", p.Title)
		assert.Equal(t, []string{"x"}, p.Tags)
	})

	t.Run("other owner reads as not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM projects`).
			WithArgs("p1", "u2").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetOwned(context.Background(), "p1", "u2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Update(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	now := time.Now()
	desc := "d"
	p := &domain.Project{ID: "p1", UserID: "u1", Title: "New", Description: &desc, Tags: []string{}}

	mock.ExpectQuery(`UPDATE projects\s+SET project_title = \$3, project_description = \$4, tags = \$5, updated_at = now\(\)`).
		WithArgs("p1", "u1", "New", "d", pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	require.NoError(t, repo.Update(context.Background(), p))
	assert.Equal(t, now, p.UpdatedAt)

	mock.ExpectQuery(`UPDATE projects`).WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(context.Background(), p), domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Delete(t *testing.T) {
	t.Run("stages then project", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM project_stages WHERE project_id = \$1::uuid`).
			WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 8))
		mock.ExpectExec(`DELETE FROM projects WHERE id = \$1::uuid`).
			WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), "p1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing project rolls back", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM project_stages`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM projects`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Delete(context.Background(), "p1"), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stage delete failure rolls back", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM project_stages`).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		assert.Error(t, repo.Delete(context.Background(), "p1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepository_Stages(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("create", func(t *testing.T) {
		s := domain.NewStage("p1", "Ideation", time.Time{})
		mock.ExpectQuery(`INSERT INTO project_stages`).
			WithArgs(s.ID, "p1", "Ideation", "{}", "{}", false).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		require.NoError(t, repo.CreateStage(ctx, s))
	})

	t.Run("duplicate", func(t *testing.T) {
		s := domain.NewStage("p1", "Ideation", time.Time{})
		mock.ExpectQuery(`INSERT INTO project_stages`).
			WillReturnError(&pq.Error{Code: "23505"})
		assert.ErrorIs(t, repo.CreateStage(ctx, s), domain.ErrDuplicateStage)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		mock.ExpectQuery(`FROM project_stages\s+WHERE project_id = \$1::uuid\s+ORDER BY stage_name ASC`).
			WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(stageCols).
				AddRow("s1", "p1", "Deployment", []byte(`{}`), []byte(`{"plan":1}`), false, now, now).
				AddRow("s2", "p1", "Ideation", []byte(`{"idea":"x"}`), nil, true, now, now))

		stages, err := repo.ListStages(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, stages, 2)
		assert.JSONEq(t, `{"plan":1}`, string(stages[0].AIOutputs))
		assert.JSONEq(t, `{}`, string(stages[1].AIOutputs))
		assert.True(t, stages[1].Finalized)
	})

	t.Run("get missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM project_stages`).WithArgs("s9", "p1").WillReturnError(sql.ErrNoRows)
		_, err := repo.GetStage(ctx, "p1", "s9")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s := &domain.Stage{ID: "s1", ProjectID: "p1", UserInputs: []byte(`{"a":1}`), Finalized: true}
		mock.ExpectQuery(`UPDATE project_stages`).
			WithArgs("s1", "p1", `{"a":1}`, "{}", true).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		require.NoError(t, repo.UpdateStage(ctx, s))
		assert.Equal(t, now, s.UpdatedAt)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AcquireRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, logging.Discard())
	repo, release, err := store.Acquire(context.Background())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM projects`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(projectCols))
	got, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	release()
	assert.Equal(t, 0, db.Stats().InUse)
	require.NoError(t, mock.ExpectationsWereMet())
}
