package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

// Store is the Postgres backed Acquirer. Each acquisition pins one
// connection from the pool until released.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Acquire(ctx context.Context) (Repository, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("release project store connection", slog.Any("error", err))
		}
	}
	return NewProjectRepository(conn), release, nil
}
