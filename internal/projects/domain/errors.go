package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateStage = errors.New("stage already exists for project")
	ErrUnknownOwner   = errors.New("owner does not exist")
)
