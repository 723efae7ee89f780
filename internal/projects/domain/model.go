package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project is a user owned project. Stages are only populated on single
// project reads and on create.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"project_title"`
	Description *string   `json:"project_description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Stages      []Stage   `json:"stages,omitempty"`
}

// Stage is one named phase of a project. At most one stage exists per
// (project, stage name).
type Stage struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	StageName  string          `json:"stage_name"`
	UserInputs json.RawMessage `json:"user_inputs"`
	AIOutputs  json.RawMessage `json:"ai_outputs"`
	Finalized  bool            `json:"finalized"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EmptyDocument is the payload a freshly bootstrapped stage starts with.
var EmptyDocument = json.RawMessage(`{}`)

// DefaultStageNames is used when no stage list is configured.
var DefaultStageNames = []string{
	"Ideation",
	"Planning",
	"Research",
	"Development",
	"Testing",
	"Deployment",
	"Maintenance",
	"Review",
}

// ResolveStageNames returns the configured stage names with blanks and
// duplicates removed, or the defaults when nothing usable is configured.
func ResolveStageNames(configured []string) []string {
	seen := make(map[string]struct{}, len(configured))
	out := make([]string, 0, len(configured))
	for _, name := range configured {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultStageNames...)
	}
	return out
}

// NewProject builds a project owned by userID from validated input.
func NewProject(userID string, in CreateInput, now time.Time) *Project {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewStage builds an empty, unfinalized stage for projectID.
func NewStage(projectID, name string, now time.Time) *Stage {
	return &Stage{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		StageName:  name,
		UserInputs: EmptyDocument,
		AIOutputs:  EmptyDocument,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
