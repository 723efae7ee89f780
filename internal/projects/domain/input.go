package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// CreateInput is the body of a create request. UserID lets an admin create a
// project on behalf of another user.
type CreateInput struct {
	Title       string   `json:"project_title"`
	Description *string  `json:"project_description"`
	Tags        []string `json:"tags"`
	UserID      string   `json:"user_id"`
}

func (in CreateInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("project_title is required"),
			validation.RuneLength(0, 255).Error("project_title must be at most 255 characters"),
		),
		validation.Field(&in.Tags, validation.By(nonBlankTags)),
	)
}

// Patch is a partial project update. Absent fields are left unchanged; a null
// description clears it; null tags reset them to an empty list.
type Patch struct {
	Title       Optional[string]   `json:"project_title"`
	Description Optional[string]   `json:"project_description"`
	Tags        Optional[[]string] `json:"tags"`
}

func (p Patch) Validate() error {
	if p.Title.Set && (p.Title.Null || strings.TrimSpace(p.Title.Value) == "") {
		return validation.Errors{"project_title": errors.New("project_title cannot be empty")}
	}
	return validation.Errors{
		"project_title": validation.Validate(strings.TrimSpace(p.Title.Value),
			validation.RuneLength(0, 255).Error("project_title must be at most 255 characters")),
		"tags": validation.Validate(p.Tags.Value, validation.By(nonBlankTags)),
	}.Filter()
}

// Apply copies the present fields onto p.
func (p Patch) Apply(project *Project) {
	if p.Title.Set {
		project.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		if p.Description.Null {
			project.Description = nil
		} else {
			d := p.Description.Value
			project.Description = &d
		}
	}
	if p.Tags.Set {
		if p.Tags.Null || p.Tags.Value == nil {
			project.Tags = []string{}
		} else {
			project.Tags = p.Tags.Value
		}
	}
}

// StagePatch updates a stage's payloads and finalized flag.
type StagePatch struct {
	UserInputs json.RawMessage `json:"user_inputs"`
	AIOutputs  json.RawMessage `json:"ai_outputs"`
	Finalized  *bool           `json:"finalized"`
}

func (p StagePatch) Validate() error {
	return validation.Errors{
		"user_inputs": validation.Validate(p.UserInputs, validation.By(jsonObject("user_inputs"))),
		"ai_outputs":  validation.Validate(p.AIOutputs, validation.By(jsonObject("ai_outputs"))),
	}.Filter()
}

func (p StagePatch) Apply(s *Stage) {
	if len(p.UserInputs) > 0 {
		s.UserInputs = p.UserInputs
	}
	if len(p.AIOutputs) > 0 {
		s.AIOutputs = p.AIOutputs
	}
	if p.Finalized != nil {
		s.Finalized = *p.Finalized
	}
}

func jsonObject(field string) validation.RuleFunc {
	return func(value interface{}) error {
		raw, _ := value.(json.RawMessage)
		if len(raw) == 0 {
			return nil
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
			return errors.New(field + " must be an object")
		}
		return nil
	}
}

func nonBlankTags(value interface{}) error {
	tags, _ := value.([]string)
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return errors.New("tags must not contain empty values")
		}
	}
	return nil
}
