package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

type Material struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	MentorID    string    `json:"mentor_id" db:"mentor_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	FileURL     string    `json:"file_url" db:"file_url"`
	IsVisible   bool      `json:"is_visible" db:"is_visible"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Resource resolves the material's state for policy decisions. A material is
// public to enrolled students only while flagged visible.
func (m Material) Resource(enrolled bool) policy.Resource {
	return policy.Resource{
		Kind:     policy.KindMaterial,
		ID:       m.ID,
		MentorID: m.MentorID,
		Public:   m.IsVisible,
		Enrolled: enrolled,
	}
}

// NewMaterial contains information needed to add course material.
type NewMaterial struct {
	CourseID    string `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
	IsVisible   *bool  `json:"is_visible"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

// UpdateMaterial is a patch: only present (non-nil) fields are applied.
type UpdateMaterial struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	FileURL     *string `json:"file_url"`
	IsVisible   *bool   `json:"is_visible"`
}

func (um UpdateMaterial) apply(m Material) Material {
	if um.Title != nil {
		m.Title = core.CleanString(*um.Title)
	}
	if um.Description != nil {
		m.Description = core.CleanString(*um.Description)
	}
	if um.FileURL != nil {
		m.FileURL = *um.FileURL
	}
	if um.IsVisible != nil {
		m.IsVisible = *um.IsVisible
	}
	return m
}
