package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

type VideoURL struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Course struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	MentorID       string     `json:"mentor_id" db:"mentor_id"`
	BatchID        string     `json:"batch_id" db:"batch_id"`
	ZoomID         string     `json:"zoom_id" db:"zoom_id"`
	TeamsID        string     `json:"teams_id" db:"teams_id"`
	ApprovalStatus string     `json:"approval_status" db:"approval_status"`
	VideoURLs      []VideoURL `json:"video_urls" db:"-"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"` // UTC
}

func (c Course) IsApproved() bool { return c.ApprovalStatus == policy.CourseApproved }

// Resource resolves the course's state for policy decisions.
func (c Course) Resource() policy.Resource {
	return policy.Resource{
		Kind:     policy.KindCourse,
		ID:       c.ID,
		MentorID: c.MentorID,
		Status:   c.ApprovalStatus,
		Public:   c.IsApproved(),
	}
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	MentorID    string `json:"mentor_id"`
	BatchID     string `json:"batch_id"`
	ZoomID      string `json:"zoom_id"`
	TeamsID     string `json:"teams_id"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse is a patch: only present (non-nil) fields are applied, so a
// caller can genuinely clear a field to "".
type UpdateCourse struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	MentorID    *string     `json:"mentor_id"`
	BatchID     *string     `json:"batch_id"`
	ZoomID      *string     `json:"zoom_id"`
	TeamsID     *string     `json:"teams_id"`
	VideoURLs   *[]VideoURL `json:"video_urls"`
}

func (uc UpdateCourse) apply(c Course) Course {
	if uc.Title != nil {
		c.Title = core.CleanString(*uc.Title)
	}
	if uc.Description != nil {
		c.Description = core.CleanString(*uc.Description)
	}
	if uc.MentorID != nil {
		c.MentorID = *uc.MentorID
	}
	if uc.BatchID != nil {
		c.BatchID = *uc.BatchID
	}
	if uc.ZoomID != nil {
		c.ZoomID = *uc.ZoomID
	}
	if uc.TeamsID != nil {
		c.TeamsID = *uc.TeamsID
	}
	if uc.VideoURLs != nil {
		c.VideoURLs = *uc.VideoURLs
	}
	return c
}

type QueryFilter struct {
	ApprovalStatus string `query:"approval_status"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.ApprovalStatus == "" }
