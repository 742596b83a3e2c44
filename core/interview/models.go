package interview

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

// MockInterview is a scheduled practice session between a student and an
// assigned mentor. Cancelling is soft: the record is retained.
type MockInterview struct {
	ID            string    `json:"id" db:"id"`
	StudentID     string    `json:"student_id" db:"student_id"`
	MentorID      string    `json:"mentor_id" db:"mentor_id"`
	ScheduledDate time.Time `json:"scheduled_date" db:"scheduled_date"`
	Status        string    `json:"status" db:"status"`
	Feedback      string    `json:"feedback" db:"feedback"`
	Score         *float64  `json:"score" db:"score"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (mi MockInterview) Resource() policy.Resource {
	return policy.Resource{
		Kind:      policy.KindMockInterview,
		ID:        mi.ID,
		MentorID:  mi.MentorID,
		StudentID: mi.StudentID,
		Status:    mi.Status,
	}
}

// NewMockInterview contains information needed to schedule an interview.
// StudentID is only honored for admins; students schedule for themselves.
type NewMockInterview struct {
	StudentID     string    `json:"student_id"`
	MentorID      string    `json:"mentor_id" validate:"required"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

func (ni NewMockInterview) Validate(validate *validator.Validate) error {
	return validate.Struct(ni)
}

// UpdateMockInterview is a patch: only present (non-nil) fields are applied.
// Only scheduled interviews may be rescheduled.
type UpdateMockInterview struct {
	MentorID      *string    `json:"mentor_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (ui UpdateMockInterview) apply(mi MockInterview) MockInterview {
	if ui.MentorID != nil {
		mi.MentorID = *ui.MentorID
	}
	if ui.ScheduledDate != nil {
		mi.ScheduledDate = *ui.ScheduledDate
	}
	return mi
}

// InterviewFeedback completes an interview: feedback and score are recorded
// and the status moves to completed atomically.
type InterviewFeedback struct {
	Feedback string  `json:"feedback" validate:"required"`
	Score    float64 `json:"score" validate:"min=0,max=100"`
}

func (f *InterviewFeedback) Validate(validate *validator.Validate) error {
	f.Feedback = core.CleanString(f.Feedback)
	return validate.Struct(f)
}
