package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

type Task struct {
	ID          string     `json:"id" db:"id"`
	CourseID    string     `json:"course_id" db:"course_id"`
	MentorID    string     `json:"mentor_id" db:"mentor_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"` // UTC
}

// Resource resolves the task's state for policy decisions. enrolled is the
// resolved fact that the acting student is enrolled in the task's course.
func (t Task) Resource(enrolled bool) policy.Resource {
	return policy.Resource{
		Kind:     policy.KindTask,
		ID:       t.ID,
		MentorID: t.MentorID,
		Enrolled: enrolled,
	}
}

type Submission struct {
	ID          string     `json:"id" db:"id"`
	TaskID      string     `json:"task_id" db:"task_id"`
	StudentID   string     `json:"student_id" db:"student_id"`
	Content     string     `json:"content" db:"content"`
	FileURL     string     `json:"file_url" db:"file_url"`
	Grade       *float64   `json:"grade" db:"grade"`
	Feedback    string     `json:"feedback" db:"feedback"`
	SubmittedAt time.Time  `json:"submitted_at" db:"submitted_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`     // UTC
}

// Resource resolves the submission's state for policy decisions.
// taskMentorID is the owning mentor of the submission's task.
func (s Submission) Resource(taskMentorID string, enrolled bool) policy.Resource {
	return policy.Resource{
		Kind:      policy.KindSubmission,
		ID:        s.ID,
		MentorID:  taskMentorID,
		StudentID: s.StudentID,
		Enrolled:  enrolled,
	}
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	CourseID    string     `json:"course_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// UpdateTask is a patch: only present (non-nil) fields are applied.
type UpdateTask struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func (ut UpdateTask) apply(t Task) Task {
	if ut.Title != nil {
		t.Title = core.CleanString(*ut.Title)
	}
	if ut.Description != nil {
		t.Description = core.CleanString(*ut.Description)
	}
	if ut.DueDate != nil {
		t.DueDate = ut.DueDate
	}
	return t
}

// NewSubmission contains information needed to submit work for a task.
type NewSubmission struct {
	TaskID  string `json:"task_id" validate:"required"`
	Content string `json:"content"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

// Grading sets grade and feedback on a submission; re-grading is an
// idempotent overwrite.
type Grading struct {
	Grade    float64 `json:"grade" validate:"min=0,max=100"`
	Feedback string  `json:"feedback"`
}

func (g *Grading) Validate(validate *validator.Validate) error {
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}
