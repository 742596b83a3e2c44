package enroll

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core/policy"
)

type Enrollment struct {
	ID               string    `json:"id" db:"id"`
	StudentID        string    `json:"student_id" db:"student_id"`
	CourseID         string    `json:"course_id" db:"course_id"`
	CompletionStatus string    `json:"completion_status" db:"completion_status"`
	CertificateID    string    `json:"certificate_id,omitempty" db:"certificate_id"`
	EnrolledAt       time.Time `json:"enrolled_at" db:"enrolled_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`   // UTC
}

func (e Enrollment) IsCompleted() bool { return e.CompletionStatus == policy.EnrollmentCompleted }

// Resource resolves the enrollment's state for policy decisions.
// courseMentorID is the owning mentor of the enrollment's course.
func (e Enrollment) Resource(courseMentorID string) policy.Resource {
	return policy.Resource{
		Kind:      policy.KindEnrollment,
		ID:        e.ID,
		MentorID:  courseMentorID,
		StudentID: e.StudentID,
		Status:    e.CompletionStatus,
	}
}

type Certificate struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	CourseID   string    `json:"course_id" db:"course_id"`
	IssuedDate time.Time `json:"issued_date" db:"issued_date"` // UTC
}

func (c Certificate) Resource(courseMentorID string) policy.Resource {
	return policy.Resource{
		Kind:      policy.KindCertificate,
		ID:        c.ID,
		MentorID:  courseMentorID,
		StudentID: c.StudentID,
	}
}

// NewEnrollment contains information needed to enroll a student in a course.
// StudentID is only honored for admins; students always enroll themselves.
type NewEnrollment struct {
	CourseID  string `json:"course_id" validate:"required"`
	StudentID string `json:"student_id"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

type GenerateCertificate struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

func (gc GenerateCertificate) Validate(validate *validator.Validate) error {
	return validate.Struct(gc)
}
