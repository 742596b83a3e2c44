package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core/policy"
)

// DateLayout is the wire format of an attendance day.
const DateLayout = "2006-01-02"

type Attendance struct {
	ID        string     `json:"id" db:"id"`
	StudentID string     `json:"student_id" db:"student_id"`
	CourseID  string     `json:"course_id" db:"course_id"`
	Date      string     `json:"date" db:"date"` // DateLayout
	CheckIn   *time.Time `json:"check_in" db:"check_in"`
	CheckOut  *time.Time `json:"check_out" db:"check_out"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"` // UTC
}

// Resource resolves the attendance record's state for policy decisions.
// courseMentorID is the owning mentor of the record's course.
func (a Attendance) Resource(courseMentorID string, enrolled bool) policy.Resource {
	return policy.Resource{
		Kind:      policy.KindAttendance,
		ID:        a.ID,
		MentorID:  courseMentorID,
		StudentID: a.StudentID,
		Enrolled:  enrolled,
	}
}

// CheckInRequest marks presence for a (student, course, date); repeating a
// check-in for the same day upserts the existing record.
type CheckInRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	StudentID string `json:"student_id"` // admins/mentors only; students check themselves in
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (ci CheckInRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ci)
}

type CheckOutRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	StudentID string `json:"student_id"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (co CheckOutRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(co)
}

// CourseReport aggregates attendance per student for one course.
type CourseReport struct {
	CourseID string         `json:"course_id"`
	Days     map[string]int `json:"days"` // studentID -> attended day count
}
