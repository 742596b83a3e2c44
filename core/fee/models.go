package fee

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

// Reminder is an admin-owned billing notice; students have read-only access
// to their own.
type Reminder struct {
	ID          string    `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	Description string    `json:"description" db:"description"`
	Amount      float64   `json:"amount" db:"amount"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (r Reminder) Resource() policy.Resource {
	return policy.Resource{
		Kind:      policy.KindFeeReminder,
		ID:        r.ID,
		StudentID: r.StudentID,
		Status:    r.Status,
	}
}

// NewReminder contains information needed to create a fee reminder.
type NewReminder struct {
	StudentID   string    `json:"student_id" validate:"required"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (nr *NewReminder) Validate(validate *validator.Validate) error {
	nr.Description = core.CleanString(nr.Description)
	return validate.Struct(nr)
}
