package fee

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
)

type (
	Repository interface {
		CreateReminder(ctx context.Context, rem Reminder) (Reminder, error)
		GetReminderByID(ctx context.Context, id string) (Reminder, error)
		QueryAllReminders(ctx context.Context) ([]Reminder, error)
		QueryRemindersByStudent(ctx context.Context, studentID string) ([]Reminder, error)
		UpdateReminder(ctx context.Context, rem Reminder) (Reminder, error)
		DeleteRemindersByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, actor policy.Actor, nr NewReminder) (Reminder, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (Reminder, error)
		Query(ctx context.Context, actor policy.Actor) ([]Reminder, error)
		QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Reminder, error)
		// MarkPaid is a one-way marker; paid is terminal.
		MarkPaid(ctx context.Context, actor policy.Actor, id string) (Reminder, error)
		// MarkOverdue is driven by an external scheduler through the same
		// policy gate.
		MarkOverdue(ctx context.Context, actor policy.Actor, id string) (Reminder, error)
		Send(ctx context.Context, actor policy.Actor, id string) error
		Delete(ctx context.Context, actor policy.Actor, id string) error
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService) *service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
	}
}

func (svc *service) Create(ctx context.Context, actor policy.Actor, nr NewReminder) (Reminder, error) {
	res := policy.Resource{Kind: policy.KindFeeReminder, StudentID: nr.StudentID}
	if err := policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Reminder{}, err
	}
	// the student must exist
	if _, err := svc.usrRepo.GetUserByID(ctx, nr.StudentID); err != nil {
		return Reminder{}, errors.Wrap(err, "finding student")
	}

	now := time.Now().UTC()
	rem := Reminder{
		ID:          uuid.New().String(),
		StudentID:   nr.StudentID,
		Description: nr.Description,
		Amount:      nr.Amount,
		DueDate:     nr.DueDate,
		Status:      policy.FeePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateReminder(ctx, rem)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (Reminder, error) {
	rem, err := svc.repo.GetReminderByID(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, rem.Resource()).Err(); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}

func (svc *service) visible(actor policy.Actor, reminders []Reminder) []Reminder {
	visible := make([]Reminder, 0, len(reminders))
	for _, rem := range reminders {
		if policy.CanList(actor, rem.Resource()) {
			visible = append(visible, rem)
		}
	}
	return visible
}

func (svc *service) Query(ctx context.Context, actor policy.Actor) ([]Reminder, error) {
	reminders, err := svc.repo.QueryAllReminders(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visible(actor, reminders), nil
}

func (svc *service) QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Reminder, error) {
	reminders, err := svc.repo.QueryRemindersByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return svc.visible(actor, reminders), nil
}

func (svc *service) setStatus(ctx context.Context, actor policy.Actor, id, status string) (Reminder, error) {
	rem, err := svc.repo.GetReminderByID(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, rem.Resource()).Err(); err != nil {
		return Reminder{}, err
	}
	if err = policy.CanTransition(policy.KindFeeReminder, rem.Status, status); err != nil {
		return Reminder{}, err
	}

	rem.Status = status
	rem.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateReminder(ctx, rem)
}

func (svc *service) MarkPaid(ctx context.Context, actor policy.Actor, id string) (Reminder, error) {
	return svc.setStatus(ctx, actor, id, policy.FeePaid)
}

func (svc *service) MarkOverdue(ctx context.Context, actor policy.Actor, id string) (Reminder, error) {
	return svc.setStatus(ctx, actor, id, policy.FeeOverdue)
}

// Send emails the reminder to its student.
func (svc *service) Send(ctx context.Context, actor policy.Actor, id string) error {
	rem, err := svc.repo.GetReminderByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionUpdate, rem.Resource()).Err(); err != nil {
		return err
	}
	student, err := svc.usrRepo.GetUserByID(ctx, rem.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding reminder student")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.FullName, Address: student.Email}},
		Subject: "Fee reminder",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nA fee payment of %.2f is due on %s. Status: %s.",
			student.FullName, rem.Amount, rem.DueDate.Format("2 Jan 2006"), rem.Status,
		),
	})
	return nil
}

func (svc *service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	rem, err := svc.repo.GetReminderByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionDelete, rem.Resource()).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteRemindersByID(ctx, id)
}
