package interview

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
)

type (
	Repository interface {
		CreateInterview(ctx context.Context, mi MockInterview) (MockInterview, error)
		GetInterviewByID(ctx context.Context, id string) (MockInterview, error)
		QueryAllInterviews(ctx context.Context) ([]MockInterview, error)
		QueryInterviewsByMentor(ctx context.Context, mentorID string) ([]MockInterview, error)
		QueryInterviewsByStudent(ctx context.Context, studentID string) ([]MockInterview, error)
		UpdateInterview(ctx context.Context, mi MockInterview) (MockInterview, error)
	}

	Service interface {
		Schedule(ctx context.Context, actor policy.Actor, ni NewMockInterview) (MockInterview, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (MockInterview, error)
		Query(ctx context.Context, actor policy.Actor) ([]MockInterview, error)
		QueryByMentor(ctx context.Context, actor policy.Actor, mentorID string) ([]MockInterview, error)
		QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]MockInterview, error)
		Update(ctx context.Context, actor policy.Actor, id string, ui UpdateMockInterview) (MockInterview, error)
		// SubmitFeedback records feedback and score and completes the
		// interview in one update.
		SubmitFeedback(ctx context.Context, actor policy.Actor, id string, f InterviewFeedback) (MockInterview, error)
		// Cancel is soft: the record is kept with status cancelled.
		Cancel(ctx context.Context, actor policy.Actor, id string) (MockInterview, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) *service {
	return &service{repo: repo, usrRepo: usrRepo}
}

func (svc *service) Schedule(ctx context.Context, actor policy.Actor, ni NewMockInterview) (MockInterview, error) {
	studentID := ni.StudentID
	if !actor.IsAdmin() || studentID == "" {
		studentID = actor.ID
	}
	res := policy.Resource{Kind: policy.KindMockInterview, StudentID: studentID, MentorID: ni.MentorID}
	if err := policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return MockInterview{}, err
	}

	// the assigned mentor must exist and actually be a mentor
	mentor, err := svc.usrRepo.GetUserByID(ctx, ni.MentorID)
	if err != nil {
		return MockInterview{}, errors.Wrap(err, "finding mentor")
	}
	if !mentor.IsMentor() {
		return MockInterview{}, core.NewValidationError(nil, core.FieldError{
			Field: "mentor_id", Error: "not a mentor",
		})
	}

	now := time.Now().UTC()
	mi := MockInterview{
		ID:            uuid.New().String(),
		StudentID:     studentID,
		MentorID:      ni.MentorID,
		ScheduledDate: ni.ScheduledDate,
		Status:        policy.InterviewScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateInterview(ctx, mi)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (MockInterview, error) {
	mi, err := svc.repo.GetInterviewByID(ctx, id)
	if err != nil {
		return MockInterview{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, mi.Resource()).Err(); err != nil {
		return MockInterview{}, err
	}
	return mi, nil
}

func (svc *service) visible(actor policy.Actor, interviews []MockInterview) []MockInterview {
	visible := make([]MockInterview, 0, len(interviews))
	for _, mi := range interviews {
		if policy.CanList(actor, mi.Resource()) {
			visible = append(visible, mi)
		}
	}
	return visible
}

func (svc *service) Query(ctx context.Context, actor policy.Actor) ([]MockInterview, error) {
	interviews, err := svc.repo.QueryAllInterviews(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visible(actor, interviews), nil
}

func (svc *service) QueryByMentor(ctx context.Context, actor policy.Actor, mentorID string) ([]MockInterview, error) {
	interviews, err := svc.repo.QueryInterviewsByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return svc.visible(actor, interviews), nil
}

func (svc *service) QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]MockInterview, error) {
	interviews, err := svc.repo.QueryInterviewsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return svc.visible(actor, interviews), nil
}

func (svc *service) Update(ctx context.Context, actor policy.Actor, id string, ui UpdateMockInterview) (MockInterview, error) {
	mi, err := svc.repo.GetInterviewByID(ctx, id)
	if err != nil {
		return MockInterview{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, mi.Resource()).Err(); err != nil {
		return MockInterview{}, err
	}
	if mi.Status != policy.InterviewScheduled {
		return MockInterview{}, errors.Wrapf(core.ErrInvalidTransition, "cannot reschedule a %s interview", mi.Status)
	}

	mi = ui.apply(mi)
	mi.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInterview(ctx, mi)
}

func (svc *service) SubmitFeedback(ctx context.Context, actor policy.Actor, id string, f InterviewFeedback) (MockInterview, error) {
	mi, err := svc.repo.GetInterviewByID(ctx, id)
	if err != nil {
		return MockInterview{}, err
	}
	if err = policy.Can(actor, policy.ActionFeedback, mi.Resource()).Err(); err != nil {
		return MockInterview{}, err
	}
	if err = policy.CanTransition(policy.KindMockInterview, mi.Status, policy.InterviewCompleted); err != nil {
		return MockInterview{}, err
	}

	score := f.Score
	mi.Feedback = f.Feedback
	mi.Score = &score
	mi.Status = policy.InterviewCompleted
	mi.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInterview(ctx, mi)
}

func (svc *service) Cancel(ctx context.Context, actor policy.Actor, id string) (MockInterview, error) {
	mi, err := svc.repo.GetInterviewByID(ctx, id)
	if err != nil {
		return MockInterview{}, err
	}
	if err = policy.Can(actor, policy.ActionDelete, mi.Resource()).Err(); err != nil {
		return MockInterview{}, err
	}
	if err = policy.CanTransition(policy.KindMockInterview, mi.Status, policy.InterviewCancelled); err != nil {
		return MockInterview{}, err
	}

	mi.Status = policy.InterviewCancelled
	mi.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInterview(ctx, mi)
}
