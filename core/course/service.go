package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		QueryCoursesByMentor(ctx context.Context, mentorID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, actor policy.Actor, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (Course, error)
		Query(ctx context.Context, actor policy.Actor, filter QueryFilter) ([]Course, error)
		QueryByMentor(ctx context.Context, actor policy.Actor, mentorID string) ([]Course, error)
		Update(ctx context.Context, actor policy.Actor, id string, uc UpdateCourse) (Course, error)
		SetApproval(ctx context.Context, actor policy.Actor, id, status string) (Course, error)
		Delete(ctx context.Context, actor policy.Actor, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, actor policy.Actor, nc NewCourse) (Course, error) {
	if err := policy.Can(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindCourse}).Err(); err != nil {
		return Course{}, err
	}

	// a mentor creating a course owns it unless another owner was specified
	mentorID := nc.MentorID
	if mentorID == "" && actor.IsMentor() {
		mentorID = actor.ID
	}

	now := time.Now().UTC()
	crs := Course{
		ID:             uuid.New().String(),
		Title:          nc.Title,
		Description:    nc.Description,
		MentorID:       mentorID,
		BatchID:        nc.BatchID,
		ZoomID:         nc.ZoomID,
		TeamsID:        nc.TeamsID,
		ApprovalStatus: policy.CoursePending,
		VideoURLs:      []VideoURL{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, crs.Resource()).Err(); err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *service) Query(ctx context.Context, actor policy.Actor, filter QueryFilter) ([]Course, error) {
	var courses []Course
	var err error
	// explicit status filtering is an admin refinement; other roles get the
	// visibility rules only
	if !filter.IsEmpty() && actor.IsAdmin() {
		courses, err = svc.repo.FilterCourses(ctx, filter)
	} else {
		courses, err = svc.repo.QueryAllCourses(ctx)
	}
	if err != nil {
		return nil, err
	}

	visible := make([]Course, 0, len(courses))
	for _, crs := range courses {
		if policy.CanList(actor, crs.Resource()) {
			visible = append(visible, crs)
		}
	}
	return visible, nil
}

// QueryByMentor lists a mentor's courses, any status. Admins may target any
// mentor; a mentor only themselves.
func (svc *service) QueryByMentor(ctx context.Context, actor policy.Actor, mentorID string) ([]Course, error) {
	if !actor.IsAdmin() && !(actor.IsMentor() && actor.ID == mentorID) {
		return nil, errors.Wrapf(core.ErrPermissionDenied, "%s may not list mentor %s's courses", actor.Role, mentorID)
	}
	return svc.repo.QueryCoursesByMentor(ctx, mentorID)
}

func (svc *service) Update(ctx context.Context, actor policy.Actor, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, crs.Resource()).Err(); err != nil {
		return Course{}, err
	}

	crs = uc.apply(crs)
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// SetApproval moves a course between pending/approved/rejected. Any state is
// reachable from any state; repeating a transition is idempotent.
func (svc *service) SetApproval(ctx context.Context, actor policy.Actor, id, status string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = policy.Can(actor, policy.ActionApprove, crs.Resource()).Err(); err != nil {
		return Course{}, err
	}
	if err = policy.CanTransition(policy.KindCourse, crs.ApprovalStatus, status); err != nil {
		return Course{}, err
	}

	crs.ApprovalStatus = status
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionDelete, crs.Resource()).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteCoursesByID(ctx, id)
}
