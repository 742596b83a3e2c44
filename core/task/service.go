package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/policy"
)

var ErrAlreadySubmitted = errors.Wrap(core.ErrConflict, "a submission already exists for this task")

type (
	Repository interface {
		CreateTask(ctx context.Context, tsk Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		QueryTasksByCourse(ctx context.Context, courseID string) ([]Task, error)
		QueryAllTasks(ctx context.Context) ([]Task, error)
		UpdateTask(ctx context.Context, tsk Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error

		// CreateSubmission inserts atomically; a duplicate
		// (task_id, student_id) pair yields ErrAlreadySubmitted.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissionsByTask(ctx context.Context, taskID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service interface {
		Create(ctx context.Context, actor policy.Actor, nt NewTask) (Task, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (Task, error)
		Query(ctx context.Context, actor policy.Actor) ([]Task, error)
		QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Task, error)
		Update(ctx context.Context, actor policy.Actor, id string, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, actor policy.Actor, id string) error

		Submit(ctx context.Context, actor policy.Actor, ns NewSubmission) (Submission, error)
		QuerySubmissions(ctx context.Context, actor policy.Actor, taskID string) ([]Submission, error)
		Grade(ctx context.Context, actor policy.Actor, submissionID string, g Grading) (Submission, error)
	}

	service struct {
		repo       Repository
		courseRepo course.Repository
		enrollRepo enroll.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseRepo course.Repository, enrollRepo enroll.Repository) *service {
	return &service{
		repo:       repo,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
	}
}

// isEnrolled resolves whether the actor is a student enrolled in the course.
func (svc *service) isEnrolled(ctx context.Context, actor policy.Actor, courseID string) (bool, error) {
	if !actor.IsStudent() {
		return false, nil
	}
	enrolled, err := svc.enrollRepo.IsEnrolled(ctx, actor.ID, courseID)
	return enrolled, errors.Wrap(err, "resolving enrollment")
}

func (svc *service) Create(ctx context.Context, actor policy.Actor, nt NewTask) (Task, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, nt.CourseID)
	if err != nil {
		return Task{}, err
	}
	// a mentor may only create tasks in their own course
	res := policy.Resource{Kind: policy.KindTask, MentorID: crs.MentorID}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	tsk := Task{
		ID:          uuid.New().String(),
		CourseID:    nt.CourseID,
		MentorID:    crs.MentorID,
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(ctx, tsk)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (Task, error) {
	tsk, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	enrolled, err := svc.isEnrolled(ctx, actor, tsk.CourseID)
	if err != nil {
		return Task{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, tsk.Resource(enrolled)).Err(); err != nil {
		return Task{}, err
	}
	return tsk, nil
}

func (svc *service) visible(ctx context.Context, actor policy.Actor, tasks []Task) ([]Task, error) {
	visible := make([]Task, 0, len(tasks))
	enrolled := make(map[string]bool) // courseID -> enrolled, per-request only
	for _, tsk := range tasks {
		isEnr, ok := enrolled[tsk.CourseID]
		if !ok {
			var err error
			if isEnr, err = svc.isEnrolled(ctx, actor, tsk.CourseID); err != nil {
				return nil, err
			}
			enrolled[tsk.CourseID] = isEnr
		}
		if policy.CanList(actor, tsk.Resource(isEnr)) {
			visible = append(visible, tsk)
		}
	}
	return visible, nil
}

func (svc *service) Query(ctx context.Context, actor policy.Actor) ([]Task, error) {
	tasks, err := svc.repo.QueryAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, tasks)
}

func (svc *service) QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Task, error) {
	tasks, err := svc.repo.QueryTasksByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, tasks)
}

func (svc *service) Update(ctx context.Context, actor policy.Actor, id string, ut UpdateTask) (Task, error) {
	tsk, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, tsk.Resource(false)).Err(); err != nil {
		return Task{}, err
	}

	tsk = ut.apply(tsk)
	tsk.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, tsk)
}

func (svc *service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	tsk, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionDelete, tsk.Resource(false)).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteTasksByID(ctx, id)
}

// Submit records a student's work for a task, once per (task, student).
func (svc *service) Submit(ctx context.Context, actor policy.Actor, ns NewSubmission) (Submission, error) {
	tsk, err := svc.repo.GetTaskByID(ctx, ns.TaskID)
	if err != nil {
		return Submission{}, err
	}
	enrolled, err := svc.isEnrolled(ctx, actor, tsk.CourseID)
	if err != nil {
		return Submission{}, err
	}
	res := policy.Resource{Kind: policy.KindSubmission, MentorID: tsk.MentorID, StudentID: actor.ID, Enrolled: enrolled}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Submission{}, err
	}

	now := time.Now().UTC()
	sub := Submission{
		ID:          uuid.New().String(),
		TaskID:      ns.TaskID,
		StudentID:   actor.ID,
		Content:     ns.Content,
		FileURL:     ns.FileURL,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *service) QuerySubmissions(ctx context.Context, actor policy.Actor, taskID string) ([]Submission, error) {
	tsk, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissionsByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	visible := make([]Submission, 0, len(subs))
	for _, sub := range subs {
		if policy.CanList(actor, sub.Resource(tsk.MentorID, false)) {
			visible = append(visible, sub)
		}
	}
	return visible, nil
}

// Grade sets grade and feedback; re-grading overwrites idempotently.
func (svc *service) Grade(ctx context.Context, actor policy.Actor, submissionID string, g Grading) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	tsk, err := svc.repo.GetTaskByID(ctx, sub.TaskID)
	if err != nil {
		return Submission{}, err
	}
	if err = policy.Can(actor, policy.ActionGrade, sub.Resource(tsk.MentorID, false)).Err(); err != nil {
		return Submission{}, err
	}

	grade := g.Grade
	sub.Grade = &grade
	sub.Feedback = g.Feedback
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, sub)
}
