package attendance

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

var ErrNotCheckedIn = errors.Wrap(core.ErrConflict, "no check-in recorded for this day")

type (
	Repository interface {
		// UpsertAttendance inserts or updates the record keyed by
		// (student_id, course_id, date) atomically.
		UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error)
		GetAttendance(ctx context.Context, studentID, courseID, date string) (Attendance, error)
		QueryAttendanceByCourse(ctx context.Context, courseID string) ([]Attendance, error)
		QueryAttendanceByStudent(ctx context.Context, studentID string) ([]Attendance, error)
		DeleteAttendanceByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckIn(ctx context.Context, actor policy.Actor, ci CheckInRequest) (Attendance, error)
		CheckOut(ctx context.Context, actor policy.Actor, co CheckOutRequest) (Attendance, error)
		QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Attendance, error)
		QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Attendance, error)
		CourseReport(ctx context.Context, actor policy.Actor, courseID string) (CourseReport, error)
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

func (svc *service) resolve(ctx context.Context, actor policy.Actor, studentID, courseID string) (policy.Resource, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return policy.Resource{}, err
	}
	var enrolled bool
	if actor.IsStudent() {
		if enrolled, err = svc.enrollRepo.IsEnrolled(ctx, actor.ID, courseID); err != nil {
			return policy.Resource{}, errors.Wrap(err, "resolving enrollment")
		}
	}
	return policy.Resource{
		Kind:      policy.KindAttendance,
		MentorID:  crs.MentorID,
		StudentID: studentID,
		Enrolled:  enrolled,
	}, nil
}

// CheckIn marks presence; repeated same-day check-ins keep the first
// check-in timestamp.
func (svc *service) CheckIn(ctx context.Context, actor policy.Actor, ci CheckInRequest) (Attendance, error) {
	studentID := ci.StudentID
	if actor.IsStudent() || studentID == "" {
		studentID = actor.ID
	}
	res, err := svc.resolve(ctx, actor, studentID, ci.CourseID)
	if err != nil {
		return Attendance{}, err
	}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Attendance{}, err
	}

	now := time.Now().UTC()
	att := Attendance{
		ID:        uuid.New().String(),
		StudentID: studentID,
		CourseID:  ci.CourseID,
		Date:      ci.Date,
		CheckIn:   &now,
		CreatedAt: now,
	}
	return svc.repo.UpsertAttendance(ctx, att)
}

func (svc *service) CheckOut(ctx context.Context, actor policy.Actor, co CheckOutRequest) (Attendance, error) {
	studentID := co.StudentID
	if actor.IsStudent() || studentID == "" {
		studentID = actor.ID
	}
	att, err := svc.repo.GetAttendance(ctx, studentID, co.CourseID, co.Date)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return Attendance{}, ErrNotCheckedIn
		}
		return Attendance{}, err
	}
	res, err := svc.resolve(ctx, actor, studentID, co.CourseID)
	if err != nil {
		return Attendance{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, res).Err(); err != nil {
		return Attendance{}, err
	}

	now := time.Now().UTC()
	att.CheckOut = &now
	return svc.repo.UpsertAttendance(ctx, att)
}

func (svc *service) visible(ctx context.Context, actor policy.Actor, records []Attendance) ([]Attendance, error) {
	visible := make([]Attendance, 0, len(records))
	mentors := make(map[string]string) // courseID -> mentorID, per-request only
	for _, att := range records {
		mentorID, ok := mentors[att.CourseID]
		if !ok {
			crs, err := svc.courseRepo.GetCourseByID(ctx, att.CourseID)
			if err != nil {
				if errors.Cause(err) == core.ErrNotFound {
					continue
				}
				return nil, err
			}
			mentorID = crs.MentorID
			mentors[att.CourseID] = mentorID
		}
		if policy.CanList(actor, att.Resource(mentorID, false)) {
			visible = append(visible, att)
		}
	}
	return visible, nil
}

func (svc *service) QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Attendance, error) {
	records, err := svc.repo.QueryAttendanceByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, records)
}

func (svc *service) QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Attendance, error) {
	records, err := svc.repo.QueryAttendanceByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, records)
}

// CourseReport aggregates attended days per student; owning mentor or admin.
func (svc *service) CourseReport(ctx context.Context, actor policy.Actor, courseID string) (CourseReport, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return CourseReport{}, err
	}
	res := policy.Resource{Kind: policy.KindAttendance, MentorID: crs.MentorID}
	if !actor.IsAdmin() && !(actor.IsMentor() && crs.MentorID == actor.ID) {
		return CourseReport{}, policy.Can(actor, policy.ActionUpdate, res).Err()
	}

	records, err := svc.repo.QueryAttendanceByCourse(ctx, courseID)
	if err != nil {
		return CourseReport{}, err
	}
	report := CourseReport{CourseID: courseID, Days: make(map[string]int)}
	for _, att := range records {
		if att.CheckIn != nil {
			report.Days[att.StudentID]++
		}
	}
	return report, nil
}
