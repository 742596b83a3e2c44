package enroll

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
)

var (
	ErrAlreadyEnrolled      = errors.Wrap(core.ErrConflict, "student is already enrolled in this course")
	ErrCertificateExists    = errors.Wrap(core.ErrConflict, "a certificate already exists for this enrollment")
	ErrEnrollmentIncomplete = errors.Wrap(core.ErrConflict, "enrollment is not completed")
)

type (
	Repository interface {
		// CreateEnrollment inserts atomically; a duplicate
		// (student_id, course_id) pair yields ErrAlreadyEnrolled.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
		QueryAllEnrollments(ctx context.Context) ([]Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
		IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollmentsByID(ctx context.Context, ids ...string) error

		// IssueCertificate creates the certificate and stamps its id onto the
		// enrollment in one transaction; a duplicate (student_id, course_id)
		// yields ErrCertificateExists.
		IssueCertificate(ctx context.Context, cert Certificate, enrollmentID string) (Certificate, error)
		GetCertificateByID(ctx context.Context, id string) (Certificate, error)
		QueryAllCertificates(ctx context.Context) ([]Certificate, error)
		QueryCertificatesByStudent(ctx context.Context, studentID string) ([]Certificate, error)
		DeleteCertificatesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Enroll(ctx context.Context, actor policy.Actor, ne NewEnrollment) (Enrollment, error)
		GetByID(ctx context.Context, actor policy.Actor, id string) (Enrollment, error)
		Query(ctx context.Context, actor policy.Actor) ([]Enrollment, error)
		QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Enrollment, error)
		QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Enrollment, error)
		SetStatus(ctx context.Context, actor policy.Actor, id, status string) (Enrollment, error)
		Unenroll(ctx context.Context, actor policy.Actor, id string) error

		GenerateCertificate(ctx context.Context, actor policy.Actor, gc GenerateCertificate) (Certificate, error)
		GetCertificate(ctx context.Context, actor policy.Actor, id string) (Certificate, error)
		QueryCertificates(ctx context.Context, actor policy.Actor) ([]Certificate, error)
		QueryCertificatesByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Certificate, error)
		SendCertificate(ctx context.Context, actor policy.Actor, id string) error
	}

	service struct {
		repo       Repository
		courseRepo course.Repository
		usrRepo    user.Repository
		mailSvc    core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseRepo course.Repository, usrRepo user.Repository, mailSvc core.EmailService) *service {
	return &service{
		repo:       repo,
		courseRepo: courseRepo,
		usrRepo:    usrRepo,
		mailSvc:    mailSvc,
	}
}

// resolveCourseMentor looks up the owning mentor of a course; ownership is
// re-resolved on every request, never cached.
func (svc *service) resolveCourseMentor(ctx context.Context, courseID string) (string, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return "", errors.Wrap(err, "resolving course mentor")
	}
	return crs.MentorID, nil
}

func (svc *service) Enroll(ctx context.Context, actor policy.Actor, ne NewEnrollment) (Enrollment, error) {
	// students always enroll themselves
	studentID := ne.StudentID
	if !actor.IsAdmin() || studentID == "" {
		studentID = actor.ID
	}

	crs, err := svc.courseRepo.GetCourseByID(ctx, ne.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	// an unapproved course is invisible to the student; surface the same
	// not-found the read would
	if err = policy.Can(actor, policy.ActionRead, crs.Resource()).Err(); err != nil {
		return Enrollment{}, err
	}
	res := policy.Resource{Kind: policy.KindEnrollment, MentorID: crs.MentorID, StudentID: studentID}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Enrollment{}, err
	}
	if !crs.IsApproved() {
		return Enrollment{}, errors.Wrap(core.ErrConflict, "course is not approved for enrollment")
	}

	now := time.Now().UTC()
	enr := Enrollment{
		ID:               uuid.New().String(),
		StudentID:        studentID,
		CourseID:         ne.CourseID,
		CompletionStatus: policy.EnrollmentInProgress,
		EnrolledAt:       now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *service) GetByID(ctx context.Context, actor policy.Actor, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	mentorID, err := svc.resolveCourseMentor(ctx, enr.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, enr.Resource(mentorID)).Err(); err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

func (svc *service) visible(ctx context.Context, actor policy.Actor, enrollments []Enrollment) ([]Enrollment, error) {
	visible := make([]Enrollment, 0, len(enrollments))
	mentors := make(map[string]string) // courseID -> mentorID, per-request only
	for _, enr := range enrollments {
		mentorID, ok := mentors[enr.CourseID]
		if !ok {
			var err error
			if mentorID, err = svc.resolveCourseMentor(ctx, enr.CourseID); err != nil {
				if errors.Cause(err) == core.ErrNotFound {
					continue // course gone; skip orphaned enrollment
				}
				return nil, err
			}
			mentors[enr.CourseID] = mentorID
		}
		if policy.CanList(actor, enr.Resource(mentorID)) {
			visible = append(visible, enr)
		}
	}
	return visible, nil
}

func (svc *service) Query(ctx context.Context, actor policy.Actor) ([]Enrollment, error) {
	enrollments, err := svc.repo.QueryAllEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, enrollments)
}

func (svc *service) QueryByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]Enrollment, error) {
	enrollments, err := svc.repo.QueryEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, enrollments)
}

func (svc *service) QueryByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Enrollment, error) {
	enrollments, err := svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return svc.visible(ctx, actor, enrollments)
}

// SetStatus updates completion status; the owning mentor or an admin only.
// The status set is unordered: dropped may move back to completed.
func (svc *service) SetStatus(ctx context.Context, actor policy.Actor, id, status string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	mentorID, err := svc.resolveCourseMentor(ctx, enr.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if err = policy.Can(actor, policy.ActionUpdate, enr.Resource(mentorID)).Err(); err != nil {
		return Enrollment{}, err
	}
	if err = policy.CanTransition(policy.KindEnrollment, enr.CompletionStatus, status); err != nil {
		return Enrollment{}, err
	}

	enr.CompletionStatus = status
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

func (svc *service) Unenroll(ctx context.Context, actor policy.Actor, id string) error {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return err
	}
	mentorID, err := svc.resolveCourseMentor(ctx, enr.CourseID)
	if err != nil {
		return err
	}
	if err = policy.Can(actor, policy.ActionDelete, enr.Resource(mentorID)).Err(); err != nil {
		return err
	}
	return svc.repo.DeleteEnrollmentsByID(ctx, id)
}

// GenerateCertificate issues a certificate for a completed enrollment.
// Exactly one certificate can ever exist per (student, course); the
// enrollment record is stamped in the same transaction.
func (svc *service) GenerateCertificate(ctx context.Context, actor policy.Actor, gc GenerateCertificate) (Certificate, error) {
	enr, err := svc.repo.GetEnrollment(ctx, gc.StudentID, gc.CourseID)
	if err != nil {
		return Certificate{}, err
	}
	mentorID, err := svc.resolveCourseMentor(ctx, enr.CourseID)
	if err != nil {
		return Certificate{}, err
	}
	res := policy.Resource{Kind: policy.KindCertificate, MentorID: mentorID, StudentID: enr.StudentID}
	if err = policy.Can(actor, policy.ActionCreate, res).Err(); err != nil {
		return Certificate{}, err
	}
	if !enr.IsCompleted() {
		return Certificate{}, ErrEnrollmentIncomplete
	}
	if enr.CertificateID != "" {
		return Certificate{}, ErrCertificateExists
	}

	cert := Certificate{
		ID:         uuid.New().String(),
		StudentID:  enr.StudentID,
		CourseID:   enr.CourseID,
		IssuedDate: time.Now().UTC(),
	}
	return svc.repo.IssueCertificate(ctx, cert, enr.ID)
}

func (svc *service) GetCertificate(ctx context.Context, actor policy.Actor, id string) (Certificate, error) {
	cert, err := svc.repo.GetCertificateByID(ctx, id)
	if err != nil {
		return Certificate{}, err
	}
	mentorID, err := svc.resolveCourseMentor(ctx, cert.CourseID)
	if err != nil {
		return Certificate{}, err
	}
	if err = policy.Can(actor, policy.ActionRead, cert.Resource(mentorID)).Err(); err != nil {
		return Certificate{}, err
	}
	return cert, nil
}

func (svc *service) visibleCerts(ctx context.Context, actor policy.Actor, certs []Certificate) ([]Certificate, error) {
	visible := make([]Certificate, 0, len(certs))
	for _, cert := range certs {
		mentorID, err := svc.resolveCourseMentor(ctx, cert.CourseID)
		if err != nil {
			if errors.Cause(err) == core.ErrNotFound {
				mentorID = ""
			} else {
				return nil, err
			}
		}
		if policy.CanList(actor, cert.Resource(mentorID)) {
			visible = append(visible, cert)
		}
	}
	return visible, nil
}

func (svc *service) QueryCertificates(ctx context.Context, actor policy.Actor) ([]Certificate, error) {
	certs, err := svc.repo.QueryAllCertificates(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visibleCerts(ctx, actor, certs)
}

func (svc *service) QueryCertificatesByStudent(ctx context.Context, actor policy.Actor, studentID string) ([]Certificate, error) {
	certs, err := svc.repo.QueryCertificatesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return svc.visibleCerts(ctx, actor, certs)
}

// SendCertificate emails the certificate to its student.
func (svc *service) SendCertificate(ctx context.Context, actor policy.Actor, id string) error {
	cert, err := svc.GetCertificate(ctx, actor, id)
	if err != nil {
		return err
	}
	student, err := svc.usrRepo.GetUserByID(ctx, cert.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding certificate student")
	}
	crs, err := svc.courseRepo.GetCourseByID(ctx, cert.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding certificate course")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.FullName, Address: student.Email}},
		Subject: "Your certificate for " + crs.Title,
		BodyStr: fmt.Sprintf(
			"Congratulations %s!\n\nYou completed %s on %s. Your certificate id is %s.",
			student.FullName, crs.Title, cert.IssuedDate.Format("2 Jan 2006"), cert.ID,
		),
	})
	return nil
}
