package enroll_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	testutil "github.com/trezcool/elimu/tests"
)

type fixture struct {
	svc        enroll.Service
	repo       enroll.Repository
	courseRepo course.Repository
	usrRepo    user.Repository

	admin   user.User
	mentor  user.User
	student user.User
	crs     course.Course
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	f := &fixture{
		repo:       dummydb.NewEnrollRepository(db),
		courseRepo: dummydb.NewCourseRepository(db),
		usrRepo:    dummydb.NewUserRepository(db),
	}
	f.svc = enroll.NewService(f.repo, f.courseRepo, f.usrRepo, emailsvc.NewConsoleServiceMock())

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin", "admin@test.cd", "", policy.RoleAdmin, true)
	f.mentor = testutil.CreateUser(t, f.usrRepo, "Sensei", "sensei", "sensei@test.cd", "", policy.RoleMentor, true)
	f.student = testutil.CreateUser(t, f.usrRepo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)
	f.crs = testutil.CreateCourse(t, f.courseRepo, "Go 101", f.mentor.ID, policy.CourseApproved)
	return f
}

func Test_service_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// student enrolls themselves; provided StudentID is ignored
	enr, err := f.svc.Enroll(ctx, f.student.Actor(), enroll.NewEnrollment{CourseID: f.crs.ID, StudentID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, enr.StudentID)
	assert.Equal(t, f.crs.ID, enr.CourseID)
	assert.Equal(t, policy.EnrollmentInProgress, enr.CompletionStatus)
	assert.NotEmpty(t, enr.ID)

	// enrolling twice conflicts
	_, err = f.svc.Enroll(ctx, f.student.Actor(), enroll.NewEnrollment{CourseID: f.crs.ID})
	assert.Equal(t, core.ErrConflict, errors.Cause(err))

	// mentors cannot enroll
	_, err = f.svc.Enroll(ctx, f.mentor.Actor(), enroll.NewEnrollment{CourseID: f.crs.ID})
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// admin enrolls on behalf of a student
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@test.cd", "", policy.RoleStudent, true)
	enr, err = f.svc.Enroll(ctx, f.admin.Actor(), enroll.NewEnrollment{CourseID: f.crs.ID, StudentID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, enr.StudentID)

	// unknown course
	_, err = f.svc.Enroll(ctx, f.student.Actor(), enroll.NewEnrollment{CourseID: "nope"})
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_Enroll_unapprovedCourse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pending := testutil.CreateCourse(t, f.courseRepo, "Drafts", f.mentor.ID, policy.CoursePending)

	// invisible to the student: same not-found a read would surface
	_, err := f.svc.Enroll(ctx, f.student.Actor(), enroll.NewEnrollment{CourseID: pending.ID})
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	// the admin sees it but enrollment still requires approval
	_, err = f.svc.Enroll(ctx, f.admin.Actor(), enroll.NewEnrollment{CourseID: pending.ID, StudentID: f.student.ID})
	assert.Equal(t, core.ErrConflict, errors.Cause(err))
}

func Test_service_Query_visibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	otherMentor := testutil.CreateUser(t, f.usrRepo, "Rival", "rival", "rival@test.cd", "", policy.RoleMentor, true)
	otherCrs := testutil.CreateCourse(t, f.courseRepo, "Rust 101", otherMentor.ID, policy.CourseApproved)
	otherStudent := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@test.cd", "", policy.RoleStudent, true)

	mine := testutil.CreateEnrollment(t, f.repo, f.student.ID, f.crs.ID, policy.EnrollmentInProgress)
	foreign := testutil.CreateEnrollment(t, f.repo, otherStudent.ID, otherCrs.ID, policy.EnrollmentInProgress)

	// admin sees all
	all, err := f.svc.Query(ctx, f.admin.Actor())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// student sees only their own
	got, err := f.svc.Query(ctx, f.student.Actor())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	// mentor sees only their course's
	got, err = f.svc.Query(ctx, f.mentor.Actor())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	got, err = f.svc.QueryByCourse(ctx, otherMentor.Actor(), otherCrs.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, foreign.ID, got[0].ID)

	// a foreign student's listing comes back empty, not forbidden
	got, err = f.svc.QueryByStudent(ctx, f.student.Actor(), otherStudent.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_service_SetStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.repo, f.student.ID, f.crs.ID, policy.EnrollmentInProgress)

	// students cannot set their own completion
	_, err := f.svc.SetStatus(ctx, f.student.Actor(), enr.ID, policy.EnrollmentCompleted)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// the owning mentor can
	updated, err := f.svc.SetStatus(ctx, f.mentor.Actor(), enr.ID, policy.EnrollmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, policy.EnrollmentCompleted, updated.CompletionStatus)

	// statuses are unordered: completed may move to dropped and back
	updated, err = f.svc.SetStatus(ctx, f.admin.Actor(), enr.ID, policy.EnrollmentDropped)
	require.NoError(t, err)
	assert.Equal(t, policy.EnrollmentDropped, updated.CompletionStatus)

	// unknown status
	_, err = f.svc.SetStatus(ctx, f.admin.Actor(), enr.ID, "lol")
	assert.Equal(t, core.ErrInvalidTransition, errors.Cause(err))
}

func Test_service_Unenroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.repo, f.student.ID, f.crs.ID, policy.EnrollmentInProgress)

	// the mentor cannot unenroll a student
	err := f.svc.Unenroll(ctx, f.mentor.Actor(), enr.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// the student can leave
	require.NoError(t, f.svc.Unenroll(ctx, f.student.Actor(), enr.ID))
	_, err = f.svc.GetByID(ctx, f.admin.Actor(), enr.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_GenerateCertificate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.repo, f.student.ID, f.crs.ID, policy.EnrollmentInProgress)
	gc := enroll.GenerateCertificate{StudentID: f.student.ID, CourseID: f.crs.ID}

	// not completed yet
	_, err := f.svc.GenerateCertificate(ctx, f.mentor.Actor(), gc)
	assert.Equal(t, core.ErrConflict, errors.Cause(err))

	_, err = f.svc.SetStatus(ctx, f.mentor.Actor(), enr.ID, policy.EnrollmentCompleted)
	require.NoError(t, err)

	// students cannot issue
	_, err = f.svc.GenerateCertificate(ctx, f.student.Actor(), gc)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	cert, err := f.svc.GenerateCertificate(ctx, f.mentor.Actor(), gc)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, cert.StudentID)
	assert.Equal(t, f.crs.ID, cert.CourseID)
	assert.False(t, cert.IssuedDate.IsZero())

	// the enrollment is stamped
	stamped, err := f.svc.GetByID(ctx, f.admin.Actor(), enr.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, stamped.CertificateID)

	// one certificate per (student, course), ever
	_, err = f.svc.GenerateCertificate(ctx, f.mentor.Actor(), gc)
	assert.Equal(t, core.ErrConflict, errors.Cause(err))
}

func Test_service_SendCertificate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	enr := testutil.CreateEnrollment(t, f.repo, f.student.ID, f.crs.ID, policy.EnrollmentInProgress)
	_, err := f.svc.SetStatus(ctx, f.mentor.Actor(), enr.ID, policy.EnrollmentCompleted)
	require.NoError(t, err)
	cert, err := f.svc.GenerateCertificate(ctx, f.mentor.Actor(), gcFor(enr))
	require.NoError(t, err)

	// a foreign student cannot trigger the mail; existence stays hidden
	stranger := testutil.CreateUser(t, f.usrRepo, "Stranger", "stranger", "stranger@test.cd", "", policy.RoleStudent, true)
	err = f.svc.SendCertificate(ctx, stranger.Actor(), cert.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	assert.Empty(t, emailsvc.SentMessages)

	require.NoError(t, f.svc.SendCertificate(ctx, f.student.Actor(), cert.ID))
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, f.student.Email, msg.To[0].Address)
	assert.Contains(t, msg.Subject, f.crs.Title)
	assert.Contains(t, msg.TextContent, cert.ID)
}

func gcFor(enr enroll.Enrollment) enroll.GenerateCertificate {
	return enroll.GenerateCertificate{StudentID: enr.StudentID, CourseID: enr.CourseID}
}
