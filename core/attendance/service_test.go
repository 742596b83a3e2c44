package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	testutil "github.com/trezcool/elimu/tests"
)

type fixture struct {
	svc        attendance.Service
	repo       attendance.Repository
	courseRepo course.Repository
	enrollRepo enroll.Repository
	usrRepo    user.Repository

	admin    user.User
	mentor   user.User
	enrolled user.User
	outsider user.User
	crs      course.Course
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	f := &fixture{
		repo:       dummydb.NewAttendanceRepository(db),
		courseRepo: dummydb.NewCourseRepository(db),
		enrollRepo: dummydb.NewEnrollRepository(db),
		usrRepo:    dummydb.NewUserRepository(db),
	}
	f.svc = attendance.NewService(f.repo, f.courseRepo, f.enrollRepo)

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin", "admin@test.cd", "", policy.RoleAdmin, true)
	f.mentor = testutil.CreateUser(t, f.usrRepo, "Sensei", "sensei", "sensei@test.cd", "", policy.RoleMentor, true)
	f.enrolled = testutil.CreateUser(t, f.usrRepo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)
	f.outsider = testutil.CreateUser(t, f.usrRepo, "Lurker", "lurker", "lurker@test.cd", "", policy.RoleStudent, true)
	f.crs = testutil.CreateCourse(t, f.courseRepo, "Go 101", f.mentor.ID, policy.CourseApproved)
	testutil.CreateEnrollment(t, f.enrollRepo, f.enrolled.ID, f.crs.ID, policy.EnrollmentInProgress)
	return f
}

func today() string { return time.Now().UTC().Format(attendance.DateLayout) }

func Test_service_CheckIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	att, err := f.svc.CheckIn(ctx, f.enrolled.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: today()})
	require.NoError(t, err)
	assert.Equal(t, f.enrolled.ID, att.StudentID)
	require.NotNil(t, att.CheckIn)
	assert.Nil(t, att.CheckOut)

	// repeating the check-in keeps the first timestamp
	again, err := f.svc.CheckIn(ctx, f.enrolled.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: today()})
	require.NoError(t, err)
	assert.Equal(t, att.ID, again.ID)
	assert.Equal(t, att.CheckIn.Unix(), again.CheckIn.Unix())

	// unenrolled students cannot check in
	_, err = f.svc.CheckIn(ctx, f.outsider.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: today()})
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// the course mentor marks a student present
	att, err = f.svc.CheckIn(ctx, f.mentor.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, StudentID: f.outsider.ID, Date: today()})
	require.NoError(t, err)
	assert.Equal(t, f.outsider.ID, att.StudentID)
}

func Test_service_CheckOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// check-out without check-in conflicts
	_, err := f.svc.CheckOut(ctx, f.enrolled.Actor(), attendance.CheckOutRequest{CourseID: f.crs.ID, Date: today()})
	assert.Equal(t, core.ErrConflict, errors.Cause(err))

	checkedIn, err := f.svc.CheckIn(ctx, f.enrolled.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: today()})
	require.NoError(t, err)

	att, err := f.svc.CheckOut(ctx, f.enrolled.Actor(), attendance.CheckOutRequest{CourseID: f.crs.ID, Date: today()})
	require.NoError(t, err)
	assert.Equal(t, checkedIn.ID, att.ID)
	require.NotNil(t, att.CheckOut)
	assert.Equal(t, checkedIn.CheckIn.Unix(), att.CheckIn.Unix())
}

func Test_service_QueryByStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.enrolled.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: today()})
	require.NoError(t, err)

	got, err := f.svc.QueryByStudent(ctx, f.enrolled.Actor(), f.enrolled.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// another student's records are silently empty
	got, err = f.svc.QueryByStudent(ctx, f.outsider.Actor(), f.enrolled.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.QueryByCourse(ctx, f.mentor.Actor(), f.crs.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func Test_service_CourseReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@test.cd", "", policy.RoleStudent, true)
	testutil.CreateEnrollment(t, f.enrollRepo, other.ID, f.crs.ID, policy.EnrollmentInProgress)

	days := []string{"2026-08-24", "2026-08-25", "2026-08-26"}
	for _, d := range days {
		_, err := f.svc.CheckIn(ctx, f.enrolled.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: d})
		require.NoError(t, err)
	}
	_, err := f.svc.CheckIn(ctx, other.Actor(), attendance.CheckInRequest{CourseID: f.crs.ID, Date: days[0]})
	require.NoError(t, err)

	report, err := f.svc.CourseReport(ctx, f.mentor.Actor(), f.crs.ID)
	require.NoError(t, err)
	assert.Equal(t, f.crs.ID, report.CourseID)
	assert.Equal(t, 3, report.Days[f.enrolled.ID])
	assert.Equal(t, 1, report.Days[other.ID])

	// students do not get the aggregate
	_, err = f.svc.CourseReport(ctx, f.enrolled.Actor(), f.crs.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// nor a foreign mentor
	rival := testutil.CreateUser(t, f.usrRepo, "Rival", "rival", "rival@test.cd", "", policy.RoleMentor, true)
	_, err = f.svc.CourseReport(ctx, rival.Actor(), f.crs.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
}
