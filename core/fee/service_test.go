package fee_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/fee"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	testutil "github.com/trezcool/elimu/tests"
)

type fixture struct {
	svc     fee.Service
	repo    fee.Repository
	usrRepo user.Repository

	admin   user.User
	mentor  user.User
	student user.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	f := &fixture{
		repo:    dummydb.NewFeeRepository(db),
		usrRepo: dummydb.NewUserRepository(db),
	}
	f.svc = fee.NewService(f.repo, f.usrRepo, emailsvc.NewConsoleServiceMock())

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin", "admin@test.cd", "", policy.RoleAdmin, true)
	f.mentor = testutil.CreateUser(t, f.usrRepo, "Sensei", "sensei", "sensei@test.cd", "", policy.RoleMentor, true)
	f.student = testutil.CreateUser(t, f.usrRepo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)
	return f
}

func (f *fixture) createReminder(t *testing.T) fee.Reminder {
	t.Helper()
	rem, err := f.svc.Create(context.Background(), f.admin.Actor(), fee.NewReminder{
		StudentID: f.student.ID,
		Amount:    150,
		DueDate:   time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	return rem
}

func Test_service_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rem := f.createReminder(t)
	assert.Equal(t, policy.FeePending, rem.Status)
	assert.Equal(t, f.student.ID, rem.StudentID)

	// admin-only
	nr := fee.NewReminder{StudentID: f.student.ID, Amount: 150, DueDate: time.Now().UTC()}
	_, err := f.svc.Create(ctx, f.mentor.Actor(), nr)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
	_, err = f.svc.Create(ctx, f.student.Actor(), nr)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// the student must exist
	nr.StudentID = "nope"
	_, err = f.svc.Create(ctx, f.admin.Actor(), nr)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_GetByID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rem := f.createReminder(t)

	_, err := f.svc.GetByID(ctx, f.student.Actor(), rem.ID)
	assert.NoError(t, err)

	// a foreign student's reminder is invisible, not forbidden
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@test.cd", "", policy.RoleStudent, true)
	_, err = f.svc.GetByID(ctx, other.Actor(), rem.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_Query(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rem := f.createReminder(t)

	other := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@test.cd", "", policy.RoleStudent, true)
	_, err := f.svc.Create(ctx, f.admin.Actor(), fee.NewReminder{StudentID: other.ID, Amount: 90, DueDate: time.Now().UTC()})
	require.NoError(t, err)

	got, err := f.svc.Query(ctx, f.admin.Actor())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.Query(ctx, f.student.Actor())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rem.ID, got[0].ID)

	// targeting another student comes back empty
	got, err = f.svc.QueryByStudent(ctx, f.student.Actor(), other.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_service_statusTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rem := f.createReminder(t)

	// students cannot mark their own fees paid
	_, err := f.svc.MarkPaid(ctx, f.student.Actor(), rem.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	// pending -> overdue -> paid
	updated, err := f.svc.MarkOverdue(ctx, f.admin.Actor(), rem.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.FeeOverdue, updated.Status)

	updated, err = f.svc.MarkPaid(ctx, f.admin.Actor(), rem.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.FeePaid, updated.Status)

	// paid is terminal
	_, err = f.svc.MarkOverdue(ctx, f.admin.Actor(), rem.ID)
	assert.Equal(t, core.ErrInvalidTransition, errors.Cause(err))

	// re-marking paid is idempotent
	updated, err = f.svc.MarkPaid(ctx, f.admin.Actor(), rem.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.FeePaid, updated.Status)
}

func Test_service_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()
	rem := f.createReminder(t)

	// sending is an admin action
	err := f.svc.Send(ctx, f.student.Actor(), rem.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
	assert.Empty(t, emailsvc.SentMessages)

	require.NoError(t, f.svc.Send(ctx, f.admin.Actor(), rem.ID))
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, f.student.Email, msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "150.00")
}

func Test_service_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rem := f.createReminder(t)

	err := f.svc.Delete(ctx, f.student.Actor(), rem.ID)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	require.NoError(t, f.svc.Delete(ctx, f.admin.Actor(), rem.ID))
	_, err = f.svc.GetByID(ctx, f.admin.Actor(), rem.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}
