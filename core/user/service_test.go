package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/user"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	testutil "github.com/trezcool/elimu/tests"
)

type fixture struct {
	svc  user.Service
	repo user.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	f := &fixture{repo: dummydb.NewUserRepository(db)}
	f.svc = user.NewService(f.repo)
	return f
}

func Test_service_Register(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr, err := f.svc.Register(ctx, user.NewUser{
		Username: "hero",
		Email:    "hero@test.cd",
		FullName: "Hero Kid",
		Role:     policy.RoleStudent,
		Password: "LordOfTheFries",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.CreatedAt.IsZero())
	assert.NoError(t, usr.CheckPassword("LordOfTheFries"))
	assert.Error(t, usr.CheckPassword("nope"))

	got, err := f.svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Username, got.Username)
	assert.Equal(t, policy.RoleStudent, got.Role)
}

func Test_service_CheckUniqueness(t *testing.T) {
	f := setup(t)

	usr := testutil.CreateUser(t, f.repo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)

	assert.NoError(t, f.svc.CheckUniqueness("newkid", "newkid@test.cd"))

	var vErr *core.ValidationError

	err := f.svc.CheckUniqueness("hero", "newkid@test.cd")
	require.Error(t, err)
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "username", vErr.Fields[0].Field)

	err = f.svc.CheckUniqueness("newkid", "hero@test.cd")
	require.Error(t, err)
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "email", vErr.Fields[0].Field)

	// the user being updated does not conflict with themselves
	assert.NoError(t, f.svc.CheckUniqueness("hero", "hero@test.cd", usr))
}

func Test_service_GetByUsernameOrEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, f.repo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)

	got, err := f.svc.GetByUsernameOrEmail(ctx, "  HERO ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = f.svc.GetByUsernameOrEmail(ctx, "Hero@Test.cd")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = f.svc.GetByUsernameOrEmail(ctx, "ghost")
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_Filter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateUser(t, f.repo, "Admin", "admin", "admin@test.cd", "", policy.RoleAdmin, true)
	mentor := testutil.CreateUser(t, f.repo, "Sensei", "sensei", "sensei@test.cd", "", policy.RoleMentor, true)
	inactive := testutil.CreateUser(t, f.repo, "Ghost", "ghost", "ghost@test.cd", "", policy.RoleStudent, false)

	// empty filter falls back to all users
	all, err := f.svc.Filter(ctx, user.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matches, err := f.svc.Filter(ctx, user.QueryFilter{Search: " SenSei "})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, mentor.ID, matches[0].ID)

	matches, err = f.svc.Filter(ctx, user.QueryFilter{Role: policy.RoleStudent})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, inactive.ID, matches[0].ID)

	isActive := true
	matches, err = f.svc.Filter(ctx, user.QueryFilter{IsActive: &isActive})
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = f.svc.Filter(ctx, user.QueryFilter{Role: policy.RoleMentor, IsActive: &isActive})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, mentor.ID, matches[0].ID)

	matches, err = f.svc.Filter(ctx, user.QueryFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func Test_service_SetLastLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, f.repo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)
	require.True(t, usr.LastLogin.IsZero())

	usr, err := f.svc.SetLastLogin(ctx, usr)
	require.NoError(t, err)
	assert.False(t, usr.LastLogin.IsZero())

	got, err := f.svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.LastLogin, got.LastLogin)
	assert.Equal(t, "hero", got.Username)
}

func Test_service_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, f.repo, "Hero", "hero", "hero@test.cd", "secretpwd", policy.RoleStudent, true)

	// password untouched when not provided
	got, err := f.svc.Update(ctx, usr.ID, user.UpdateUser{
		Username: "hero",
		Email:    "hero@test.cd",
		FullName: "Hero Grownup",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hero Grownup", got.FullName)
	assert.NoError(t, got.CheckPassword("secretpwd"))

	// new password replaces the old one; deactivation is explicit
	isActive := false
	got, err = f.svc.Update(ctx, usr.ID, user.UpdateUser{
		Username: "hero",
		Email:    "hero@test.cd",
		FullName: "Hero Grownup",
		Password: "betterpwd99",
		IsActive: &isActive,
	})
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("betterpwd99"))
	assert.Error(t, got.CheckPassword("secretpwd"))
	assert.False(t, got.IsActive)

	_, err = f.svc.Update(ctx, "ghost", user.UpdateUser{Username: "ghost", Email: "ghost@test.cd"})
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func Test_service_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr1 := testutil.CreateUser(t, f.repo, "Hero", "hero", "hero@test.cd", "", policy.RoleStudent, true)
	usr2 := testutil.CreateUser(t, f.repo, "Sensei", "sensei", "sensei@test.cd", "", policy.RoleMentor, true)
	keeper := testutil.CreateUser(t, f.repo, "Admin", "admin", "admin@test.cd", "", policy.RoleAdmin, true)

	require.NoError(t, f.svc.Delete(ctx, usr1.ID, usr2.ID))

	_, err := f.svc.GetByID(ctx, usr1.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	_, err = f.svc.GetByID(ctx, usr2.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	all, err := f.svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keeper.ID, all[0].ID)
}
