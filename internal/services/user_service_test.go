package services

import (
	"context"
	"testing"

	"unicarpool/internal/models"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetActiveRoleRequiresHeldRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.addUser(t, "Riley Rider", models.RoleRider)

	_, err := env.userSvc.SetActiveRole(ctx, user.ID, &validators.RoleRequest{Role: "DRIVER"})
	requireCode(t, err, apperrors.CodeRoleNotHeld)

	added, err := env.userSvc.AddRole(ctx, user.ID, &validators.RoleRequest{Role: "driver"})
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleRider, models.RoleDriver}, added.Roles)
	assert.Equal(t, models.RoleRider, added.ActiveRole)

	switched, err := env.userSvc.SetActiveRole(ctx, user.ID, &validators.RoleRequest{Role: "DRIVER"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, switched.ActiveRole)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, stored.ActiveRole)
}

func TestAddRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.addUser(t, "Dana Driver", models.RoleDriver)

	for i := 0; i < 2; i++ {
		updated, err := env.userSvc.AddRole(ctx, user.ID, &validators.RoleRequest{Role: "RIDER"})
		require.NoError(t, err)
		assert.Equal(t, []models.Role{models.RoleDriver, models.RoleRider}, updated.Roles)
		assert.Equal(t, models.RoleDriver, updated.ActiveRole)
	}

	missing, err := env.userSvc.MissingRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = env.userSvc.AddRole(ctx, user.ID, &validators.RoleRequest{Role: "ADMIN"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestMissingRolesInFixedOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "Dana Driver", models.RoleDriver)

	missing, err := env.userSvc.MissingRoles(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleRider}, missing)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.addUser(t, "Riley Rider", models.RoleRider)
	other := env.addUser(t, "Omar Other", models.RoleRider)

	name := "Riley R. Rider"
	updated, err := env.userSvc.UpdateProfile(ctx, user.ID, &validators.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)

	taken := other.SchoolEmail
	_, err = env.userSvc.UpdateProfile(ctx, user.ID, &validators.UpdateProfileRequest{SchoolEmail: &taken})
	requireCode(t, err, apperrors.CodeConflict)

	foreign := "riley@gmail.com"
	_, err = env.userSvc.UpdateProfile(ctx, user.ID, &validators.UpdateProfileRequest{SchoolEmail: &foreign})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.addUser(t, "Riley Rider", models.RoleRider)

	err := env.userSvc.RegisterDevice(ctx, user.ID, &validators.DeviceRequest{Token: "fcm-token", Platform: "android"})
	require.NoError(t, err)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fcm-token"}, stored.TokensFor(models.PlatformAndroid))

	err = env.userSvc.RegisterDevice(ctx, user.ID, &validators.DeviceRequest{Token: "x", Platform: "windows"})
	requireCode(t, err, apperrors.CodeValidation)
}
