package user_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/testutils"
	"github.com/petcarehq/petcare/internal/user"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	u := testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)

	updated, err := svc.Update(u, u.ID, user.UpdateInput{
		FullName: strPtr("Alice Smith"),
		Timezone: strPtr("Europe/Madrid"),
	})
	assert.NoError(t, err)

	var fresh models.User
	assert.NoError(t, db.Where("id = ?", updated.ID).First(&fresh).Error)
	assert.Equal(t, "Alice Smith", fresh.FullName)
	assert.Equal(t, "Europe/Madrid", fresh.Timezone)
}

func TestUpdateStripsMarkup(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	u := testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)

	_, err := svc.Update(u, u.ID, user.UpdateInput{
		FullName: strPtr(`Alice <script>alert(1)</script>`),
	})
	assert.NoError(t, err)

	var fresh models.User
	assert.NoError(t, db.Where("id = ?", u.ID).First(&fresh).Error)
	assert.NotContains(t, fresh.FullName, "<script>")
	assert.Contains(t, fresh.FullName, "Alice")
}

func TestUpdateRoleRules(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	regular := testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)
	admin := testutils.CreateTestUser(t, db, cfg, "admin@x.com", "Secret123!", models.RoleAdmin)

	// Non-admin role changes are dropped silently, even on self-update.
	_, err := svc.Update(regular, regular.ID, user.UpdateInput{Role: strPtr(models.RoleAdmin)})
	assert.NoError(t, err)

	var fresh models.User
	assert.NoError(t, db.Where("id = ?", regular.ID).First(&fresh).Error)
	assert.Equal(t, models.RoleUser, fresh.Role)

	// Non-admins cannot touch other identities at all.
	_, err = svc.Update(regular, admin.ID, user.UpdateInput{FullName: strPtr("Eve")})
	assert.ErrorIs(t, err, auth.ErrInsufficientPermissions)

	// Admins may change any identity's role, including their own.
	_, err = svc.Update(admin, regular.ID, user.UpdateInput{Role: strPtr(models.RoleAdmin)})
	assert.NoError(t, err)
	assert.NoError(t, db.Where("id = ?", regular.ID).First(&fresh).Error)
	assert.Equal(t, models.RoleAdmin, fresh.Role)
}

func TestChangePassword(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	notifier := &testutils.CaptureNotifier{}
	authSvc := auth.NewService(db, cfg, notifier)
	testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)

	pair, err := authSvc.Login("a@x.com", "Secret123!")
	assert.NoError(t, err)

	var u models.User
	assert.NoError(t, db.Where("email = ?", "a@x.com").First(&u).Error)

	assert.ErrorIs(t, svc.ChangePassword(&u, "wrong", "NewSecret456!"), auth.ErrInvalidCredentials)

	assert.NoError(t, svc.ChangePassword(&u, "Secret123!", "NewSecret456!"))

	// Old refresh token no longer works; new password logs in.
	_, err = authSvc.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = authSvc.Login("a@x.com", "NewSecret456!")
	assert.NoError(t, err)
}

func TestDeleteCascadesPasswordResets(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	admin := testutils.CreateTestUser(t, db, cfg, "admin@x.com", "Secret123!", models.RoleAdmin)
	u := testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)

	assert.NoError(t, db.Create(&models.PasswordReset{
		UserID: u.ID, Token: "t1", ExpiresAt: time.Now().Add(time.Hour),
	}).Error)
	assert.NoError(t, db.Create(&models.PasswordReset{
		UserID: u.ID, Token: "t2", ExpiresAt: time.Now().Add(2 * time.Hour),
	}).Error)

	assert.NoError(t, svc.Delete(admin, u.ID))

	var users int64
	assert.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Count(&users).Error)
	assert.EqualValues(t, 0, users)

	var resets int64
	assert.NoError(t, db.Model(&models.PasswordReset{}).Where("user_id = ?", u.ID).Count(&resets).Error)
	assert.EqualValues(t, 0, resets)
}

func TestSetActive(t *testing.T) {
	db := testutils.TestDB(t)
	cfg := testutils.TestConfig()
	svc := user.NewService(db, cfg)
	admin := testutils.CreateTestUser(t, db, cfg, "admin@x.com", "Secret123!", models.RoleAdmin)
	u := testutils.CreateTestUser(t, db, cfg, "a@x.com", "Secret123!", models.RoleUser)

	assert.NoError(t, svc.SetActive(admin, u.ID, false))

	var fresh models.User
	assert.NoError(t, db.Where("id = ?", u.ID).First(&fresh).Error)
	assert.False(t, fresh.IsActive)

	assert.NoError(t, svc.SetActive(admin, u.ID, true))
	assert.NoError(t, db.Where("id = ?", u.ID).First(&fresh).Error)
	assert.True(t, fresh.IsActive)
}
