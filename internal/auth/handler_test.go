package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/testutils"
)

func TestRegisterHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)

	t.Run("Success - Register new user", func(t *testing.T) {
		body := map[string]interface{}{
			"email":     "john@example.com",
			"password":  "password123",
			"full_name": "John Doe",
		}

		resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/register", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.True(t, result.Success)

		data := result.Data.(map[string]interface{})
		user := data["user"].(map[string]interface{})
		assert.Equal(t, "john", user["username"])
		assert.Equal(t, false, user["email_verified"])
	})

	t.Run("Error - Missing required fields", func(t *testing.T) {
		body := map[string]interface{}{
			"email": "test@example.com",
		}

		resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/register", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)

		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})

	t.Run("Error - Duplicate email", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    "john@example.com",
			"password": "password123",
		}

		resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/register", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)

		testutils.AssertError(t, resp, "EMAIL_TAKEN")
	})
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	ta := testutils.SetupTestApp(t)

	resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/register", map[string]interface{}{
		"email":    "a@x.com",
		"password": "Secret123!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	// Login before verification is rejected.
	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
		"email":    "a@x.com",
		"password": "Secret123!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 403, resp.Code)
	testutils.AssertError(t, resp, "EMAIL_NOT_VERIFIED")

	var u models.User
	assert.NoError(t, ta.DB.Where("email = ?", "a@x.com").First(&u).Error)
	assert.NotNil(t, u.VerificationToken)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/verify-email", map[string]interface{}{
		"token": *u.VerificationToken,
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
		"email":    "a@x.com",
		"password": "Secret123!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	data := result.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.EqualValues(t, 1800, data["expires_in"])
}

func TestLoginHandlerLockout(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	testutils.CreateTestUser(t, ta.DB, ta.Cfg, "a@x.com", "Secret123!", models.RoleUser)

	for i := 0; i < 4; i++ {
		resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
			"email":    "a@x.com",
			"password": "wrong",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "INVALID_CREDENTIALS")
	}

	resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
		"email":    "a@x.com",
		"password": "wrong",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 423, resp.Code)
	testutils.AssertError(t, resp, "ACCOUNT_LOCKED")

	// Correct password while locked still gets 423.
	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
		"email":    "a@x.com",
		"password": "Secret123!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 423, resp.Code)
	testutils.AssertError(t, resp, "ACCOUNT_LOCKED")
}

func TestRefreshHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	testutils.CreateTestUser(t, ta.DB, ta.Cfg, "a@x.com", "Secret123!", models.RoleUser)

	resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/login", map[string]interface{}{
		"email":    "a@x.com",
		"password": "Secret123!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var login testutils.StandardResponse
	testutils.ParseResponse(t, resp, &login)
	refreshToken := login.Data.(map[string]interface{})["refresh_token"].(string)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var refreshed testutils.StandardResponse
	testutils.ParseResponse(t, resp, &refreshed)
	assert.NotEmpty(t, refreshed.Data.(map[string]interface{})["access_token"])

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 401, resp.Code)
	testutils.AssertError(t, resp, "INVALID_TOKEN")
}

func TestLogoutHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	u := testutils.CreateTestUser(t, ta.DB, ta.Cfg, "a@x.com", "Secret123!", models.RoleUser)
	token := testutils.GetAuthToken(t, ta.Cfg, u)

	resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/logout", nil, token)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	testutils.AssertSuccess(t, resp)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/logout", nil, "")
	assert.NoError(t, err)
	assert.Equal(t, 401, resp.Code)
}

func TestForgotAndResetPasswordHandlers(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	u := testutils.CreateTestUser(t, ta.DB, ta.Cfg, "a@x.com", "Secret123!", models.RoleUser)

	// Unknown email answers success-shaped anyway.
	resp, err := testutils.MakeRequest(ta.App, "POST", "/auth/forgot-password", map[string]interface{}{
		"email": "ghost@x.com",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	testutils.AssertSuccess(t, resp)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/forgot-password", map[string]interface{}{
		"email": "a@x.com",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var reset models.PasswordReset
	assert.NoError(t, ta.DB.Where("user_id = ?", u.ID).First(&reset).Error)

	resp, err = testutils.MakeRequest(ta.App, "GET", "/auth/reset-password/validate?token="+reset.Token, nil, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var status testutils.StandardResponse
	testutils.ParseResponse(t, resp, &status)
	assert.Equal(t, true, status.Data.(map[string]interface{})["valid"])

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/reset-password", map[string]interface{}{
		"token":        reset.Token,
		"new_password": "NewSecret456!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	testutils.AssertSuccess(t, resp)

	resp, err = testutils.MakeRequest(ta.App, "POST", "/auth/reset-password", map[string]interface{}{
		"token":        reset.Token,
		"new_password": "Another789!",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 400, resp.Code)
	testutils.AssertError(t, resp, "BAD_REQUEST")
}

func TestCleanupResetTokensHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, ta.DB, ta.Cfg, "admin@x.com", "Secret123!", models.RoleAdmin)
	u := testutils.CreateTestUser(t, ta.DB, ta.Cfg, "a@x.com", "Secret123!", models.RoleUser)

	assert.NoError(t, ta.DB.Create(&models.PasswordReset{
		UserID: u.ID, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	// Non-admin is refused.
	userToken := testutils.GetAuthToken(t, ta.Cfg, u)
	resp, err := testutils.MakeRequest(ta.App, "POST", "/password-resets/cleanup", nil, userToken)
	assert.NoError(t, err)
	assert.Equal(t, 403, resp.Code)
	testutils.AssertError(t, resp, "INSUFFICIENT_PERMISSIONS")

	adminToken := testutils.GetAuthToken(t, ta.Cfg, admin)
	resp, err = testutils.MakeRequest(ta.App, "POST", "/password-resets/cleanup", nil, adminToken)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	assert.EqualValues(t, 1, result.Data.(map[string]interface{})["deleted_count"])
}
