package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/server"
)

// TestConfig returns a config with the production defaults for the
// security knobs and no external providers.
func TestConfig() *config.Config {
	return &config.Config{
		SecretKey:         "test_secret_key_minimum_32_characters_long_for_testing_only",
		AccessTokenTTL:    30 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		BcryptRounds:      4, // min cost keeps the suite fast
		MaxLoginAttempts:  5,
		AccountLockTime:   30 * time.Minute,
		PasswordResetTTL:  time.Hour,
		ResetResendWindow: 5 * time.Minute,
		EmailProvider:     "console",
		FrontendURL:       "http://localhost:3000",
	}
}

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.AuditLog{},
	)
	assert.NoError(t, err, "Failed to migrate test database")

	return db
}

// CaptureNotifier records outgoing mail instead of sending it.
type CaptureNotifier struct {
	mu   sync.Mutex
	Sent []CapturedEmail
}

type CapturedEmail struct {
	To      string
	Subject string
	Body    string
}

func (n *CaptureNotifier) Send(to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, CapturedEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *CaptureNotifier) Last() *CapturedEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Sent) == 0 {
		return nil
	}
	return &n.Sent[len(n.Sent)-1]
}

type TestApp struct {
	App      *fiber.App
	DB       *gorm.DB
	Cfg      *config.Config
	Notifier *CaptureNotifier
}

func SetupTestApp(t *testing.T) *TestApp {
	db := TestDB(t)
	cfg := TestConfig()
	notifier := &CaptureNotifier{}

	app := server.NewWithNotifier(db, cfg, notifier)
	return &TestApp{App: app, DB: db, Cfg: cfg, Notifier: notifier}
}

func CreateTestUser(t *testing.T, db *gorm.DB, cfg *config.Config, email, password, role string) *models.User {
	hashed, err := auth.NewHasher(cfg.BcryptRounds).Hash(password)
	assert.NoError(t, err, "Failed to hash test password")

	u := &models.User{
		Username:      "user-" + email,
		Email:         email,
		Password:      hashed,
		Role:          role,
		AuthProvider:  "local",
		EmailVerified: true,
		IsActive:      true,
	}

	err = db.Create(u).Error
	assert.NoError(t, err, "Failed to create test user")

	return u
}

func GetAuthToken(t *testing.T, cfg *config.Config, u *models.User) string {
	token, err := auth.NewTokenManager(cfg).IssueAccess(u.ID.String(), u.Email, u.Role)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	if result.Error != nil {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
