package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petcarehq/petcare/internal/audit"
	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/mailer"
	"github.com/petcarehq/petcare/internal/models"
	"gorm.io/gorm"
)

// Service orchestrates the register / login / refresh / logout /
// verify-email / password-reset operations. Handlers call nothing else.
type Service struct {
	db       *gorm.DB
	cfg      *config.Config
	hasher   *Hasher
	tokens   *TokenManager
	notifier mailer.Notifier
	audit    *audit.Recorder
}

func NewService(db *gorm.DB, cfg *config.Config, notifier mailer.Notifier) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		hasher:   NewHasher(cfg.BcryptRounds),
		tokens:   NewTokenManager(cfg),
		notifier: notifier,
		audit:    audit.NewRecorder(db),
	}
}

func (s *Service) Tokens() *TokenManager { return s.tokens }

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Timezone string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *Service) Register(in RegisterInput) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("email = ?", in.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	username := in.Username
	if username != "" {
		if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
			return nil, ErrUsernameTaken
		}
	} else {
		username = s.generateUsername(in.Email)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	timezone := in.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	verificationToken := randomToken()
	u := models.User{
		Username:          username,
		Email:             in.Email,
		Password:          hashed,
		FullName:          in.FullName,
		Phone:             in.Phone,
		Timezone:          timezone,
		Role:              models.RoleUser,
		AuthProvider:      "local",
		EmailVerified:     false,
		VerificationToken: &verificationToken,
		IsActive:          true,
	}

	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}

	s.audit.Record(&u.ID, "USER_REGISTERED", "User", &u.ID, map[string]interface{}{
		"email":    u.Email,
		"username": u.Username,
	})

	// Best effort: registration succeeds even when the email cannot be sent.
	subject, body := mailer.VerificationEmail(s.cfg.FrontendURL, u.Username, verificationToken)
	if err := s.notifier.Send(u.Email, subject, body); err != nil {
		log.Printf("⚠️  Failed to send verification email to %s: %v", u.Email, err)
	}

	return &u, nil
}

func (s *Service) Login(email, password string) (*TokenPair, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if user.Locked(now) {
		return nil, &AccountLockedError{Until: *user.LockedUntil}
	}
	if err := s.clearExpiredLock(&user, now); err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, s.recordFailedAttempt(&user, now)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	accessToken, err := s.tokens.IssueAccess(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefresh(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	// A new login silently replaces any previous refresh token.
	updates := map[string]interface{}{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"refresh_token":   refreshToken,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.audit.Record(&user.ID, "USER_LOGIN", "User", &user.ID, map[string]interface{}{
		"email": user.Email,
	})

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.tokens.AccessExpirySeconds(),
	}, nil
}

// recordFailedAttempt bumps the failure counter and, at the configured
// threshold, flips the account into a lockout. Increment and lockout
// commit in one transaction so concurrent wrong-password attempts cannot
// lose updates. The counter itself is only reset once the lock is later
// observed expired.
func (s *Service) recordFailedAttempt(user *models.User, now time.Time) error {
	var lockedUntil *time.Time

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + ?", 1)).Error; err != nil {
			return err
		}

		var fresh models.User
		if err := tx.Select("failed_attempts").Where("id = ?", user.ID).First(&fresh).Error; err != nil {
			return err
		}

		if fresh.FailedAttempts >= s.cfg.MaxLoginAttempts {
			until := now.Add(s.cfg.AccountLockTime)
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				UpdateColumn("locked_until", until).Error; err != nil {
				return err
			}
			lockedUntil = &until
		}
		return nil
	})
	if err != nil {
		return err
	}

	if lockedUntil != nil {
		return &AccountLockedError{Until: *lockedUntil}
	}
	return ErrInvalidCredentials
}

// clearExpiredLock resets an elapsed lockout before the credential is
// evaluated, exactly once per observation.
func (s *Service) clearExpiredLock(user *models.User, now time.Time) error {
	if user.LockedUntil == nil || user.LockedUntil.After(now) {
		return nil
	}

	if err := s.db.Model(user).Updates(map[string]interface{}{
		"locked_until":    nil,
		"failed_attempts": 0,
	}).Error; err != nil {
		return err
	}
	user.LockedUntil = nil
	user.FailedAttempts = 0
	return nil
}

type RefreshResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Service) Refresh(refreshToken string) (*RefreshResult, error) {
	claims := s.tokens.Decode(refreshToken)
	if claims == nil || claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if claims.Expired(time.Now()) {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	accessToken, err := s.tokens.IssueAccess(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.tokens.AccessExpirySeconds(),
	}, nil
}

func (s *Service) Logout(user *models.User) error {
	if err := s.db.Model(user).Update("refresh_token", nil).Error; err != nil {
		return err
	}

	s.audit.Record(&user.ID, "USER_LOGOUT", "User", &user.ID, nil)
	return nil
}

func (s *Service) VerifyEmail(token string) error {
	var user models.User
	if err := s.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"email_verified":     true,
		"verification_token": nil,
	}).Error; err != nil {
		return err
	}

	s.audit.Record(&user.ID, "EMAIL_VERIFIED", "User", &user.ID, nil)
	return nil
}

// RequestPasswordReset never discloses whether the account exists: the
// returned message is caller-visible either way. A recent unused token
// short-circuits the request so an attacker cannot flood an inbox.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	const genericMessage = "Si el email existe, recibirás un link de reseteo"

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return genericMessage, nil
		}
		return "", err
	}

	var recent models.PasswordReset
	cutoff := time.Now().Add(-s.cfg.ResetResendWindow)
	err := s.db.Where("user_id = ? AND used = ? AND created_at >= ?", user.ID, false, cutoff).
		First(&recent).Error
	if err == nil {
		return "Ya enviamos un email recientemente. Revisa tu bandeja de entrada", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     randomToken(),
		ExpiresAt: time.Now().Add(s.cfg.PasswordResetTTL),
		Used:      false,
	}
	if err := s.db.Create(&reset).Error; err != nil {
		return "", err
	}

	s.audit.Record(&user.ID, "PASSWORD_RESET_REQUESTED", "PasswordReset", &reset.ID, map[string]interface{}{
		"email": user.Email,
	})

	subject, body := mailer.PasswordResetEmail(s.cfg.FrontendURL, user.Username, reset.Token)
	if err := s.notifier.Send(user.Email, subject, body); err != nil {
		log.Printf("⚠️  Failed to send password reset email to %s: %v", user.Email, err)
	}

	return genericMessage, nil
}

func (s *Service) ConfirmPasswordReset(token, newPassword string) error {
	var reset models.PasswordReset
	err := s.db.Where("token = ? AND used = ? AND expires_at > ?", token, false, time.Now()).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpiredResetToken
		}
		return err
	}

	var user models.User
	if err := s.db.Where("id = ?", reset.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	// New password, consumed token, and a forced re-login everywhere.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password":      hashed,
			"refresh_token": nil,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(&user.ID, "PASSWORD_RESET_COMPLETED", "PasswordReset", &reset.ID, map[string]interface{}{
		"email": user.Email,
	})
	return nil
}

type ResetTokenStatus struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ValidateResetToken is a read-only pre-check for the frontend; it never
// mutates the token.
func (s *Service) ValidateResetToken(token string) (*ResetTokenStatus, error) {
	var reset models.PasswordReset
	if err := s.db.Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ResetTokenStatus{Valid: false, Reason: "not found"}, nil
		}
		return nil, err
	}

	if reset.Used {
		return &ResetTokenStatus{Valid: false, Reason: "already used"}, nil
	}
	if !reset.ExpiresAt.After(time.Now()) {
		return &ResetTokenStatus{Valid: false, Reason: "expired", ExpiresAt: &reset.ExpiresAt}, nil
	}

	return &ResetTokenStatus{Valid: true, ExpiresAt: &reset.ExpiresAt}, nil
}

// PurgeExpiredResetTokens is the admin maintenance sweep; expiry is
// otherwise evaluated lazily on access.
func (s *Service) PurgeExpiredResetTokens(actor *models.User) (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&models.PasswordReset{})
	if result.Error != nil {
		return 0, result.Error
	}

	s.audit.Record(&actor.ID, "PASSWORD_RESETS_CLEANED", "PasswordReset", nil, map[string]interface{}{
		"deleted_count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// generateUsername derives a unique username from the email local-part,
// appending 1, 2, ... on collision.
func (s *Service) generateUsername(email string) string {
	base := strings.SplitN(email, "@", 2)[0]

	username := base
	for counter := 1; ; counter++ {
		var existing models.User
		if err := s.db.Where("username = ?", username).First(&existing).Error; err != nil {
			return username
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failing means the process cannot run safely
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
