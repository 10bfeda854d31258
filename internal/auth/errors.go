package auth

import (
	"errors"
	"fmt"
	"time"
)

// The session operations return these instead of leaking store errors to
// handlers. Login never distinguishes a wrong password from an unknown
// email, and a reset request never discloses whether the account exists.
var (
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrInactiveAccount            = errors.New("account is inactive")
	ErrEmailNotVerified           = errors.New("email address has not been verified")
	ErrInvalidToken               = errors.New("invalid or corrupted token")
	ErrTokenExpired               = errors.New("token has expired")
	ErrUserNotFound               = errors.New("user not found")
	ErrEmailTaken                 = errors.New("a user with that email already exists")
	ErrUsernameTaken              = errors.New("a user with that username already exists")
	ErrInsufficientPermissions    = errors.New("insufficient permissions for this action")
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
)

// AccountLockedError carries the lockout deadline so callers can surface it.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account temporarily locked until %s after repeated failed attempts", e.Until.Format(time.RFC3339))
}
