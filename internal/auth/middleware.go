package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/response"
	"gorm.io/gorm"
)

const localsUserKey = "current_user"

// Protected authenticates the bearer token and attaches the identity to
// the request context. Lockout expiry is cleared lazily here, the same
// way login does it.
func (s *Service) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format")
		}

		claims := s.tokens.Decode(tokenParts[1])
		if claims == nil || claims.Type != TokenTypeAccess {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or corrupted token")
		}

		now := time.Now()
		if claims.Expired(now) {
			return response.Unauthorized(c, "TOKEN_EXPIRED", "Token has expired")
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or corrupted token")
		}

		var user models.User
		if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NotFound(c, "User")
			}
			return response.InternalError(c, "Failed to load user")
		}

		if !user.IsActive {
			return response.Forbidden(c, "INACTIVE_ACCOUNT", "Account is inactive")
		}

		if user.Locked(now) {
			return response.Locked(c, "Account is temporarily locked", fiber.Map{
				"locked_until": user.LockedUntil,
			})
		}
		if err := s.clearExpiredLock(&user, now); err != nil {
			return response.InternalError(c, "Failed to load user")
		}

		c.Locals(localsUserKey, &user)
		return c.Next()
	}
}

// RequireRole gates a route on the attached identity's role. Must run
// after Protected.
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
		}

		for _, role := range allowedRoles {
			if user.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "INSUFFICIENT_PERMISSIONS", "You don't have permission to access this resource")
	}
}

// CurrentUser returns the identity attached by Protected, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUserKey).(*models.User)
	return user
}
