package auth

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/petcarehq/petcare/internal/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
		Timezone string `json:"timezone"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	user, err := h.svc.Register(RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Phone:    body.Phone,
		Timezone: body.Timezone,
	})
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Created(c, fiber.Map{
		"user": user,
	}, "Registration successful. Please verify your email")
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	pair, err := h.svc.Login(body.Email, body.Password)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, pair, "Login successful")
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.RefreshToken == "" {
		return response.ValidationError(c, map[string]string{
			"refresh_token": "refresh_token is required",
		})
	}

	result, err := h.svc.Refresh(body.RefreshToken)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, result, "Token refreshed successfully")
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	if err := h.svc.Logout(user); err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, fiber.Map{"user_id": user.ID}, "Logout successful")
}

func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Token == "" {
		return response.ValidationError(c, map[string]string{
			"token": "token is required",
		})
	}

	if err := h.svc.VerifyEmail(body.Token); err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, nil, "Email verified successfully")
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" {
		return response.ValidationError(c, map[string]string{
			"email": "email is required",
		})
	}

	message, err := h.svc.RequestPasswordReset(body.Email)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, nil, message)
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Token == "" || body.NewPassword == "" {
		return response.ValidationError(c, map[string]string{
			"token":        "token is required",
			"new_password": "new_password is required",
		})
	}

	if err := h.svc.ConfirmPasswordReset(body.Token, body.NewPassword); err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, nil, "Password reset successful")
}

func (h *Handler) ValidateResetToken(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return response.ValidationError(c, map[string]string{
			"token": "token is required",
		})
	}

	status, err := h.svc.ValidateResetToken(token)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, status, "")
}

// CleanupResetTokens is admin-only, gated in the route table.
func (h *Handler) CleanupResetTokens(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	deleted, err := h.svc.PurgeExpiredResetTokens(user)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, fiber.Map{"deleted_count": deleted}, "Expired reset tokens removed")
}

// respondAuthError maps the error taxonomy onto the response envelope.
// Anything outside the taxonomy is logged server-side and surfaced as a
// generic internal error.
func respondAuthError(c *fiber.Ctx, err error) error {
	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return response.Locked(c, locked.Error(), fiber.Map{
			"locked_until": locked.Until,
		})
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return response.Unauthorized(c, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrInvalidToken):
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or corrupted token")
	case errors.Is(err, ErrTokenExpired):
		return response.Unauthorized(c, "TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, ErrInactiveAccount):
		return response.Forbidden(c, "INACTIVE_ACCOUNT", "Account is inactive. Contact support")
	case errors.Is(err, ErrEmailNotVerified):
		return response.Forbidden(c, "EMAIL_NOT_VERIFIED", "You must verify your email before logging in")
	case errors.Is(err, ErrInsufficientPermissions):
		return response.Forbidden(c, "INSUFFICIENT_PERMISSIONS", "You don't have permission to perform this action")
	case errors.Is(err, ErrUserNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, ErrEmailTaken):
		return response.Conflict(c, "EMAIL_TAKEN", "A user with that email already exists")
	case errors.Is(err, ErrUsernameTaken):
		return response.Conflict(c, "USERNAME_TAKEN", "A user with that username already exists")
	case errors.Is(err, ErrInvalidOrExpiredResetToken):
		return response.BadRequest(c, "Invalid or expired token", nil)
	default:
		log.Printf("❌ auth: unexpected error: %v", err)
		return response.InternalError(c, "An unexpected error occurred")
	}
}
