package user

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}
	return response.Success(c, user, "")
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	var body struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Timezone *string `json:"timezone"`
		Role     *string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	updated, err := h.svc.Update(user, user.ID, UpdateInput{
		FullName: body.FullName,
		Phone:    body.Phone,
		Timezone: body.Timezone,
		Role:     body.Role,
	})
	if err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, updated, "Profile updated")
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.CurrentPassword == "" || body.NewPassword == "" {
		return response.ValidationError(c, map[string]string{
			"current_password": "current_password is required",
			"new_password":     "new_password is required",
		})
	}

	if err := h.svc.ChangePassword(user, body.CurrentPassword, body.NewPassword); err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, nil, "Password changed successfully")
}

func (h *Handler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 100)

	users, err := h.svc.List(offset, limit)
	if err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, users, "")
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	actor := auth.CurrentUser(c)
	if actor == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id", nil)
	}

	var body struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Timezone *string `json:"timezone"`
		Role     *string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	updated, err := h.svc.Update(actor, targetID, UpdateInput{
		FullName: body.FullName,
		Phone:    body.Phone,
		Timezone: body.Timezone,
		Role:     body.Role,
	})
	if err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, updated, "User updated")
}

func (h *Handler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false, "User deactivated")
}

func (h *Handler) Reactivate(c *fiber.Ctx) error {
	return h.setActive(c, true, "User reactivated")
}

func (h *Handler) setActive(c *fiber.Ctx, active bool, message string) error {
	actor := auth.CurrentUser(c)
	if actor == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id", nil)
	}

	if err := h.svc.SetActive(actor, targetID, active); err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, nil, message)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	actor := auth.CurrentUser(c)
	if actor == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id", nil)
	}

	if err := h.svc.Delete(actor, targetID); err != nil {
		return respondUserError(c, err)
	}

	return response.Success(c, nil, "User deleted")
}

func respondUserError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return response.Unauthorized(c, "INVALID_CREDENTIALS", "Current password is incorrect")
	case errors.Is(err, auth.ErrInsufficientPermissions):
		return response.Forbidden(c, "INSUFFICIENT_PERMISSIONS", "You don't have permission to perform this action")
	default:
		log.Printf("❌ user: unexpected error: %v", err)
		return response.InternalError(c, "An unexpected error occurred")
	}
}
