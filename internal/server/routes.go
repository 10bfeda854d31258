package server

import (
	"time"

	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(
	app *fiber.App,
	authService *auth.Service,
	authHandler *auth.Handler,
	googleHandler *auth.GoogleHandler,
	userHandler *user.Handler,
) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Pet HealthCare API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), authHandler.Login)
	authGroup.Post("/refresh", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 5 * time.Minute,
	}), authHandler.Refresh)
	authGroup.Post("/logout", authService.Protected(), authHandler.Logout)
	authGroup.Post("/verify-email", authHandler.VerifyEmail)
	authGroup.Get("/google/login", googleHandler.Login)
	authGroup.Get("/google/callback", googleHandler.Callback)

	// ==========================================
	// PASSWORD RESET
	// ==========================================
	authGroup.Post("/forgot-password", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Get("/reset-password/validate", authHandler.ValidateResetToken)

	// ==========================================
	// USER PROFILE
	// ==========================================
	userGroup := app.Group("/users")
	userGroup.Use(authService.Protected())
	userGroup.Get("/me", userHandler.Me)
	userGroup.Put("/me", userHandler.UpdateMe)
	userGroup.Put("/me/password", userHandler.ChangePassword)

	// ==========================================
	// ADMIN
	// ==========================================
	adminOnly := auth.RequireRole(models.RoleAdmin)
	userGroup.Get("/", adminOnly, userHandler.List)
	userGroup.Put("/:id", adminOnly, userHandler.UpdateUser)
	userGroup.Post("/:id/deactivate", adminOnly, userHandler.Deactivate)
	userGroup.Post("/:id/reactivate", adminOnly, userHandler.Reactivate)
	userGroup.Delete("/:id", adminOnly, userHandler.Delete)

	maintenanceGroup := app.Group("/password-resets")
	maintenanceGroup.Use(authService.Protected())
	maintenanceGroup.Post("/cleanup", adminOnly, authHandler.CleanupResetTokens)
}
