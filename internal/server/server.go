package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/mailer"
	"github.com/petcarehq/petcare/internal/user"
	"gorm.io/gorm"
)

func New(db *gorm.DB, cfg *config.Config) *fiber.App {
	return NewWithNotifier(db, cfg, mailer.New(cfg))
}

// NewWithNotifier lets tests swap in a capturing notifier.
func NewWithNotifier(db *gorm.DB, cfg *config.Config, notifier mailer.Notifier) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	authService := auth.NewService(db, cfg, notifier)
	authHandler := auth.NewHandler(authService)
	googleHandler := auth.NewGoogleHandler(authService, cfg)
	userHandler := user.NewHandler(user.NewService(db, cfg))

	SetupRoutes(app, authService, authHandler, googleHandler, userHandler)

	return app
}
