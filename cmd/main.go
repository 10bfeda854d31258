package main

import (
	"log"
	"time"

	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/database"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/server"
)

func main() {
	cfg := config.Load()

	if err := cfg.ValidateSecret(); err != nil {
		log.Fatal("❌ JWT Configuration Error: ", err)
	}
	log.Println("✅ Secret key validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}
	log.Println("✅ Database migrated successfully")

	// ========== BACKGROUND JOBS ==========
	// Expiry is evaluated lazily on access; this sweep only keeps the
	// table from growing without bound.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			result := db.Where("expires_at < ?", time.Now()).Delete(&models.PasswordReset{})
			if result.RowsAffected > 0 {
				log.Printf("🧹 Cleaned up %d expired reset tokens", result.RowsAffected)
			}
		}
	}()

	// ========== START SERVER ==========
	app := server.New(db, cfg)

	log.Printf("🚀 Pet HealthCare API starting on %s", cfg.ServerAddr)
	log.Printf("🔐 JWT Authentication: Enabled")
	log.Printf("📧 Email provider: %s", cfg.EmailProvider)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
