package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	BcryptRounds     int
	MaxLoginAttempts int
	AccountLockTime  time.Duration

	PasswordResetTTL    time.Duration
	ResetResendWindow   time.Duration
	EmailVerifyTokenTTL time.Duration

	EmailProvider string // "resend", "smtp" or "console"
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	FrontendURL   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "petcare"),

		SecretKey:       getEnv("SECRET_KEY", "test_secret_key_minimum_32_characters_long_for_testing_only"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,

		BcryptRounds:     getEnvInt("BCRYPT_ROUNDS", 12),
		MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		AccountLockTime:  time.Duration(getEnvInt("ACCOUNT_LOCK_MINUTES", 30)) * time.Minute,

		PasswordResetTTL:    time.Duration(getEnvInt("PASSWORD_RESET_EXPIRE_HOURS", 1)) * time.Hour,
		ResetResendWindow:   time.Duration(getEnvInt("PASSWORD_RESET_RESEND_MINUTES", 5)) * time.Minute,
		EmailVerifyTokenTTL: time.Duration(getEnvInt("EMAIL_VERIFICATION_EXPIRE_HOURS", 24)) * time.Hour,

		EmailProvider: getEnv("EMAIL_PROVIDER", "console"),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "onboarding@resend.dev"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Pet HealthCare"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
	}

	log.Println("✅ Config loaded")
	return cfg
}

// ValidateSecret rejects secrets unusable outside local development.
func (c *Config) ValidateSecret() error {
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY environment variable is required")
	}

	if len(c.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters long (current: %d)", len(c.SecretKey))
	}

	if c.SecretKey == "test_secret_key_minimum_32_characters_long_for_testing_only" {
		return fmt.Errorf("cannot use default test secret in production")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
