package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/models"
	"github.com/petcarehq/petcare/internal/response"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleHandler implements the OAuth login alternative. Accounts created
// this way are email-verified by construction and carry
// auth_provider=google.
type GoogleHandler struct {
	svc    *Service
	oauth  *oauth2.Config
	states map[string]time.Time
	mu     sync.Mutex
}

func NewGoogleHandler(svc *Service, cfg *config.Config) *GoogleHandler {
	return &GoogleHandler{
		svc: svc,
		oauth: &oauth2.Config{
			RedirectURL:  cfg.GoogleRedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		states: make(map[string]time.Time),
	}
}

func (g *GoogleHandler) Login(c *fiber.Ctx) error {
	state := generateState()
	g.storeState(state)
	return c.Redirect(g.oauth.AuthCodeURL(state))
}

func (g *GoogleHandler) Callback(c *fiber.Ctx) error {
	if !g.validateState(c.Query("state")) {
		return response.BadRequest(c, "Invalid state parameter", nil)
	}

	token, err := g.oauth.Exchange(context.Background(), c.Query("code"))
	if err != nil {
		return response.InternalError(c, "Failed to exchange token")
	}

	client := g.oauth.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return response.InternalError(c, "Failed to get user info")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var userData struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &userData); err != nil || userData.Email == "" {
		return response.InternalError(c, "Failed to get user info")
	}

	user, err := g.svc.loginWithGoogle(userData.Email, userData.Name)
	if err != nil {
		return respondAuthError(c, err)
	}

	pair, err := g.svc.issueSession(user)
	if err != nil {
		return respondAuthError(c, err)
	}

	return response.Success(c, fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	}, "Login successful")
}

// loginWithGoogle resolves or provisions the identity for a Google email.
func (s *Service) loginWithGoogle(email, name string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.IsActive {
			return nil, ErrInactiveAccount
		}
		if user.Locked(time.Now()) {
			return nil, &AccountLockedError{Until: *user.LockedUntil}
		}
		return &user, nil
	}

	// First sight of this email: provision a verified account with an
	// unguessable local credential.
	hashed, err := s.hasher.Hash(randomToken())
	if err != nil {
		return nil, err
	}

	user = models.User{
		Username:      s.generateUsername(email),
		Email:         email,
		Password:      hashed,
		FullName:      name,
		Timezone:      "UTC",
		Role:          models.RoleUser,
		AuthProvider:  "google",
		EmailVerified: true,
		IsActive:      true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	s.audit.Record(&user.ID, "USER_REGISTERED", "User", &user.ID, map[string]interface{}{
		"email":    user.Email,
		"username": user.Username,
		"provider": "google",
	})

	return &user, nil
}

// issueSession mints and persists a fresh token pair for an already
// authenticated identity.
func (s *Service) issueSession(user *models.User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefresh(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"refresh_token": refreshToken,
		"last_login_at": now,
	}).Error; err != nil {
		return nil, err
	}

	s.audit.Record(&user.ID, "USER_LOGIN", "User", &user.ID, map[string]interface{}{
		"email":    user.Email,
		"provider": user.AuthProvider,
	})

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.tokens.AccessExpirySeconds(),
	}, nil
}

func generateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

func (g *GoogleHandler) storeState(state string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[state] = time.Now().Add(5 * time.Minute)

	for k, v := range g.states {
		if time.Now().After(v) {
			delete(g.states, k)
		}
	}
}

func (g *GoogleHandler) validateState(state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.states[state]
	if !exists || time.Now().After(expiry) {
		return false
	}
	delete(g.states, state)
	return true
}
