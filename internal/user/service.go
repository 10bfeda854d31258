package user

import (
	"errors"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/petcarehq/petcare/internal/audit"
	"github.com/petcarehq/petcare/internal/auth"
	"github.com/petcarehq/petcare/internal/config"
	"github.com/petcarehq/petcare/internal/models"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	hasher    *auth.Hasher
	audit     *audit.Recorder
	sanitizer *bluemonday.Policy
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		hasher:    auth.NewHasher(cfg.BcryptRounds),
		audit:     audit.NewRecorder(db),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

type UpdateInput struct {
	FullName *string
	Phone    *string
	Timezone *string
	Role     *string
}

// Update applies profile changes. Only an admin may change the role
// field, on any identity including their own; for everyone else the
// field is dropped silently.
func (s *Service) Update(actor *models.User, targetID uuid.UUID, in UpdateInput) (*models.User, error) {
	isAdmin := actor.Role == models.RoleAdmin
	if !isAdmin && actor.ID != targetID {
		return nil, auth.ErrInsufficientPermissions
	}

	var target models.User
	if err := s.db.Where("id = ?", targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = s.sanitizer.Sanitize(*in.FullName)
	}
	if in.Phone != nil {
		updates["phone"] = s.sanitizer.Sanitize(*in.Phone)
	}
	if in.Timezone != nil {
		updates["timezone"] = *in.Timezone
	}
	if in.Role != nil && isAdmin {
		if *in.Role != models.RoleUser && *in.Role != models.RoleAdmin {
			return nil, errors.New("unknown role")
		}
		updates["role"] = *in.Role
	}

	if len(updates) > 0 {
		if err := s.db.Model(&target).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	s.audit.Record(&actor.ID, "USER_UPDATED", "User", &target.ID, nil)
	return &target, nil
}

// ChangePassword requires the current password and forces re-login
// everywhere by clearing the stored refresh token.
func (s *Service) ChangePassword(actor *models.User, currentPassword, newPassword string) error {
	if !s.hasher.Verify(currentPassword, actor.Password) {
		return auth.ErrInvalidCredentials
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.Model(actor).Updates(map[string]interface{}{
		"password":      hashed,
		"refresh_token": nil,
	}).Error; err != nil {
		return err
	}

	s.audit.Record(&actor.ID, "PASSWORD_CHANGED", "User", &actor.ID, nil)
	return nil
}

func (s *Service) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (s *Service) SetActive(actor *models.User, targetID uuid.UUID, active bool) error {
	var target models.User
	if err := s.db.Where("id = ?", targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrUserNotFound
		}
		return err
	}

	if err := s.db.Model(&target).Update("is_active", active).Error; err != nil {
		return err
	}

	action := "USER_DEACTIVATED"
	if active {
		action = "USER_REACTIVATED"
	}
	s.audit.Record(&actor.ID, action, "User", &target.ID, nil)
	return nil
}

// Delete removes the identity and, by contract, its dependent password
// reset rows. The cascade is explicit here rather than left to a store
// trigger.
func (s *Service) Delete(actor *models.User, targetID uuid.UUID) error {
	var target models.User
	if err := s.db.Where("id = ?", targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrUserNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(&actor.ID, "USER_DELETED", "User", &target.ID, map[string]interface{}{
		"email": target.Email,
	})
	return nil
}
