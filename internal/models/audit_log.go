package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is append-only; nothing in this service queries it back.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ActorUserID *uuid.UUID     `gorm:"type:uuid;index" json:"actor_user_id,omitempty"`
	Action      string         `gorm:"size:100;not null" json:"action"`
	ObjectType  string         `gorm:"size:100" json:"object_type,omitempty"`
	ObjectID    *uuid.UUID     `gorm:"type:uuid" json:"object_id,omitempty"`
	Meta        datatypes.JSON `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
