package audit

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/petcarehq/petcare/internal/models"
	"gorm.io/gorm"
)

// Recorder appends audit rows after state-changing session operations.
// A failed append is logged and swallowed; auditing never fails the
// operation it describes.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(actorID *uuid.UUID, action, objectType string, objectID *uuid.UUID, meta map[string]interface{}) {
	entry := models.AuditLog{
		ActorUserID: actorID,
		Action:      action,
		ObjectType:  objectType,
		ObjectID:    objectID,
	}

	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			log.Printf("⚠️  audit: failed to encode meta for %s: %v", action, err)
		} else {
			entry.Meta = raw
		}
	}

	if err := r.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️  audit: failed to record %s: %v", action, err)
	}
}
