package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey represents an issued credential. Only the hash of the key is stored.
type APIKey struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	HashedKey string    `gorm:"size:255;uniqueIndex;not null" json:"-"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name stable regardless of the struct name.
func (APIKey) TableName() string {
	return "api_keys"
}

// BeforeCreate assigns the primary key.
func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
