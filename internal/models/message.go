package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

// ConversationMessage is one entry of a user's conversation log.
// Seq is assigned by the database and breaks ties between equal CreatedAt values.
type ConversationMessage struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UserID    string    `gorm:"size:255;index;not null"`
	Role      Role      `gorm:"type:varchar(10);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}

// TableName keeps the table name stable regardless of the struct name.
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// BeforeCreate assigns the opaque identifier.
func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
