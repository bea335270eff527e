package auth

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/awanllm/chat-gateway/internal/models"
)

// IssueKey creates an active credential called name and returns the plain
// key. The plain key is not stored anywhere and cannot be recovered later.
func IssueKey(ctx context.Context, db *gorm.DB, name string) (string, *models.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("key name is required")
	}

	plain, hashed, err := GenerateKey()
	if err != nil {
		return "", nil, err
	}

	record := &models.APIKey{
		Name:      name,
		HashedKey: hashed,
		IsActive:  true,
	}
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return "", nil, fmt.Errorf("failed to store api key: %w", err)
	}
	return plain, record, nil
}

// RevokeKey marks the credential with the given name inactive.
func RevokeKey(ctx context.Context, db *gorm.DB, name string) error {
	result := db.WithContext(ctx).Model(&models.APIKey{}).
		Where("name = ? AND is_active = ?", name, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke api key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no active api key named %q", name)
	}
	return nil
}
