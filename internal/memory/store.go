// Package memory keeps the bounded per-user conversation log.
package memory

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/models"
)

// Store is the conversation log. Every operation is scoped to one user.
type Store interface {
	// Append durably records one message.
	Append(ctx context.Context, userID string, role models.Role, content string) error
	// FetchRecent returns the newest limit messages, oldest first.
	FetchRecent(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error)
	// Prune deletes everything but the newest maxMessages messages.
	Prune(ctx context.Context, userID string, maxMessages int) error
}

// GormStore is a Store on top of a gorm connection pool.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Append(ctx context.Context, userID string, role models.Role, content string) error {
	message := models.ConversationMessage{
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "failed to save message")
	}
	return nil
}

// FetchRecent reads newest-first so the LIMIT bounds the query, then reverses.
func (s *GormStore) FetchRecent(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error) {
	if limit <= 0 {
		return []models.ConversationMessage{}, nil
	}

	var messages []models.ConversationMessage
	err := newestFirst(s.db.WithContext(ctx).Where("user_id = ?", userID)).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, err, "failed to fetch chat history")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Prune ranks the user's messages as they are at call time and deletes the
// ones outside the window. Rows appended after the ranking query are never
// in the delete set.
func (s *GormStore) Prune(ctx context.Context, userID string, maxMessages int) error {
	if maxMessages < 0 {
		maxMessages = 0
	}

	var ranked []uint64
	err := newestFirst(s.db.WithContext(ctx).Model(&models.ConversationMessage{}).Where("user_id = ?", userID)).
		Pluck("seq", &ranked).Error
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "failed to rank chat history")
	}
	if len(ranked) <= maxMessages {
		return nil
	}
	stale := ranked[maxMessages:]

	err = s.db.WithContext(ctx).
		Where("user_id = ? AND seq IN ?", userID, stale).
		Delete(&models.ConversationMessage{}).Error
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "failed to prune chat history")
	}
	return nil
}

func newestFirst(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at DESC").Order("seq DESC")
}
