package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/awanllm/chat-gateway/internal/models"
)

// CachedStore serves FetchRecent from Redis and drops the user's cached
// windows on every write. Each write also bumps a per-user version; a reader
// fills the cache only if the version it saw before reading the database is
// still current, so a result read before a concurrent write is never cached.
type CachedStore struct {
	next        Store
	redisClient *redis.Client
	ttl         time.Duration
}

// NewCachedStore wraps next. A nil redisClient returns next unchanged.
func NewCachedStore(next Store, redisClient *redis.Client, ttl time.Duration) Store {
	if redisClient == nil || ttl <= 0 {
		return next
	}
	return &CachedStore{next: next, redisClient: redisClient, ttl: ttl}
}

// errStaleRead aborts a cache fill whose database read predates a write.
var errStaleRead = errors.New("history changed during read")

type cachedMessage struct {
	Seq       uint64    `json:"seq"`
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:%s", userID)
}

func versionKey(userID string) string {
	return fmt.Sprintf("history_version:%s", userID)
}

func (s *CachedStore) Append(ctx context.Context, userID string, role models.Role, content string) error {
	if err := s.next.Append(ctx, userID, role, content); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CachedStore) Prune(ctx context.Context, userID string, maxMessages int) error {
	if err := s.next.Prune(ctx, userID, maxMessages); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CachedStore) FetchRecent(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error) {
	if messages, ok := s.lookup(ctx, userID, limit); ok {
		return messages, nil
	}

	version, versionErr := s.version(ctx, userID)

	messages, err := s.next.FetchRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if versionErr == nil {
		s.store(ctx, userID, limit, version, messages)
	}
	return messages, nil
}

func (s *CachedStore) lookup(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, bool) {
	raw, err := s.redisClient.HGet(ctx, historyKey(userID), strconv.Itoa(limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to get messages from cache: %v", err)
		}
		return nil, false
	}

	var cached []cachedMessage
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Printf("Failed to unmarshal cached messages: %v", err)
		return nil, false
	}

	messages := make([]models.ConversationMessage, 0, len(cached))
	for _, c := range cached {
		role, err := models.ParseRole(c.Role)
		if err != nil {
			log.Printf("Discarding cached messages for user %s: %v", userID, err)
			return nil, false
		}
		msg := models.ConversationMessage{
			Seq:       c.Seq,
			UserID:    userID,
			Role:      role,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		}
		// A malformed id only loses the opaque identifier, not the message.
		_ = msg.ID.UnmarshalText([]byte(c.ID))
		messages = append(messages, msg)
	}
	return messages, true
}

// version returns the user's write counter; a missing key reads as zero.
func (s *CachedStore) version(ctx context.Context, userID string) (int64, error) {
	version, err := s.redisClient.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		log.Printf("Failed to read history version: %v", err)
		return 0, err
	}
	return version, nil
}

// store caches messages unless the user's version moved past seen.
func (s *CachedStore) store(ctx context.Context, userID string, limit int, seen int64, messages []models.ConversationMessage) {
	cached := make([]cachedMessage, 0, len(messages))
	for _, msg := range messages {
		cached = append(cached, cachedMessage{
			Seq:       msg.Seq,
			ID:        msg.ID.String(),
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		log.Printf("Failed to marshal messages for cache: %v", err)
		return
	}

	key := historyKey(userID)
	verKey := versionKey(userID)
	err = s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != seen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, strconv.Itoa(limit), payload)
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		return err
	}, verKey)
	switch {
	case err == nil, errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("Failed to cache messages: %v", err)
	}
}

// invalidate bumps the user's version and drops every cached window.
func (s *CachedStore) invalidate(ctx context.Context, userID string) {
	verKey := versionKey(userID)
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, s.ttl)
		pipe.Del(ctx, historyKey(userID))
		return nil
	})
	if err != nil {
		log.Printf("Failed to invalidate cached messages: %v", err)
	}
}
