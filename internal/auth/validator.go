package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/models"
)

// ErrInvalidKey is wrapped by the Unauthorized error returned for unknown or
// inactive credentials.
var ErrInvalidKey = errors.New("invalid api key")

// Validator checks presented credentials against the api_keys table.
// Successful lookups are cached in Redis when a client is configured.
type Validator struct {
	db          *gorm.DB
	redisClient *redis.Client
	cacheTTL    time.Duration
}

// NewValidator creates a Validator. redisClient may be nil.
func NewValidator(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration) *Validator {
	return &Validator{db: db, redisClient: redisClient, cacheTTL: cacheTTL}
}

// Validate returns (nil, nil) when no credential is presented; whether that
// is acceptable is the caller's policy. A presented credential that does not
// match an active record fails with an Unauthorized error.
func (v *Validator) Validate(ctx context.Context, presented string) (*models.APIKey, error) {
	if presented == "" {
		return nil, nil
	}

	hashed := HashKey(presented)
	if record := v.cached(ctx, hashed); record != nil {
		return record, nil
	}

	var record models.APIKey
	err := v.db.WithContext(ctx).
		Where("hashed_key = ? AND is_active = ?", hashed, true).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindUnauthorized, ErrInvalidKey, "Invalid API key")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, err, "failed to look up api key")
	}

	v.cache(ctx, hashed, &record)
	return &record, nil
}

func cacheKey(hashed string) string {
	return fmt.Sprintf("apikey:%s", hashed)
}

func (v *Validator) cached(ctx context.Context, hashed string) *models.APIKey {
	if v.redisClient == nil {
		return nil
	}
	raw, err := v.redisClient.Get(ctx, cacheKey(hashed)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to read api key cache: %v", err)
		}
		return nil
	}
	var record models.APIKey
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Printf("Failed to decode cached api key: %v", err)
		return nil
	}
	record.HashedKey = hashed
	return &record
}

func (v *Validator) cache(ctx context.Context, hashed string, record *models.APIKey) {
	if v.redisClient == nil || v.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		log.Printf("Failed to marshal api key for cache: %v", err)
		return
	}
	if err := v.redisClient.Set(ctx, cacheKey(hashed), payload, v.cacheTTL).Err(); err != nil {
		log.Printf("Failed to cache api key: %v", err)
	}
}
