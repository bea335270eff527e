package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.APIKey{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestHashKey_Deterministic(t *testing.T) {
	assert.Equal(t, HashKey("secret"), HashKey("secret"))
	assert.NotEqual(t, HashKey("secret"), HashKey("Secret"))
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashKey("abc"))
	assert.Len(t, HashKey(""), 64)
}

func TestGenerateKey(t *testing.T) {
	plain, hashed, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, plain, 43)
	assert.Equal(t, HashKey(plain), hashed)

	other, _, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, plain, other)
}

func TestValidate_Anonymous(t *testing.T) {
	v := NewValidator(testDB(t), nil, 0)
	record, err := v.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestValidate_IssuedKey(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	plain, issued, err := IssueKey(ctx, db, "ci-bot")
	require.NoError(t, err)

	v := NewValidator(db, nil, 0)
	record, err := v.Validate(ctx, plain)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, issued.ID, record.ID)
	assert.Equal(t, "ci-bot", record.Name)
}

func TestValidate_NeverIssuedKeyIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	_, _, err := IssueKey(ctx, db, "ci-bot")
	require.NoError(t, err)

	random, _, err := GenerateKey()
	require.NoError(t, err)

	_, err = NewValidator(db, nil, 0).Validate(ctx, random)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidate_RevokedKeyIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	plain, _, err := IssueKey(ctx, db, "old")
	require.NoError(t, err)
	require.NoError(t, RevokeKey(ctx, db, "old"))

	_, err = NewValidator(db, nil, 0).Validate(ctx, plain)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	assert.Error(t, RevokeKey(ctx, db, "old"), "revoking twice reports no active key")
}

func TestIssueKey_RequiresName(t *testing.T) {
	_, _, err := IssueKey(context.Background(), testDB(t), "  ")
	assert.Error(t, err)
}

func TestValidate_UsesRedisCache(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	plain, issued, err := IssueKey(ctx, db, "cached")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	v := NewValidator(db, client, time.Minute)
	_, err = v.Validate(ctx, plain)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey(HashKey(plain))))

	// Served from the cache even though the row is gone.
	require.NoError(t, db.Where("id = ?", issued.ID).Delete(&models.APIKey{}).Error)
	record, err := v.Validate(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, record.ID)

	mr.FastForward(2 * time.Minute)
	_, err = v.Validate(ctx, plain)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
