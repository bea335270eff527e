package database

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awanllm/chat-gateway/internal/config"
	"github.com/awanllm/chat-gateway/internal/models"
)

func TestInitDB_SQLiteCreatesTables(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL:    "sqlite://" + filepath.Join(t.TempDir(), "gateway.db"),
		DBMaxOpenConns: 1,
	}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	assert.True(t, db.Migrator().HasTable(&models.ConversationMessage{}))
	assert.True(t, db.Migrator().HasTable(&models.APIKey{}))
	assert.True(t, db.Migrator().HasIndex(&models.ConversationMessage{}, "UserID"))

	// Running the migration again on an existing schema is a no-op.
	require.NoError(t, Migrate(db))
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor("sqlite:///tmp/x.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor("file:test.db?cache=shared")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor("postgres://postgres:postgres@db:5432/chatbot")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor("")
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	assert.Nil(t, InitRedis(&config.Config{}), "disabled when no host is configured")

	mr := miniredis.RunT(t)
	client := InitRedis(&config.Config{RedisHost: mr.Host(), RedisPort: mr.Port()})
	require.NotNil(t, client)
	t.Cleanup(func() { client.Close() })

	assert.Nil(t, InitRedis(&config.Config{RedisHost: "127.0.0.1", RedisPort: "1"}), "unreachable Redis disables caching")
}
