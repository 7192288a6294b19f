package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/linemk/inventory-system/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_test_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

// clearEnv убирает переменные на время теста; t.Setenv вернёт прежние значения
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

var overridable = []string{"ENV", "HOST", "PORT", "DATABASE_URL", "SESSION_TTL", "SESSION_SECURE_COOKIE", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_TOPIC", "MIGRATIONS_PATH"}

func TestMustLoadByPath_Success(t *testing.T) {
	clearEnv(t, overridable...)
	// Устанавливаем обязательные переменные окружения
	t.Setenv("DB_PASSWORD", "mypassword")
	t.Setenv("SECRET_KEY", "mysecret")

	path := writeConfig(t, `
env: "local"
http_server:
  host: "localhost"
  port: 8080
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "db"
  port: 5432
  user: "postgres"
  name: "inventory"
session:
  ttl: "2h"
redis:
  addr: "redis:6379"
kafka:
  brokers: ["kafka:9092"]
migrations:
  path: "./migrations"
`)

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address())
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, "postgres://postgres:mypassword@db:5432/inventory?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "mysecret", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "inventory_session", cfg.Session.CookieName)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "inventory.order.committed", cfg.Kafka.Topic)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
}

func TestLoadEnv_Defaults(t *testing.T) {
	clearEnv(t, overridable...)
	t.Setenv("SECRET_KEY", "mysecret")
	t.Setenv("DATABASE_URL", "postgres://u:p@host:5432/db")
	t.Setenv("PORT", "9000")

	cfg, err := config.LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPServer.Address())
	assert.Equal(t, "postgres://u:p@host:5432/db", cfg.Database.DSN())
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.SecureCookie)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnv_KafkaBrokersList(t *testing.T) {
	clearEnv(t, overridable...)
	t.Setenv("SECRET_KEY", "mysecret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnv_SecretRequired(t *testing.T) {
	clearEnv(t, "SECRET_KEY")

	_, err := config.LoadEnv()
	assert.Error(t, err)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// Ожидаем панику, если файла не существует
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}

func TestLoadMigrator_NoSecretNeeded(t *testing.T) {
	clearEnv(t, append(overridable, "SECRET_KEY", "CONFIG_PATH", "DB_PASSWORD")...)
	t.Setenv("MIGRATIONS_PATH", "/srv/migrations")

	cfg, err := config.LoadMigrator("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/migrations", cfg.Migrations.Path)
	assert.Equal(t, "postgres://postgres:@localhost:5432/inventory?sslmode=disable", cfg.Database.DSN())
}
