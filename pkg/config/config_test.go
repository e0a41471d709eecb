package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
port: "4000"
ping_interval: 30s
jwt:
  secret: ${CHAT_TEST_SECRET}
mongo:
  host: mongo
  port: 27017
  retry_interval: 2
kafka:
  enabled: true
  brokers:
    - broker-1:9092
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_test.yaml"), []byte(testYAML), 0o600))
	t.Setenv("CHAT_TEST_SECRET", "s3cret")

	cfg, err := LoadConfig[Chat]("chat_test", dir)
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "mongo", cfg.MongoSQL.Host)
	assert.Equal(t, 2, cfg.MongoSQL.RetryInterval)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker-1:9092"}, cfg.Kafka.Brokers)

	cfg.ApplyDefaults()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "chat-assets", cfg.MinIO.BucketName)
	assert.Equal(t, "chat.delivery", cfg.Kafka.Topic)
	// 已設定的值不被覆蓋
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig[Chat]("nope", t.TempDir())
	assert.Error(t, err)
}

func TestGetRedisSetting(t *testing.T) {
	t.Setenv("REDIS_MASTER_NAME", "chat-master")
	t.Setenv("REDIS_SENTINEL9_IP", "10.0.0.9")
	t.Setenv("REDIS_SENTINEL9_PORT", "26379")

	master, addrs := GetRedisSetting()
	assert.Equal(t, "chat-master", master)
	assert.Contains(t, addrs, "10.0.0.9:26379")
}

func TestGetPath(t *testing.T) {
	_, err := GetPath("definitely-missing.file", 2)
	assert.Error(t, err)

	p, err := GetPath("config.go", 1)
	require.NoError(t, err)
	assert.Equal(t, "./config.go", p)
}

func TestChatValidate(t *testing.T) {
	prev := env
	t.Cleanup(func() { env = prev })

	env = "local"
	assert.NoError(t, (&Chat{}).Validate())

	env = "production"
	assert.ErrorIs(t, (&Chat{}).Validate(), ErrMissingJWTSecret)
	assert.NoError(t, (&Chat{JWT: JWTConfig{Secret: "s3cret"}}).Validate())
}
