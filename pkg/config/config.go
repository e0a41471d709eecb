package config

import (
	"errors"
	"time"
)

// Chat definition chat_service YAML structure
type Chat struct {
	Port         string        `mapstructure:"port"`
	BodyLimit    int           `mapstructure:"body_limit"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`

	JWT      JWTConfig      `mapstructure:"jwt"`
	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// JWTConfig definition token signing setting
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
	Issuer string        `mapstructure:"issuer"`
}

// RedisConfig definition redis setting
// Addr 有值時直接連線, 否則走 .env 的 sentinel 設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	RedisDB  int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition asset bucket setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	PublicURL     string `mapstructure:"public_url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	BucketName    string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition audit event stream
type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// ErrMissingJWTSecret production run without jwt.secret
var ErrMissingJWTSecret = errors.New("jwt.secret is required in production")

// Validate reject setting that must not fall back to defaults
func (c *Chat) Validate() error {
	if IsProduction() && c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// ApplyDefaults fill zero value setting
func (c *Chat) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "3001"
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = 4 * 1024 * 1024
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 10 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.JWT.Expire <= 0 {
		c.JWT.Expire = 24 * time.Hour
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "chat_service"
	}
	if c.MinIO.BucketName == "" {
		c.MinIO.BucketName = "chat-assets"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "chat.delivery"
	}
}
