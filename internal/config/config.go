package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const configFilePath = "./config.yaml"

type Config struct {
	AppEnv      string
	Port        int
	LogLevel    string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	SnapshotInterval time.Duration

	Database DatabaseConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// StorageConfig points at an R2 (S3-compatible) bucket for snapshots.
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (outside production), an optional config.yaml and the
// process environment, in increasing order of precedence.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("snapshot_interval", "15m")

	if _, err := os.Stat(configFilePath); err == nil {
		v.SetConfigFile(configFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New("failed to read config file " + configFilePath)
		}
	}

	cfg := &Config{
		AppEnv:      v.GetString("app_env"),
		Port:        v.GetInt("port"),
		LogLevel:    v.GetString("log_level"),
		JWTSecret:   v.GetString("jwt_secret"),
		TokenTTL:    v.GetDuration("token_ttl"),
		CORSOrigins: splitList(v.GetString("cors_origins")),

		SnapshotInterval: v.GetDuration("snapshot_interval"),
		Database: DatabaseConfig{
			URL:      v.GetString("database_url"),
			MaxConns: v.GetInt32("db.max_conns"),
			MinConns: v.GetInt32("db.min_conns"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("r2.endpoint"),
			AccessKey:     v.GetString("r2.access_key"),
			SecretKey:     v.GetString("r2.secret_key"),
			Bucket:        v.GetString("r2.bucket_name"),
			PublicBaseURL: v.GetString("r2.public_base_url"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT must be between 1 and 65535")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.SnapshotInterval <= 0 {
		return errors.New("SNAPSHOT_INTERVAL must be positive")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}

	s := c.Storage
	if s.Enabled() && (s.Endpoint == "" || s.AccessKey == "" || s.SecretKey == "") {
		return errors.New("R2_BUCKET_NAME set without R2_ENDPOINT, R2_ACCESS_KEY and R2_SECRET_KEY")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
