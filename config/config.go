// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	FilesLocal = "local"
	FilesS3    = "s3"
)

// EnvConfigFile names the config file when --config is not given.
const EnvConfigFile = "ZAWAMIS_CONFIG"

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`

	StoreDriver       string        `yaml:"store_driver"`
	MongoURI          string        `yaml:"mongo_uri"`
	MongoDatabase     string        `yaml:"mongo_database"`
	MongoTransactions bool          `yaml:"mongo_transactions"`
	PostgresDSN       string        `yaml:"postgres_dsn"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxIdle     time.Duration `yaml:"db_conn_max_idle"`
	DBConnMaxLife     time.Duration `yaml:"db_conn_max_life"`

	FileStorage       string `yaml:"file_storage"`
	MediaRoot         string `yaml:"media_root"`
	MediaURL          string `yaml:"media_url"`
	S3Bucket          string `yaml:"s3_bucket"`
	S3Region          string `yaml:"s3_region"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	S3PublicURL       string `yaml:"s3_public_url"`
	MaxUploadSize     int64  `yaml:"max_upload_size"`

	PasswordScheme     string   `yaml:"password_scheme"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	LoginRateLimit  int           `yaml:"login_rate_limit"`
	LoginRateWindow time.Duration `yaml:"login_rate_window"`
	// TrustProxyHeaders makes X-Forwarded-For the client address for rate
	// limiting. Enable only behind a proxy that sets the header.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// Default returns the settings used when neither file nor environment say
// otherwise.
func Default() *Config {
	return &Config{
		HTTPAddr:           "0.0.0.0:8081",
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		LogLevel:           "info",
		StoreDriver:        StoreMemory,
		MongoDatabase:      "zawamis",
		DBMaxOpenConns:     25,
		DBMaxIdleConns:     10,
		DBConnMaxIdle:      5 * time.Minute,
		DBConnMaxLife:      30 * time.Minute,
		FileStorage:        FilesLocal,
		MediaRoot:          "media",
		MediaURL:           "/media/",
		MaxUploadSize:      10 * 1024 * 1024,
		PasswordScheme:     "sha256",
		CORSAllowedOrigins: []string{"*"},
		LoginRateLimit:     10,
		LoginRateWindow:    time.Minute,
	}
}

// Load reads path (or $ZAWAMIS_CONFIG when path is empty) on top of the
// defaults, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.RequestTimeout = getDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.MongoTransactions = getBool("MONGO_TRANSACTIONS", c.MongoTransactions)
	c.PostgresDSN = getEnv("DATABASE_URL", c.PostgresDSN)
	c.DBMaxOpenConns = getInt("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.DBMaxIdleConns = getInt("DB_MAX_IDLE_CONNS", c.DBMaxIdleConns)
	c.DBConnMaxIdle = getDuration("DB_CONN_MAX_IDLE", c.DBConnMaxIdle)
	c.DBConnMaxLife = getDuration("DB_CONN_MAX_LIFE", c.DBConnMaxLife)

	c.FileStorage = getEnv("FILE_STORAGE", c.FileStorage)
	c.MediaRoot = getEnv("MEDIA_ROOT", c.MediaRoot)
	c.MediaURL = getEnv("MEDIA_URL", c.MediaURL)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.S3AccessKeyID)
	c.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", c.S3SecretAccessKey)
	c.S3PublicURL = getEnv("S3_PUBLIC_URL", c.S3PublicURL)
	c.MaxUploadSize = int64(getInt("MAX_UPLOAD_SIZE", int(c.MaxUploadSize)))

	c.PasswordScheme = getEnv("PASSWORD_SCHEME", c.PasswordScheme)
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSAllowedOrigins = splitList(v)
	}

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getInt("REDIS_DB", c.RedisDB)
	c.LoginRateLimit = getInt("LOGIN_RATE_LIMIT", c.LoginRateLimit)
	c.LoginRateWindow = getDuration("LOGIN_RATE_WINDOW", c.LoginRateWindow)
	c.TrustProxyHeaders = getBool("TRUST_PROXY_HEADERS", c.TrustProxyHeaders)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.FileStorage {
	case FilesLocal:
		if c.MediaRoot == "" {
			return errors.New("MEDIA_ROOT is required for local file storage")
		}
		if !strings.HasPrefix(c.MediaURL, "/") {
			return fmt.Errorf("MEDIA_URL %q must be an absolute path", c.MediaURL)
		}
	case FilesS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 file storage")
		}
	default:
		return fmt.Errorf("unknown file storage %q", c.FileStorage)
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	if c.LoginRateLimit > 0 && c.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_WINDOW must be positive when rate limiting is on")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level is the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
