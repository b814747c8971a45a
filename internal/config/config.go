package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Vision VisionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for sheet image storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// VisionConfig holds settings for the vision model used for mark extraction.
// It is passed explicitly to the region processor at construction; nothing in
// the pipeline reads the environment directly.
type VisionConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the OMRSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OMRSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "omrscan")
	v.SetDefault("db.password", "omrscan_secret")
	v.SetDefault("db.name", "omrscan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "omrscan-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (Vite dev server origins)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000,http://127.0.0.1:3000")

	// Vision defaults
	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.default_model", "gemini-2.0-flash")
	v.SetDefault("vision.timeout_secs", 120)
	v.SetDefault("vision.concurrency", 5)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":           "OMRSCAN_SERVER_PORT",
		"server.read_timeout":   "OMRSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":  "OMRSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":    "OMRSCAN_SERVER_ENVIRONMENT",
		"db.host":               "OMRSCAN_DB_HOST",
		"db.port":               "OMRSCAN_DB_PORT",
		"db.user":               "OMRSCAN_DB_USER",
		"db.password":           "OMRSCAN_DB_PASSWORD",
		"db.name":               "OMRSCAN_DB_NAME",
		"db.sslmode":            "OMRSCAN_DB_SSLMODE",
		"db.max_open":           "OMRSCAN_DB_MAX_OPEN",
		"db.max_idle":           "OMRSCAN_DB_MAX_IDLE",
		"s3.region":             "OMRSCAN_S3_REGION",
		"s3.bucket":             "OMRSCAN_S3_BUCKET",
		"s3.endpoint":           "OMRSCAN_S3_ENDPOINT",
		"s3.access_key":         "OMRSCAN_S3_ACCESS_KEY",
		"s3.secret_key":         "OMRSCAN_S3_SECRET_KEY",
		"s3.max_file_size_mb":   "OMRSCAN_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":     "OMRSCAN_S3_PRESIGN_EXPIRY",
		"log.level":             "OMRSCAN_LOG_LEVEL",
		"log.format":            "OMRSCAN_LOG_FORMAT",
		"cors.allowed_origins":  "OMRSCAN_CORS_ALLOWED_ORIGINS",
		"vision.provider":       "OMRSCAN_VISION_PROVIDER",
		"vision.api_key":        "OMRSCAN_VISION_API_KEY",
		"vision.default_model":  "OMRSCAN_VISION_DEFAULT_MODEL",
		"vision.timeout_secs":   "OMRSCAN_VISION_TIMEOUT_SECS",
		"vision.concurrency":    "OMRSCAN_VISION_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if OMRSCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("OMRSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Vision = VisionConfig{
		Provider:     v.GetString("vision.provider"),
		APIKey:       v.GetString("vision.api_key"),
		DefaultModel: v.GetString("vision.default_model"),
		TimeoutSecs:  v.GetInt("vision.timeout_secs"),
		Concurrency:  v.GetInt("vision.concurrency"),
	}

	return cfg, nil
}
