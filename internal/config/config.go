package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Identity IdentityConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Poll     PollConfig
	Download DownloadConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type APIConfig struct {
	BaseURL string
	Timeout int // seconds
}

type IdentityConfig struct {
	BaseURL        string
	Issuer         string
	ClientID       string
	IdentityPoolID string
}

type StorageConfig struct {
	BucketName string
	Endpoint   string
	Region     string
}

type UploadConfig struct {
	MaxBytes         int64
	AllowedExtension string
}

type PollConfig struct {
	IntervalMillis int
}

type DownloadConfig struct {
	TTLMinutes int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("IDENTITY_CLIENT_ID")
	readSecret("IDENTITY_POOL_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("api.base_url", "API_BASE_URL")
	_ = viper.BindEnv("api.timeout", "API_TIMEOUT")
	_ = viper.BindEnv("identity.base_url", "IDENTITY_BASE_URL")
	_ = viper.BindEnv("identity.issuer", "IDENTITY_ISSUER")
	_ = viper.BindEnv("identity.client_id", "IDENTITY_CLIENT_ID")
	_ = viper.BindEnv("identity.pool_id", "IDENTITY_POOL_ID")
	_ = viper.BindEnv("storage.bucket_name", "STORAGE_BUCKET_NAME")
	_ = viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	_ = viper.BindEnv("storage.region", "STORAGE_REGION")
	_ = viper.BindEnv("upload.max_bytes", "UPLOAD_MAX_BYTES")
	_ = viper.BindEnv("upload.allowed_extension", "UPLOAD_ALLOWED_EXTENSION")
	_ = viper.BindEnv("poll.interval_ms", "POLL_INTERVAL_MS")
	_ = viper.BindEnv("download.ttl_minutes", "DOWNLOAD_TTL_MINUTES")

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("upload.max_bytes", 5*1024*1024)
	viper.SetDefault("upload.allowed_extension", ".txt")
	viper.SetDefault("poll.interval_ms", 4000)
	viper.SetDefault("download.ttl_minutes", 15)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		API: APIConfig{
			BaseURL: viper.GetString("api.base_url"),
			Timeout: viper.GetInt("api.timeout"),
		},
		Identity: IdentityConfig{
			BaseURL:        viper.GetString("identity.base_url"),
			Issuer:         viper.GetString("identity.issuer"),
			ClientID:       viper.GetString("identity.client_id"),
			IdentityPoolID: viper.GetString("identity.pool_id"),
		},
		Storage: StorageConfig{
			BucketName: viper.GetString("storage.bucket_name"),
			Endpoint:   viper.GetString("storage.endpoint"),
			Region:     viper.GetString("storage.region"),
		},
		Upload: UploadConfig{
			MaxBytes:         viper.GetInt64("upload.max_bytes"),
			AllowedExtension: viper.GetString("upload.allowed_extension"),
		},
		Poll: PollConfig{
			IntervalMillis: viper.GetInt("poll.interval_ms"),
		},
		Download: DownloadConfig{
			TTLMinutes: viper.GetInt("download.ttl_minutes"),
		},
	}

	return cfg, nil
}
