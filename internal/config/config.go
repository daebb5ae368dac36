// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Storage    StorageConfig
	Processing ProcessingConfig
	Database   DatabaseConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig holds the S3-compatible bucket connection info.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type ProcessingConfig struct {
	PollTimeoutSeconds  int
	PollIntervalSeconds int
	LinkExpirySeconds   int
	InputSuffix         string
	OutputSuffix        string
	ScratchDir          string
	MaxConcurrentJobs   int
}

// DatabaseConfig is only consulted when job history is enabled.
type DatabaseConfig struct {
	Enabled  bool
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the process-wide configuration once. Later calls return the
// same instance; there is no hot reload.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)
		v.AutomaticEnv()

		instance = FromViper(v)
	})

	return instance
}

// SetDefaults registers the default value of every recognised variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_MODE", "release")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("S3_ENDPOINT", "s3.amazonaws.com")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_BUCKET_NAME", "")
	v.SetDefault("AWS_DEFAULT_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")

	v.SetDefault("POLL_TIMEOUT_SECONDS", 30)
	v.SetDefault("POLL_INTERVAL_SECONDS", 2)
	v.SetDefault("LINK_EXPIRY_SECONDS", 3600)
	v.SetDefault("INPUT_SUFFIX", "input.pdf")
	v.SetDefault("OUTPUT_SUFFIX", "output.xlsx")
	v.SetDefault("SCRATCH_DIR", os.TempDir())
	v.SetDefault("MAX_CONCURRENT_JOBS", 0)

	v.SetDefault("JOBS_DB_ENABLED", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "draftq")
	v.SetDefault("DB_SSLMODE", "disable")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			Bucket:    v.GetString("S3_BUCKET_NAME"),
			Region:    v.GetString("AWS_DEFAULT_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Processing: ProcessingConfig{
			PollTimeoutSeconds:  v.GetInt("POLL_TIMEOUT_SECONDS"),
			PollIntervalSeconds: v.GetInt("POLL_INTERVAL_SECONDS"),
			LinkExpirySeconds:   v.GetInt("LINK_EXPIRY_SECONDS"),
			InputSuffix:         v.GetString("INPUT_SUFFIX"),
			OutputSuffix:        v.GetString("OUTPUT_SUFFIX"),
			ScratchDir:          v.GetString("SCRATCH_DIR"),
			MaxConcurrentJobs:   v.GetInt("MAX_CONCURRENT_JOBS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("JOBS_DB_ENABLED"),
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("S3_BUCKET_NAME must be set")
	}
	if c.Processing.InputSuffix == "" || c.Processing.OutputSuffix == "" {
		return fmt.Errorf("INPUT_SUFFIX and OUTPUT_SUFFIX must not be empty")
	}
	// A write timeout of 0 disables it; otherwise it has to outlast the poll.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Processing.PollTimeoutSeconds {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT (%ds) must exceed POLL_TIMEOUT_SECONDS (%ds)",
			c.Server.WriteTimeout, c.Processing.PollTimeoutSeconds)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func (p ProcessingConfig) PollTimeout() time.Duration {
	return time.Duration(p.PollTimeoutSeconds) * time.Second
}

func (p ProcessingConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

func (p ProcessingConfig) LinkExpiry() time.Duration {
	return time.Duration(p.LinkExpirySeconds) * time.Second
}
