package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Backup drivers.
const (
	BackupDriverNone  = "none"
	BackupDriverDrive = "drive"
	BackupDriverS3    = "s3"
)

// Mail drivers.
const (
	MailDriverConsole  = "console"
	MailDriverSendgrid = "sendgrid"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	LogLevel      string
	StorageDriver string
	DatabaseURL   string
	EnableDBCheck bool
	// MigrationsPath is a golang-migrate source URL, e.g. file://migrations.
	MigrationsPath string

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// External OAuth Providers
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendBaseURL    string

	// MemoRetentionPolicy decides what happens to the original memo after a decision: delete or archive.
	MemoRetentionPolicy string

	MailDriver      string
	SendgridAPIKey  string
	MailFromAddress string
	MailFromName    string

	BackupDriver               string
	GoogleDriveCredentialsFile string
	GoogleDriveFolderID        string
	BackupS3Bucket             string
	BackupS3Prefix             string
	BackupS3Endpoint           string
	BackupMaxAttempts          int
	BackupBaseDelay            time.Duration
	BackupMaxDelay             time.Duration
	BackupPollInterval         time.Duration

	// RedisURL enables the shared rate limiter store when set.
	RedisURL string

	PosthogAPIKey string
	PosthogHost   string
	RollbarToken  string
	BuildVersion  string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", StoragePostgres)
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", true)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "12h")
	viper.SetDefault("JWT_ISSUER", "memofy")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("MEMO_RETENTION_POLICY", "delete")
	viper.SetDefault("MAIL_DRIVER", MailDriverConsole)
	viper.SetDefault("SENDGRID_API_KEY", "")
	viper.SetDefault("MAIL_FROM_ADDRESS", "no-reply@memofy.local")
	viper.SetDefault("MAIL_FROM_NAME", "Memofy")
	viper.SetDefault("BACKUP_DRIVER", BackupDriverNone)
	viper.SetDefault("GOOGLE_DRIVE_CREDENTIALS_FILE", "")
	viper.SetDefault("GOOGLE_DRIVE_FOLDER_ID", "")
	viper.SetDefault("BACKUP_S3_BUCKET", "")
	viper.SetDefault("BACKUP_S3_PREFIX", "memo-backups/")
	viper.SetDefault("BACKUP_S3_ENDPOINT", "")
	viper.SetDefault("BACKUP_MAX_ATTEMPTS", 8)
	viper.SetDefault("BACKUP_BASE_DELAY", "30s")
	viper.SetDefault("BACKUP_MAX_DELAY", "1h")
	viper.SetDefault("BACKUP_POLL_INTERVAL", "15s")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_HOST", "https://eu.i.posthog.com")
	viper.SetDefault("ROLLBAR_TOKEN", "")
	viper.SetDefault("BUILD_VERSION", "dev")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:                       viper.GetString("PORT"),
		IsProduction:               viper.GetBool("IS_PRODUCTION"),
		LogLevel:                   strings.ToLower(viper.GetString("LOG_LEVEL")),
		StorageDriver:              strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		DatabaseURL:                viper.GetString("DATABASE_URL"),
		EnableDBCheck:              viper.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:             viper.GetString("MIGRATIONS_PATH"),
		JWTSecret:                  viper.GetString("JWT_SECRET"),
		JWTIssuer:                  viper.GetString("JWT_ISSUER"),
		GoogleClientID:             viper.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:         viper.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:          viper.GetString("GOOGLE_REDIRECT_URL"),
		FrontendBaseURL:            viper.GetString("FRONTEND_BASE_URL"),
		MemoRetentionPolicy:        strings.ToLower(viper.GetString("MEMO_RETENTION_POLICY")),
		MailDriver:                 strings.ToLower(viper.GetString("MAIL_DRIVER")),
		SendgridAPIKey:             viper.GetString("SENDGRID_API_KEY"),
		MailFromAddress:            viper.GetString("MAIL_FROM_ADDRESS"),
		MailFromName:               viper.GetString("MAIL_FROM_NAME"),
		BackupDriver:               strings.ToLower(viper.GetString("BACKUP_DRIVER")),
		GoogleDriveCredentialsFile: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_FILE"),
		GoogleDriveFolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		BackupS3Bucket:             viper.GetString("BACKUP_S3_BUCKET"),
		BackupS3Prefix:             viper.GetString("BACKUP_S3_PREFIX"),
		BackupS3Endpoint:           viper.GetString("BACKUP_S3_ENDPOINT"),
		BackupMaxAttempts:          viper.GetInt("BACKUP_MAX_ATTEMPTS"),
		RedisURL:                   viper.GetString("REDIS_URL"),
		PosthogAPIKey:              viper.GetString("POSTHOG_API_KEY"),
		PosthogHost:                viper.GetString("POSTHOG_HOST"),
		RollbarToken:               viper.GetString("ROLLBAR_TOKEN"),
		BuildVersion:               viper.GetString("BUILD_VERSION"),
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_EXPIRY_DURATION", &cfg.JWTExpiryDuration},
		{"BACKUP_BASE_DELAY", &cfg.BackupBaseDelay},
		{"BACKUP_MAX_DELAY", &cfg.BackupMaxDelay},
		{"BACKUP_POLL_INTERVAL", &cfg.BackupPollInterval},
	}
	for _, d := range durations {
		raw := viper.GetString(d.key)
		if *d.dst, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid value for %s (%q): %w", d.key, raw, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		log.Println("Warning: Google OAuth is not fully configured; Google sign-in will not function.")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.JWTSecret = "memofy-development-secret-change-me"
		log.Println("Warning: JWT_SECRET not set. Using an insecure development key.")
	}

	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
		if c.IsProduction {
			return fmt.Errorf("STORAGE_DRIVER=%s is not allowed in production", StorageMemory)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.MemoRetentionPolicy {
	case "delete", "archive":
	default:
		return fmt.Errorf("unknown MEMO_RETENTION_POLICY %q", c.MemoRetentionPolicy)
	}

	switch c.MailDriver {
	case MailDriverConsole:
	case MailDriverSendgrid:
		if c.SendgridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_DRIVER=%s", MailDriverSendgrid)
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver)
	}

	switch c.BackupDriver {
	case BackupDriverNone:
	case BackupDriverDrive:
		if c.GoogleDriveFolderID == "" {
			return fmt.Errorf("GOOGLE_DRIVE_FOLDER_ID is required when BACKUP_DRIVER=%s", BackupDriverDrive)
		}
	case BackupDriverS3:
		if c.BackupS3Bucket == "" {
			return fmt.Errorf("BACKUP_S3_BUCKET is required when BACKUP_DRIVER=%s", BackupDriverS3)
		}
	default:
		return fmt.Errorf("unknown BACKUP_DRIVER %q", c.BackupDriver)
	}

	if c.BackupMaxAttempts < 1 {
		return fmt.Errorf("BACKUP_MAX_ATTEMPTS must be at least 1")
	}
	if c.BackupMaxDelay < c.BackupBaseDelay {
		return fmt.Errorf("BACKUP_MAX_DELAY must not be smaller than BACKUP_BASE_DELAY")
	}
	return nil
}
