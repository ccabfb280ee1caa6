package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string        `validate:"required"`
	HTTPPort          int           `validate:"min=1,max=65535"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
	ReadHeaderTimeout time.Duration `validate:"gt=0"`

	DataBackend string `validate:"oneof=memory postgres sqlite"`

	DatabaseDriver    string
	DatabaseURL       string
	DBMaxOpenConns    int `validate:"min=0"`
	DBMaxIdleConns    int `validate:"min=0"`
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	RedisURL string

	Log LogSettings

	Jobs JobSettings

	ScheduleFile string
	MetricsAddr  string
}

// LogSettings controls where structured logs are written.
type LogSettings struct {
	FilePath   string
	MaxSizeMB  int `validate:"min=0,max=1024"`
	MaxBackups int `validate:"min=0,max=100"`
	MaxAgeDays int `validate:"min=0,max=3650"`
}

// JobSettings configures the maintenance jobs.
type JobSettings struct {
	APIBaseURL         string `validate:"required,url"`
	CleanupLogPath     string `validate:"required"`
	InactiveDays       int    `validate:"min=1"`
	HeartbeatLogPath   string `validate:"required"`
	ReportLogPath      string `validate:"required"`
	ReminderLogPath    string `validate:"required"`
	ReminderWindowDays int    `validate:"min=1"`
	RestockLogPath     string `validate:"required"`
	RestockAmount      int    `validate:"min=1"`
}

const (
	defaultEnv               = "development"
	defaultHTTPPort          = 8080
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	defaultDataBackend = "memory"

	defaultDatabaseDriver    = "pgx"
	defaultDBMaxOpenConns    = 10
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = time.Hour
	defaultDBConnMaxIdleTime = 30 * time.Minute

	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 28

	defaultAPIBaseURL         = "http://localhost:8080"
	defaultCleanupLogPath     = "/tmp/customer_cleanup_log.txt"
	defaultInactiveDays       = 365
	defaultHeartbeatLogPath   = "/tmp/crm_heartbeat_log.txt"
	defaultReportLogPath      = "/tmp/crm_report_log.txt"
	defaultReminderLogPath    = "/tmp/order_reminders_log.txt"
	defaultReminderWindowDays = 7
	defaultRestockLogPath     = "/tmp/low_stock_updates_log.txt"
	defaultRestockAmount      = 10
)

// Load reads configuration values from the environment, applying defaults where necessary.
// A .env file in the working directory is read first when present; variables already set in
// the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	cfg := Config{
		Env:               getEnv("APP_ENV", defaultEnv),
		HTTPPort:          getInt("HTTP_PORT", defaultHTTPPort),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),

		DataBackend: getEnv("DATA_BACKEND", defaultDataBackend),

		DatabaseDriver:    getEnv("DATABASE_DRIVER", defaultDatabaseDriver),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", defaultDBConnMaxLifetime),
		DBConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", defaultDBConnMaxIdleTime),

		RedisURL: os.Getenv("REDIS_URL"),

		Log: LogSettings{
			FilePath:   os.Getenv("LOG_FILE"),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", defaultLogMaxSizeMB),
			MaxBackups: getInt("LOG_MAX_BACKUPS", defaultLogMaxBackups),
			MaxAgeDays: getInt("LOG_MAX_AGE_DAYS", defaultLogMaxAgeDays),
		},

		Jobs: JobSettings{
			APIBaseURL:         getEnv("API_BASE_URL", defaultAPIBaseURL),
			CleanupLogPath:     getEnv("CLEANUP_LOG_PATH", defaultCleanupLogPath),
			InactiveDays:       getInt("CLEANUP_INACTIVE_DAYS", defaultInactiveDays),
			HeartbeatLogPath:   getEnv("HEARTBEAT_LOG_PATH", defaultHeartbeatLogPath),
			ReportLogPath:      getEnv("REPORT_LOG_PATH", defaultReportLogPath),
			ReminderLogPath:    getEnv("REMINDER_LOG_PATH", defaultReminderLogPath),
			ReminderWindowDays: getInt("REMINDER_WINDOW_DAYS", defaultReminderWindowDays),
			RestockLogPath:     getEnv("RESTOCK_LOG_PATH", defaultRestockLogPath),
			RestockAmount:      getInt("RESTOCK_AMOUNT", defaultRestockAmount),
		},

		ScheduleFile: os.Getenv("SCHEDULE_FILE"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and backend-specific requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.DataBackend {
	case "memory":
		// no-op
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=%s", c.DataBackend)
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND value: %s", c.DataBackend)
	}

	return nil
}

// InactiveAfter is the age past which a customer's last order no longer counts as activity.
func (j JobSettings) InactiveAfter() time.Duration {
	return time.Duration(j.InactiveDays) * 24 * time.Hour
}

// ReminderWindow is how far back order reminders look.
func (j JobSettings) ReminderWindow() time.Duration {
	return time.Duration(j.ReminderWindowDays) * 24 * time.Hour
}

func getEnv(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
