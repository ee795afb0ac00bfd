package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Demo     DemoConfig
	SMTP     SMTPConfig
	AI       AIConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTLMin  int
	BcryptCost         int
	MaxLoginAttempts   int
	LoginWindowSeconds int
}

// DemoConfig identifies the seeded demo developer account. The demo account
// is locked against demotion and deletion.
type DemoConfig struct {
	Email        string
	Password     string
	Name         string
	CompanyTitle string
}

// SMTPConfig holds best-effort email delivery settings. Empty user/password
// downgrades sends to log-only.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	AdminEmail string
}

// AIConfig controls the Gemini analysis integration.
type AIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	aiKey := os.Getenv("API_KEY")
	aiEnabled := getEnvAsBool("ENABLE_AI_ANALYSIS", false) && aiKey != ""

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "automation-hub"),
			Env:                   strings.ToLower(getEnv("APP_ENV", "development")),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "3.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("SECRET_KEY", "change-me-please"),
			AccessTokenTTLMin:  getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts:   getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
			LoginWindowSeconds: getEnvAsInt("LOGIN_WINDOW_SECONDS", 900),
		},
		Demo: DemoConfig{
			Email:        getEnv("DEMO_DEVELOPER_EMAIL", "demo@automation-hub.local"),
			Password:     getEnv("DEMO_DEVELOPER_PASSWORD", "demo1234"),
			Name:         getEnv("DEMO_DEVELOPER_NAME", "Demo Developer"),
			CompanyTitle: getEnv("DEMO_DEVELOPER_COMPANY_TITLE", "Demo Developer"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			User:       os.Getenv("SMTP_USER"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       getEnv("SMTP_FROM", "noreply@revithub.com"),
			AdminEmail: getEnv("ADMIN_EMAIL", "admin@revithub.com"),
		},
		AI: AIConfig{
			Enabled: aiEnabled,
			APIKey:  aiKey,
			Model:   getEnv("AI_MODEL", "gemini-2.0-flash-exp"),
			BaseURL: getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginWindow returns the brute-force tracking window.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
