package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with APP_STORAGE.
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	RabbitMQ  *RabbitMQConfig  `yaml:"rabbitmq"`
	SMTP      *SMTPConfig      `yaml:"smtp"`
	SMS       *SMSConfig       `yaml:"sms"`
	Push      *PushConfig      `yaml:"push"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Security  *SecurityConfig  `yaml:"security"`
	Emergency *EmergencyConfig `yaml:"emergency"`
}

type AppConfig struct {
	Name              string `yaml:"name"`
	Version           string `yaml:"version"`
	Environment       string `yaml:"environment"`
	Port              int    `yaml:"port"`
	Host              string `yaml:"host"`
	BaseURL           string `yaml:"base_url"`
	Debug             bool   `yaml:"debug"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
	Timezone          string `yaml:"timezone"`
	Storage           string `yaml:"storage"`
	SchoolEmailDomain string `yaml:"school_email_domain"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	AuthRateLimit      int           `yaml:"auth_rate_limit_per_minute"`
	MaxLoginAttempts   int           `yaml:"max_login_attempts"`
	LoginLockoutTime   time.Duration `yaml:"login_lockout_time"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		RabbitMQ:  loadRabbitMQConfig(),
		SMTP:      loadSMTPConfig(),
		SMS:       loadSMSConfig(),
		Push:      loadPushConfig(),
		WebSocket: loadWebSocketConfig(),
		Security:  loadSecurityConfig(),
		Emergency: loadEmergencyConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects combinations that would start a broken server.
func (c *Config) Validate() error {
	switch c.App.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("APP_STORAGE must be %q or %q, got %q", StorageMongo, StorageMemory, c.App.Storage)
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.App.Environment == "production" && c.Security.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}
	if c.Security.JWTAccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive")
	}
	switch c.SMS.Provider {
	case SMSProviderTwilio, SMSProviderSNS, SMSProviderNone:
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", c.SMS.Provider)
	}
	return nil
}

const defaultJWTSecret = "change-me-carpool-secret"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:              getEnv("APP_NAME", "UniCarpool"),
		Version:           getEnv("APP_VERSION", "1.0.0"),
		Environment:       getEnv("APP_ENV", "development"),
		Port:              getEnvAsInt("APP_PORT", 8080),
		Host:              getEnv("APP_HOST", "localhost"),
		BaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:             getEnvAsBool("APP_DEBUG", true),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		Timezone:          getEnv("APP_TIMEZONE", "UTC"),
		Storage:           strings.ToLower(getEnv("APP_STORAGE", StorageMongo)),
		SchoolEmailDomain: strings.ToLower(getEnv("SCHOOL_EMAIL_DOMAIN", "dal.ca")),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 10*time.Minute),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		AuthRateLimit:      getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 20),
		MaxLoginAttempts:   getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginLockoutTime:   getEnvAsDuration("LOGIN_LOCKOUT_TIME", 15*time.Minute),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

// Addr is the listen address for the HTTP server.
func (a *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}

func IsTest() bool {
	return getEnv("APP_ENV", "development") == "test"
}
