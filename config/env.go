package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string `validate:"required,oneof=development staging production test"`
	Port    string `validate:"required"`
	BaseURL string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisURL      string
	RedisAddr     string
	RedisPassword string

	JWTSecret       string        `validate:"required,min=8"`
	JWTExpiry       time.Duration `validate:"gt=0"`
	RefreshTokenTTL time.Duration `validate:"gt=0"`

	MaxLoginAttempts int           `validate:"gte=1"`
	LockoutDuration  time.Duration `validate:"gt=0"`
	RateLimitLogin   int           `validate:"gte=0"`

	StorageDriver       string `validate:"oneof=local cloudinary"`
	UploadDir           string `validate:"required"`
	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string

	OriginURL       string
	TaxRate         float64 `validate:"gte=0,lte=1"`
	AutoArchiveDays int     `validate:"gte=1"`
	NotifierWorkers int     `validate:"gte=1"`
	KPICacheTTL     time.Duration
}

var AppConfig *Config

// DevJWTSecret signs tokens outside production when JWT_SECRET is unset.
const DevJWTSecret = "cermont-dev-secret"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a private value in production")

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8082")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cermont")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("JWT_EXPIRY", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_DURATION", "15m")
	v.SetDefault("RATE_LIMIT_LOGIN", 10)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TAX_RATE", 0.19)
	v.SetDefault("AUTO_ARCHIVE_DAYS", 90)
	v.SetDefault("NOTIFIER_WORKERS", 2)
	v.SetDefault("KPI_CACHE_TTL", "5m")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if os.Getenv("VERCEL") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	port := v.GetString("APP_PORT")
	if p := os.Getenv("PORT"); p != "" && os.Getenv("APP_PORT") == "" {
		port = p
	}

	cfg := &Config{
		AppEnv:  v.GetString("APP_ENV"),
		Port:    port,
		BaseURL: v.GetString("BASE_URL"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),

		RedisURL:      v.GetString("REDIS_URL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTExpiry:       v.GetDuration("JWT_EXPIRY"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),

		MaxLoginAttempts: v.GetInt("MAX_LOGIN_ATTEMPTS"),
		LockoutDuration:  v.GetDuration("LOCKOUT_DURATION"),
		RateLimitLogin:   v.GetInt("RATE_LIMIT_LOGIN"),

		StorageDriver:       v.GetString("STORAGE_DRIVER"),
		UploadDir:           v.GetString("UPLOAD_DIR"),
		CloudinaryURL:       v.GetString("CLOUDINARY_URL"),
		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),

		SMTPHost: v.GetString("SMTP_HOST"),
		SMTPPort: v.GetInt("SMTP_PORT"),
		SMTPUser: v.GetString("SMTP_USER"),
		SMTPPass: v.GetString("SMTP_PASS"),
		SMTPFrom: v.GetString("SMTP_FROM"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		OriginURL:       v.GetString("ORIGIN_URL"),
		TaxRate:         v.GetFloat64("TAX_RATE"),
		AutoArchiveDays: v.GetInt("AUTO_ARCHIVE_DAYS"),
		NotifierWorkers: v.GetInt("NOTIFIER_WORKERS"),
		KPICacheTTL:     v.GetDuration("KPI_CACHE_TTL"),
	}

	if cfg.IsProduction() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == DevJWTSecret {
			return nil, fmt.Errorf("invalid configuration: %w", ErrInsecureJWTSecret)
		}
	} else if cfg.JWTSecret == "" {
		cfg.JWTSecret = DevJWTSecret
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.StorageDriver == "cloudinary" && !cfg.HasCloudinary() {
		return nil, fmt.Errorf("invalid configuration: STORAGE_DRIVER=cloudinary requires CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME/API_KEY/API_SECRET")
	}

	AppConfig = cfg
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) HasCloudinary() bool {
	if c.CloudinaryURL != "" {
		return true
	}
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) HasSMTP() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

// DSN prefers DATABASE_URL over the individual DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
