package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	defaultPort            = "3000"
	defaultBodyLimit       = "10KB"
	defaultRateLimitWindow = 15 * time.Minute
	defaultRateLimitMax    = 100
	defaultCORSMaxAge      = 86400
	defaultShutdownTimeout = 10 * time.Second
	defaultSessionTTL      = 8 * time.Hour
	defaultResetTTL        = time.Hour
	defaultProfileTTL      = 10 * time.Minute
	devJWTSecret           = "ecodescarte-dev-secret"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Mail     MailConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	FrontendURL     string
	BodyLimit       string
	RateLimitWindow time.Duration
	RateLimitMax    int
	CORSMaxAge      int
	ShutdownTimeout time.Duration
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == EnvProduction
}

// AllowedOrigins is the CORS whitelist: the frontend alone in production,
// plus the local dev servers otherwise.
func (s ServerConfig) AllowedOrigins() []string {
	var origins []string
	if !s.IsProduction() {
		origins = append(origins, "http://localhost:5500", "http://127.0.0.1:5500", "http://localhost:3000")
	}
	if s.FrontendURL != "" {
		origins = append(origins, s.FrontendURL)
	}
	return origins
}

type DatabaseConfig struct {
	Driver          string // postgres|sqlite
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logging         bool
	Migrations      bool
}

// ConnectionString returns DATABASE_URL when set, otherwise a key/value DSN
// built from the individual settings. For sqlite Name is the file path.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
	ResetTTL   time.Duration
}

type MailConfig struct {
	Provider       string // smtp|sendgrid|resend|log
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPSecure     bool
	APIKey         string
	MaxConnections int
	RatePerSecond  float64
	TestRecipient  string
}

type RedisConfig struct {
	URL        string
	Host       string
	Port       string
	Password   string
	DB         int
	ProfileTTL time.Duration
}

// Enabled reports whether any Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	env := strings.ToLower(GetEnvAsString("NODE_ENV", GetEnvAsString("APP_ENV", EnvDevelopment)))

	cfg := Config{
		Server: ServerConfig{
			Port:            GetEnvAsString("PORT", defaultPort),
			Env:             env,
			FrontendURL:     strings.TrimRight(GetEnvAsString("FRONTEND_URL", ""), "/"),
			BodyLimit:       strings.ToUpper(GetEnvAsString("REQUEST_SIZE_LIMIT", defaultBodyLimit)),
			RateLimitWindow: GetEnvAsDuration("RATE_LIMIT_WINDOW", defaultRateLimitWindow),
			RateLimitMax:    GetEnvAsInt("RATE_LIMIT_MAX", defaultRateLimitMax),
			CORSMaxAge:      GetEnvAsInt("CORS_MAX_AGE", defaultCORSMaxAge),
			ShutdownTimeout: GetEnvAsDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(GetEnvAsString("DB_DRIVER", "postgres")),
			DSN:             GetEnvAsString("DATABASE_URL", ""),
			Host:            GetEnvAsString("DB_HOST", "localhost"),
			Port:            GetEnvAsString("DB_PORT", "5432"),
			User:            GetEnvAsString("DB_USER", "postgres"),
			Password:        GetEnvAsString("DB_PASSWORD", ""),
			Name:            GetEnvAsString("DB_NAME", "ecodescarte"),
			SSLMode:         GetEnvAsString("DB_SSLMODE", "disable"),
			MaxOpenConns:    GetEnvAsInt("DB_POOL_MAX", 10),
			MaxIdleConns:    GetEnvAsInt("DB_POOL_MIN", 2),
			ConnMaxLifetime: GetEnvAsDuration("DB_POOL_ACQUIRE", 60*time.Second),
			ConnMaxIdleTime: GetEnvAsDuration("DB_POOL_IDLE", 30*time.Second),
			Logging:         GetEnvAsBool("DB_LOGGING", false),
			Migrations:      GetEnvAsBool("DB_MIGRATIONS", false),
		},
		JWT: JWTConfig{
			Secret:     GetEnvAsString("JWT_SECRET", ""),
			SessionTTL: GetEnvAsDuration("JWT_EXPIRES_IN", defaultSessionTTL),
			ResetTTL:   GetEnvAsDuration("RESET_TOKEN_EXPIRES_IN", defaultResetTTL),
		},
		Mail: MailConfig{
			Provider:       strings.ToLower(GetEnvAsString("MAIL_PROVIDER", "")),
			From:           GetEnvAsString("EMAIL_FROM", "no-reply@ecodescarte.com.br"),
			FromName:       GetEnvAsString("EMAIL_FROM_NAME", "EcoDescarte"),
			SMTPHost:       GetEnvAsString("SMTP_HOST", ""),
			SMTPPort:       GetEnvAsInt("SMTP_PORT", 587),
			SMTPUser:       GetEnvAsString("SMTP_USER", ""),
			SMTPPass:       GetEnvAsString("SMTP_PASS", ""),
			SMTPSecure:     GetEnvAsBool("SMTP_SECURE", false),
			APIKey:         GetEnvAsString("EMAIL_API_KEY", ""),
			MaxConnections: GetEnvAsInt("SMTP_MAX_CONNECTIONS", 5),
			RatePerSecond:  GetEnvAsFloat("MAIL_RATE_PER_SECOND", 5),
			TestRecipient:  GetEnvAsString("MAIL_TEST_RECIPIENT", "test@example.com"),
		},
		Redis: RedisConfig{
			URL:        GetEnvAsString("REDIS_URL", ""),
			Host:       GetEnvAsString("REDIS_HOST", ""),
			Port:       GetEnvAsString("REDIS_PORT", "6379"),
			Password:   GetEnvAsString("REDIS_PASSWORD", ""),
			DB:         GetEnvAsInt("REDIS_DB", 0),
			ProfileTTL: GetEnvAsDuration("PROFILE_CACHE_TTL", defaultProfileTTL),
		},
		NATS: NATSConfig{
			URL:           GetEnvAsString("NATS_URL", ""),
			SubjectPrefix: GetEnvAsString("NATS_SUBJECT_PREFIX", ""),
		},
		Logging: LoggingConfig{
			Level:         GetEnvAsString("LOG_LEVEL", "info"),
			Format:        GetEnvAsString("LOG_FORMAT", "text"),
			IncludeCaller: GetEnvAsBool("LOG_INCLUDE_CALLER", false),
		},
	}

	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = defaultMailProvider(cfg.Mail)
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.IsProduction() {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = devJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultMailProvider(m MailConfig) string {
	switch {
	case m.SMTPHost != "":
		return "smtp"
	case m.APIKey != "":
		return "sendgrid"
	default:
		return "log"
	}
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want postgres or sqlite", c.Database.Driver)
	}
	switch c.Mail.Provider {
	case "smtp", "sendgrid", "resend", "log":
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER %q", c.Mail.Provider)
	}
	if c.Server.FrontendURL != "" {
		if _, err := url.ParseRequestURI(c.Server.FrontendURL); err != nil {
			return fmt.Errorf("invalid FRONTEND_URL: %w", err)
		}
	}
	if n, err := bytes.Parse(c.Server.BodyLimit); err != nil || n <= 0 {
		return fmt.Errorf("invalid REQUEST_SIZE_LIMIT %q", c.Server.BodyLimit)
	}
	if c.Server.RateLimitMax <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_MAX %d", c.Server.RateLimitMax)
	}
	return nil
}
