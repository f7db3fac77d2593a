package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string          `mapstructure:"app_mode"`
	Port           string          `mapstructure:"port"`
	AllowedOrigins string          `mapstructure:"allowed_origins"`
	Database       DatabaseConfig  `mapstructure:"database"`
	JWT            JWTConfig       `mapstructure:"jwt"`
	Cookie         CookieConfig    `mapstructure:"cookie"`
	OTP            OTPConfig       `mapstructure:"otp"`
	Borrowing      BorrowingConfig `mapstructure:"borrowing"`
	Mail           MailConfig      `mapstructure:"mail"`
	Redis          RedisConfig     `mapstructure:"redis"`
	SMTP           SMTPConfig      `mapstructure:"smtp"`
	Storage        StorageConfig   `mapstructure:"storage"`
	Seed           SeedConfig      `mapstructure:"seed"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql, postgres or sqlite
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	Path            string        `mapstructure:"path"` // sqlite file
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

// CookieConfig holds refresh cookie configuration
type CookieConfig struct {
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// OTPConfig holds one-time code configuration
type OTPConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	Length         int           `mapstructure:"length"`
	Subject        string        `mapstructure:"subject"`
	CleanupCron    string        `mapstructure:"cleanup_cron"`
	ResetSubject   string        `mapstructure:"reset_subject"`
	ActivationText string        `mapstructure:"activation_text"`
}

// BorrowingConfig holds lending policy and the overdue sweep schedule
type BorrowingConfig struct {
	MaxRenewalDays int    `mapstructure:"max_renewal_days"`
	SweepCron      string `mapstructure:"sweep_cron"`
}

// MailConfig selects how notifications leave the API process
type MailConfig struct {
	Driver    string        `mapstructure:"driver"` // log, redis or smtp
	Retries   uint64        `mapstructure:"retries"`
	Backoff   time.Duration `mapstructure:"backoff"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ClaimIdle time.Duration `mapstructure:"claim_idle"`
}

// RedisConfig holds the mail stream connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	Group    string `mapstructure:"group"`
	Consumer string `mapstructure:"consumer"`
}

// SMTPConfig holds the outgoing mail server used by the mail worker
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// StorageConfig holds the S3 compatible avatar bucket
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// SeedConfig holds the bootstrap admin created by the dev seeder
type SeedConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables.
// Keys map to upper-case env names with dots replaced, e.g. jwt.access_ttl -> JWT_ACCESS_TTL.
func Load() (*Config, error) {
	// .env is optional, production injects the environment directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	AppConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_mode", "dev")
	v.SetDefault("port", "3000")
	v.SetDefault("allowed_origins", "")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "libraryhub")
	v.SetDefault("database.path", "libraryhub.db")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("jwt.secret", "default_secret")
	v.SetDefault("jwt.refresh_secret", "default_refresh_secret")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("cookie.secure", false)
	v.SetDefault("cookie.same_site", "lax")
	v.SetDefault("cookie.domain", "")

	v.SetDefault("otp.ttl", "5m")
	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.subject", "Verify your email")
	v.SetDefault("otp.reset_subject", "Reset your password")
	v.SetDefault("otp.activation_text", "Your verification code is")
	v.SetDefault("otp.cleanup_cron", "0 */15 * * * *")

	v.SetDefault("borrowing.max_renewal_days", 30)
	v.SetDefault("borrowing.sweep_cron", "0 0 * * * *")

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.retries", 3)
	v.SetDefault("mail.backoff", "500ms")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("mail.claim_idle", "30s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "mail:outbox")
	v.SetDefault("redis.group", "mailers")
	v.SetDefault("redis.consumer", "mailer-1")

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@libraryhub.local")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "avatars")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.public_url", "")

	v.SetDefault("seed.admin_email", "admin@libraryhub.local")
	v.SetDefault("seed.admin_password", "admin123456")
}

func (c *Config) validate() error {
	if c.AppMode != "dev" && c.AppMode != "prod" {
		return fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", c.AppMode)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: '%s'", c.Database.Driver)
	}
	switch c.Mail.Driver {
	case "log", "redis", "smtp":
	default:
		return fmt.Errorf("invalid MAIL_DRIVER: '%s'", c.Mail.Driver)
	}
	if c.IsProd() && (c.JWT.Secret == "default_secret" || c.JWT.RefreshSecret == "default_refresh_secret") {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must be set in prod")
	}
	if c.OTP.Length < 4 {
		return fmt.Errorf("OTP_LENGTH must be at least 4")
	}
	return nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.example.com"
	}
	return c.AllowedOrigins
}
