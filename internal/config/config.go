package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDBOOK"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Reset     ResetConfig     `mapstructure:"reset"`
	Booking   BookingConfig   `mapstructure:"booking"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`
	// Storage selects "postgres" or "memory".
	Storage string `mapstructure:"storage"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	// Driver is "postgres" (lib/pq) or "pgx".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	Issuer             string `mapstructure:"issuer"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
}

type RedisConfig struct {
	URL        string `mapstructure:"url"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type AuthConfig struct {
	BcryptCost             int  `mapstructure:"bcrypt_cost"`
	AllowAdminRegistration bool `mapstructure:"allow_admin_registration"`
}

type ResetConfig struct {
	// Store is "memory" or "redis".
	Store          string `mapstructure:"store"`
	CodeTTLSeconds int    `mapstructure:"code_ttl_seconds"`
}

// Double-booking policies
const (
	DoubleBookingAllow  = "allow"
	DoubleBookingReject = "reject"
)

type BookingConfig struct {
	DoubleBooking      string `mapstructure:"double_booking"`
	Lock               string `mapstructure:"lock"`
	LockTTLSeconds     int    `mapstructure:"lock_ttl_seconds"`
	EnforceTransitions bool   `mapstructure:"enforce_transitions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type WorkerConfig struct {
	// Broker is "memory" (events consumed inside the API process) or "redis".
	Broker            string `mapstructure:"broker"`
	HealthPort        int    `mapstructure:"health_port"`
	RetryAttempts     int    `mapstructure:"retry_attempts"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// Secrets are read straight from the environment and win over the file.
type Secrets struct {
	DatabaseHost     string `envconfig:"DB_HOST"`
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret string `envconfig:"JWT_REFRESH_SECRET"`
	RedisURL         string `envconfig:"REDIS_URL"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "medbook")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("app.storage", "postgres")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "medbook")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.issuer", "medbook-api")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.refresh_expiry_hours", 24*7)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@medbook.local")

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.allow_admin_registration", true)

	v.SetDefault("reset.store", "memory")
	v.SetDefault("reset.code_ttl_seconds", 300)

	v.SetDefault("booking.double_booking", DoubleBookingAllow)
	v.SetDefault("booking.lock", "local")
	v.SetDefault("booking.lock_ttl_seconds", 10)
	v.SetDefault("booking.enforce_transitions", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("worker.broker", "memory")
	v.SetDefault("worker.health_port", 8081)
	v.SetDefault("worker.retry_attempts", 3)
	v.SetDefault("worker.retry_delay_seconds", 2)
}

// LoadConfig reads config.yaml from the given paths (default "." and
// "./config"), then applies MEDBOOK_* environment overrides. A missing
// file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process(EnvPrefix, &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.applySecrets(secrets)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.DatabaseHost != "" {
		c.Database.Host = s.DatabaseHost
	}
	if s.DatabasePassword != "" {
		c.Database.Password = s.DatabasePassword
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.JWTRefreshSecret != "" {
		c.JWT.RefreshSecret = s.JWTRefreshSecret
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
	if s.SMTPPassword != "" {
		c.SMTP.Password = s.SMTPPassword
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("invalid config: jwt.secret is required")
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = c.JWT.Secret
	}
	if err := oneOf("app.storage", c.App.Storage, "postgres", "memory"); err != nil {
		return err
	}
	if err := oneOf("database.driver", c.Database.Driver, "postgres", "pgx"); err != nil {
		return err
	}
	if err := oneOf("reset.store", c.Reset.Store, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("booking.double_booking", c.Booking.DoubleBooking, DoubleBookingAllow, DoubleBookingReject); err != nil {
		return err
	}
	if err := oneOf("booking.lock", c.Booking.Lock, "local", "redis"); err != nil {
		return err
	}
	if err := oneOf("worker.broker", c.Worker.Broker, "memory", "redis"); err != nil {
		return err
	}
	if c.NeedsRedis() && c.Redis.URL == "" {
		return fmt.Errorf("invalid config: redis.url is required by the selected stores")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid config: app.timezone: %w", err)
	}
	return nil
}

// NeedsRedis reports whether any selected backend lives in Redis.
func (c *Config) NeedsRedis() bool {
	return c.Reset.Store == "redis" || c.Booking.Lock == "redis" || c.Worker.Broker == "redis"
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid config: %s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

// Location returns the configured calendar timezone.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshExpiryHours) * time.Hour
}

func (c ResetConfig) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLSeconds) * time.Second
}

func (c BookingConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func (c WorkerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}
