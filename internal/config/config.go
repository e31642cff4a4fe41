package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Worker    WorkerConfig    `json:"worker"`
	Auth      AuthConfig      `json:"auth"`
	OTP       OTPConfig       `json:"otp"`
	SMTP      SMTPConfig      `json:"smtp"`
	Notify    NotifyConfig    `json:"notify"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Log       LogConfig       `json:"log"`
	CORS      CORSConfig      `json:"cors"`
	SentryDSN string          `json:"sentry_dsn"`
}

type ServerConfig struct {
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". For sqlite, Name is the DSN.
	Driver          string        `json:"driver"`
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	LogLevel        string        `json:"log_level"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WorkerConfig struct {
	Concurrency  int           `json:"concurrency"`
	PollInterval time.Duration `json:"poll_interval"`
	MaxRetries   int           `json:"max_retries"`
}

type AuthConfig struct {
	JWTSecret      string        `json:"jwt_secret"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`
	BCryptCost     int           `json:"bcrypt_cost"`
	AdminEmail     string        `json:"admin_email"`
	AdminPassword  string        `json:"admin_password"`
}

type OTPConfig struct {
	TTL           time.Duration `json:"ttl"`
	Retention     time.Duration `json:"retention"`
	PurgeInterval time.Duration `json:"purge_interval"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Sender   string `json:"sender"`
}

// Enabled reports whether enough SMTP settings are present to dial out.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Sender != ""
}

type NotifyConfig struct {
	TaskEvents bool `json:"task_events"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

const defaultJWTSecret = "your-secret-key"

var defaults = map[string]any{
	"HOST":          "localhost",
	"PORT":          "8080",
	"READ_TIMEOUT":  "30s",
	"WRITE_TIMEOUT": "30s",
	"IDLE_TIMEOUT":  "60s",
	"ENVIRONMENT":   "development",

	"DB_DRIVER":             "postgres",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "",
	"DB_NAME":               "task_manager",
	"DB_SSL_MODE":           "disable",
	"DB_MAX_OPEN_CONNS":     25,
	"DB_MAX_IDLE_CONNS":     10,
	"DB_CONN_MAX_LIFETIME":  "1h",
	"DB_CONN_MAX_IDLE_TIME": "30m",
	"DB_LOG_LEVEL":          "warn",

	"REDIS_ENABLED":        true,
	"REDIS_HOST":           "localhost",
	"REDIS_PORT":           "6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"REDIS_POOL_SIZE":      10,
	"REDIS_MIN_IDLE_CONNS": 5,
	"REDIS_MAX_RETRIES":    3,
	"REDIS_DIAL_TIMEOUT":   "5s",
	"REDIS_READ_TIMEOUT":   "3s",
	"REDIS_WRITE_TIMEOUT":  "3s",

	"WORKER_CONCURRENCY":   4,
	"WORKER_POLL_INTERVAL": "5s",
	"WORKER_MAX_RETRIES":   3,

	"JWT_SECRET":       defaultJWTSecret,
	"ACCESS_TOKEN_TTL": "24h",
	"BCRYPT_COST":      10,
	"ADMIN_EMAIL":      "",
	"ADMIN_PASSWORD":   "",

	"OTP_TTL":            "5m",
	"OTP_RETENTION":      "24h",
	"OTP_PURGE_INTERVAL": "1h",

	"SMTP_HOST":   "",
	"SMTP_PORT":   587,
	"SMTP_USER":   "",
	"SMTP_PASS":   "",
	"SMTP_SENDER": "",

	"NOTIFY_TASK_EVENTS": true,

	"RATE_LIMIT_ENABLED": true,
	"RATE_LIMIT_RPM":     100,
	"RATE_LIMIT_BURST":   10,
	"RATE_LIMIT_CLEANUP": "10m",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",
	"SENTRY_DSN": "",

	"CORS_ALLOWED_ORIGINS": "http://localhost:3000",
}

// LoadConfig reads configuration from the environment, optionally layered
// over a file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:         v.GetString("HOST"),
			Port:         v.GetString("PORT"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("IDLE_TIMEOUT"),
			Environment:  v.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSL_MODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Enabled:      v.GetBool("REDIS_ENABLED"),
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetString("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Worker: WorkerConfig{
			Concurrency:  v.GetInt("WORKER_CONCURRENCY"),
			PollInterval: v.GetDuration("WORKER_POLL_INTERVAL"),
			MaxRetries:   v.GetInt("WORKER_MAX_RETRIES"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			AccessTokenTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
			BCryptCost:     v.GetInt("BCRYPT_COST"),
			AdminEmail:     strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
			AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		},
		OTP: OTPConfig{
			TTL:           v.GetDuration("OTP_TTL"),
			Retention:     v.GetDuration("OTP_RETENTION"),
			PurgeInterval: v.GetDuration("OTP_PURGE_INTERVAL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			Sender:   v.GetString("SMTP_SENDER"),
		},
		Notify: NotifyConfig{
			TaskEvents: v.GetBool("NOTIFY_TASK_EVENTS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:         v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerMin:  v.GetInt("RATE_LIMIT_RPM"),
			BurstSize:       v.GetInt("RATE_LIMIT_BURST"),
			CleanupInterval: v.GetDuration("RATE_LIMIT_CLEANUP"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		SentryDSN: v.GetString("SENTRY_DSN"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Password == "" && c.Database.Driver == "postgres" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Auth.JWTSecret == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if c.OTP.TTL <= 0 {
		return fmt.Errorf("OTP TTL must be positive")
	}

	if c.OTP.Retention < c.OTP.TTL {
		return fmt.Errorf("OTP retention (%s) must not be shorter than OTP TTL (%s)", c.OTP.Retention, c.OTP.TTL)
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Name
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
