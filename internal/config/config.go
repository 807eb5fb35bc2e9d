package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Business rule constants. These are the single source of truth for values
// that used to be duplicated across signup paths and services.
const (
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPMaxAttempts = 5

	DefaultSuggestionLimit     = 5
	DefaultSuggestionPoolLimit = 50
	SuggestionNotifyInterval   = 24 * time.Hour

	DefaultOutreachMax = 10
	MinOutreachMax     = 1
	MaxOutreachMax     = 50

	DefaultGenerationTimeout = 30 * time.Second
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTP      OTPConfig      `mapstructure:"otp"`
	AI       AIConfig       `mapstructure:"ai"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Outreach OutreachConfig `mapstructure:"outreach"`
}

type AppConfig struct {
	AppName       string `mapstructure:"name"`
	Environment   string `mapstructure:"env"`
	HTTPPort      string `mapstructure:"http_port"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	DBHost     string `mapstructure:"host"`
	DBPort     string `mapstructure:"port"`
	DBName     string `mapstructure:"name"`
	DBUser     string `mapstructure:"user"`
	DBPassword string `mapstructure:"password"`
	DBSSLMode  string `mapstructure:"ssl_mode"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`
}

type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type JWTConfig struct {
	AccessSecret     string        `mapstructure:"access_secret"`
	RefreshSecret    string        `mapstructure:"refresh_secret"`
	AccessExpiresIn  time.Duration `mapstructure:"access_expires_in"`
	RefreshExpiresIn time.Duration `mapstructure:"refresh_expires_in"`
}

type OTPConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max_log_length"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RabbitMQConfig struct {
	URI      string `mapstructure:"uri"`
	Exchange string `mapstructure:"exchange"`
}

type OutreachConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Script      string        `mapstructure:"script"`
	Interpreter string        `mapstructure:"interpreter"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Workers     int           `mapstructure:"workers"`
	RatePerSec  float64       `mapstructure:"rate_per_sec"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// envBindings keeps the flat environment names used by deployments.
var envBindings = map[string]string{
	"app.name":           "APP_NAME",
	"app.env":            "APP_ENV",
	"app.http_port":      "HTTP_PORT",
	"app.migrations_dir": "MIGRATIONS_DIR",
	"app.auto_migrate":   "AUTO_MIGRATE",

	"log.json":  "LOG_JSON",
	"log.debug": "LOG_DEBUG",

	"database.host":                     "DB_HOST",
	"database.port":                     "DB_PORT",
	"database.name":                     "DB_NAME",
	"database.user":                     "DB_USER",
	"database.password":                 "DB_PASSWORD",
	"database.ssl_mode":                 "DB_SSL_MODE",
	"database.connect_timeout":          "DB_CONNECT_TIMEOUT",
	"database.pool_max_conns":           "DB_POOL_MAX_CONNS",
	"database.pool_min_conns":           "DB_POOL_MIN_CONNS",
	"database.pool_max_conn_lifetime":   "DB_POOL_MAX_CONN_LIFETIME",
	"database.pool_max_conn_idle_time":  "DB_POOL_MAX_CONN_IDLE_TIME",
	"database.pool_health_check_period": "DB_POOL_HEALTH_CHECK_PERIOD",

	"mongo.uri":           "MONGO_URI",
	"mongo.database":      "MONGO_DB",
	"mongo.max_pool_size": "MONGO_MAX_POOL_SIZE",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",
	"redis.ttl":      "REDIS_TTL",

	"jwt.access_secret":      "JWT_ACCESS_SECRET",
	"jwt.refresh_secret":     "JWT_REFRESH_SECRET",
	"jwt.access_expires_in":  "JWT_ACCESS_EXPIRES_IN",
	"jwt.refresh_expires_in": "JWT_REFRESH_EXPIRES_IN",

	"otp.ttl":          "OTP_TTL",
	"otp.max_attempts": "OTP_MAX_ATTEMPTS",

	"ai.provider":       "AI_PROVIDER",
	"ai.api_key":        "AI_API_KEY",
	"ai.model":          "AI_MODEL",
	"ai.base_url":       "AI_BASE_URL",
	"ai.timeout":        "AI_TIMEOUT",
	"ai.max_log_length": "AI_MAX_LOG_LENGTH",

	"smtp.host":     "SMTP_HOST",
	"smtp.port":     "SMTP_PORT",
	"smtp.username": "SMTP_USERNAME",
	"smtp.password": "SMTP_PASSWORD",
	"smtp.from":     "SMTP_FROM",

	"rabbitmq.uri":      "RABBITMQ_URI",
	"rabbitmq.exchange": "RABBITMQ_EXCHANGE",

	"outreach.base_url":     "OUTREACH_BASE_URL",
	"outreach.script":       "OUTREACH_SCRIPT",
	"outreach.interpreter":  "OUTREACH_INTERPRETER",
	"outreach.timeout":      "OUTREACH_TIMEOUT",
	"outreach.workers":      "OUTREACH_WORKERS",
	"outreach.rate_per_sec": "OUTREACH_RATE_PER_SEC",
}

var requiredKeys = []string{
	"app.name",
	"app.env",
	"app.http_port",
	"jwt.access_secret",
	"jwt.refresh_secret",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.migrations_dir", "migrations")
	v.SetDefault("app.auto_migrate", true)

	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("mongo.database", "founderconnect")
	v.SetDefault("mongo.max_pool_size", 50)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.ttl", 600*time.Second)

	v.SetDefault("jwt.access_expires_in", 15*time.Minute)
	v.SetDefault("jwt.refresh_expires_in", 7*24*time.Hour)

	v.SetDefault("otp.ttl", DefaultOTPTTL)
	v.SetDefault("otp.max_attempts", DefaultOTPMaxAttempts)

	v.SetDefault("ai.timeout", DefaultGenerationTimeout)
	v.SetDefault("ai.max_log_length", 200)

	v.SetDefault("smtp.port", "587")

	v.SetDefault("rabbitmq.exchange", "founderconnect.events")

	v.SetDefault("outreach.interpreter", "python3")
	v.SetDefault("outreach.timeout", 60*time.Second)
	v.SetDefault("outreach.workers", 4)
	v.SetDefault("outreach.rate_per_sec", 2.0)
}

// Load reads configuration from the optional file at path and the process
// environment. Environment variables win over file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if p := strings.TrimSpace(path); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", p, err)
		}
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, envBindings[key])
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	c.App.HTTPPort = strings.TrimSpace(c.App.HTTPPort)
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))

	if c.OTP.TTL <= 0 {
		c.OTP.TTL = DefaultOTPTTL
	}
	if c.OTP.MaxAttempts <= 0 {
		c.OTP.MaxAttempts = DefaultOTPMaxAttempts
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = DefaultGenerationTimeout
	}
	if c.Outreach.Workers <= 0 {
		c.Outreach.Workers = 1
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}
