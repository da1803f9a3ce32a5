package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Email        EmailConfig        `mapstructure:"email"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" envconfig:"SERVER_HOST"`
	Port            int           `mapstructure:"port" envconfig:"SERVER_PORT"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" envconfig:"SERVER_ALLOWED_ORIGINS"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" envconfig:"DB_HOST"`
	Port         int    `mapstructure:"port" envconfig:"DB_PORT"`
	User         string `mapstructure:"user" envconfig:"DB_USER"`
	Password     string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name         string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode      string `mapstructure:"ssl_mode" envconfig:"DB_SSL_MODE"`
	MaxOpenConns int    `mapstructure:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" envconfig:"REDIS_ADDR"`
	Password string `mapstructure:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"REDIS_DB"`
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret" envconfig:"JWT_SECRET"`
	TokenExpiry time.Duration `mapstructure:"token_expiry" envconfig:"JWT_TOKEN_EXPIRY"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host" envconfig:"EMAIL_HOST"`
	Port     int    `mapstructure:"port" envconfig:"EMAIL_PORT"`
	Username string `mapstructure:"username" envconfig:"EMAIL_USERNAME"`
	Password string `mapstructure:"password" envconfig:"EMAIL_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"EMAIL_FROM"`
}

type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
	BatchSize    int           `mapstructure:"batch_size" envconfig:"WORKER_BATCH_SIZE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

// Load reads config.yaml (if present), applies defaults, then overlays
// environment variables. Environment always wins.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "enid_booking")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.token_expiry", "24h")

	v.SetDefault("email.port", 587)

	v.SetDefault("worker.poll_interval", "30s")
	v.SetDefault("worker.batch_size", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.SetDefault("rate_limiting.requests_per_second", 20)
	v.SetDefault("rate_limiting.burst", 40)
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	return nil
}
