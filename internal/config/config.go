package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"

	envPrefix = "clinic"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	DataDir string `mapstructure:"data_dir"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig enables event publishing when URL is set.
type RedisConfig struct {
	URL        string `mapstructure:"url"`
	Channel    string `mapstructure:"channel"`
	MaxRetries int    `mapstructure:"max_retries"`
	PoolSize   int    `mapstructure:"pool_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ClinicConfig holds the booking rules. Hours are wall-clock "HH:MM".
type ClinicConfig struct {
	OpensAt      string `mapstructure:"opens_at"`
	ClosesAt     string `mapstructure:"closes_at"`
	HorizonYears int    `mapstructure:"horizon_years"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Expiration        time.Duration `mapstructure:"expiration"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// envOverrides are read from CLINIC_* variables and win over the file.
type envOverrides struct {
	DataDir       string `envconfig:"DATA_DIR"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	Port          int    `envconfig:"PORT"`
	RedisURL      string `envconfig:"REDIS_URL"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	StorageDriver string `envconfig:"STORAGE_DRIVER"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.data_dir", "data")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.channel", "clinic.events")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("clinic.opens_at", "07:00")
	v.SetDefault("clinic.closes_at", "22:00")
	v.SetDefault("clinic.horizon_years", 1)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.expiration", 10*time.Minute)

	v.SetDefault("security.bcrypt_cost", 10)
}

// LoadConfig reads path, or config.yaml from . and ./config when path is
// empty. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if env.DataDir != "" {
		c.Storage.DataDir = env.DataDir
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.RedisURL != "" {
		c.Redis.URL = env.RedisURL
	}
	if env.DatabaseURL != "" {
		c.Database.URL = env.DatabaseURL
	}
	if env.StorageDriver != "" {
		c.Storage.Driver = strings.ToLower(env.StorageDriver)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir is required for the file driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	opens, closes, err := c.Clinic.Hours()
	if err != nil {
		return err
	}
	if opens > closes {
		return fmt.Errorf("clinic.opens_at %s is after clinic.closes_at %s", c.Clinic.OpensAt, c.Clinic.ClosesAt)
	}
	if c.Clinic.HorizonYears < 1 {
		return errors.New("clinic.horizon_years must be at least 1")
	}
	return nil
}

// Hours returns the opening and closing times as offsets from midnight.
func (c ClinicConfig) Hours() (time.Duration, time.Duration, error) {
	opens, err := ParseClock(c.OpensAt)
	if err != nil {
		return 0, 0, fmt.Errorf("clinic.opens_at: %w", err)
	}
	closes, err := ParseClock(c.ClosesAt)
	if err != nil {
		return 0, 0, fmt.Errorf("clinic.closes_at: %w", err)
	}
	return opens, closes, nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
