package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/livepoll/go/internal/dbconfig"
	"github.com/mcdev12/livepoll/go/internal/realtime"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`

	Storage struct {
		Driver      string `yaml:"driver"` // postgres or memory
		ApplySchema bool   `yaml:"apply_schema"`
	} `yaml:"storage"`

	Realtime struct {
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		CommandTimeout    time.Duration `yaml:"command_timeout"`
		SendBufferSize    int           `yaml:"send_buffer_size"`
		Bus               string        `yaml:"bus"` // local, nats or redis
		NATS              struct {
			URL     string `yaml:"url"`
			Subject string `yaml:"subject"`
		} `yaml:"nats"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Channel  string `yaml:"channel"`
		} `yaml:"redis"`
	} `yaml:"realtime"`

	Database dbconfig.Config `yaml:"-"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.Storage.Driver = "postgres"

	rt := realtime.DefaultConnectionConfig()
	cfg.Realtime.HeartbeatInterval = rt.HeartbeatInterval
	cfg.Realtime.CommandTimeout = rt.CommandTimeout
	cfg.Realtime.SendBufferSize = rt.SendBufferSize
	cfg.Realtime.Bus = "local"
	cfg.Realtime.NATS.URL = realtime.DefaultNATSBusConfig().URL
	cfg.Realtime.NATS.Subject = realtime.DefaultBusSubject
	cfg.Realtime.Redis.Addr = "localhost:6379"
	cfg.Realtime.Redis.Channel = realtime.DefaultBusSubject
	return &cfg
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
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path if it exists, then applies
// environment overrides.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("no config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnv("LOG_FORMAT", config.Log.Format)
	config.Storage.Driver = getEnv("STORAGE_DRIVER", config.Storage.Driver)
	config.Storage.ApplySchema = getEnvAsBool("APPLY_SCHEMA", config.Storage.ApplySchema)
	config.Realtime.Bus = getEnv("REALTIME_BUS", config.Realtime.Bus)
	config.Realtime.NATS.URL = getEnv("NATS_URL", config.Realtime.NATS.URL)
	config.Realtime.Redis.Addr = getEnv("REDIS_ADDR", config.Realtime.Redis.Addr)
	config.Realtime.Redis.Password = getEnv("REDIS_PASSWORD", config.Realtime.Redis.Password)
	config.Realtime.Redis.DB = getEnvAsInt("REDIS_DB", config.Realtime.Redis.DB)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	config.Database = dbconfig.NewConfigFromEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Realtime.Bus {
	case "local", "nats", "redis":
	default:
		return fmt.Errorf("unknown realtime bus %q", c.Realtime.Bus)
	}
	if c.Realtime.CommandTimeout <= 0 {
		return errors.New("realtime.command_timeout must be positive")
	}
	return nil
}

// connectionConfig maps the realtime settings onto the connection manager
func (c *Config) connectionConfig() realtime.ConnectionConfig {
	rt := realtime.DefaultConnectionConfig()
	rt.HeartbeatInterval = c.Realtime.HeartbeatInterval
	rt.CommandTimeout = c.Realtime.CommandTimeout
	if c.Realtime.SendBufferSize > 0 {
		rt.SendBufferSize = c.Realtime.SendBufferSize
	}
	rt.CheckOrigin = originChecker(c.Server.AllowedOrigins)
	return rt
}
