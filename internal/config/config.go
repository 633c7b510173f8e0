// Package config loads the service configuration from the environment.
//
// Variables are read with the APPOINTMENT_ prefix (a `.env` file in the
// working directory is loaded first), mapped into typed structs and
// validated so the process fails fast on missing values.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads `.env` into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const (
	// EnvPrefix is stripped from every variable before it is mapped.
	// Nesting uses ".", e.g. APPOINTMENT_SERVER.PORT -> server.port.
	EnvPrefix = "APPOINTMENT_"

	// ServiceName tags logs, traces and published events.
	ServiceName = "appointment-management"
)

// Config is the root configuration object.
//
// Observability is optional; defaults are injected when it is missing.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Events        EventsConfig         `koanf:"events"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
	// Timezone is the IANA zone of slot dates and times, e.g.
	// "Asia/Ho_Chi_Minh". Cancellation cut-offs are measured in it.
	Timezone string `koanf:"timezone"`
}

// ServerConfig groups settings for the HTTP server. Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimit is the number of requests per second allowed per client IP.
	// Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains the Redis address ("host:port") shared by the job
// queue, the health check and the redis event broker.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// IntegrationConfig holds credentials of third-party services.
// An empty ResendAPIKey turns patient e-mails into log lines.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// Event broker kinds accepted by EventsConfig.Broker.
const (
	BrokerKafka = "kafka"
	BrokerRedis = "redis"
	BrokerNone  = "none"
)

// EventsConfig selects where appointment events are published.
type EventsConfig struct {
	Broker       string   `koanf:"broker" validate:"omitempty,oneof=kafka redis none"`
	Topic        string   `koanf:"topic"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	// WriteTimeout is in seconds.
	WriteTimeout int `koanf:"write_timeout"`
}

// LoadConfig loads configuration from environment variables, validates it
// and applies defaults. Invalid configuration terminates the process.
func LoadConfig() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal main config")
	}

	mainConfig.applyDefaults()

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}

	// The service name is fixed; only the environment follows primary.env.
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env

	if c.Primary.Timezone == "" {
		c.Primary.Timezone = "Local"
	}
	if c.Events.Broker == "" {
		c.Events.Broker = BrokerNone
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "appointment.events"
	}
	if c.Events.WriteTimeout == 0 {
		c.Events.WriteTimeout = 10
	}
	if c.Integration.EmailFrom == "" {
		c.Integration.EmailFrom = "Hospital Appointments <appointments@resend.dev>"
	}
}

// Location resolves Primary.Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Primary.Timezone)
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
