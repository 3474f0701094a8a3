// Package config loads service configuration from the environment.
//
// Values are read from a local .env file first (when present) and then from the
// process environment, which always wins.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionSecret is the placeholder cookie-signing key. It must be
// overridden in any real deployment.
const DefaultSessionSecret = "change_this"

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Mongo     MongoConfig
	Session   SessionConfig
	Static    StaticConfig
	Admin     AdminConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// MongoConfig describes the document store connection.
type MongoConfig struct {
	Driver         string
	URI            string
	Database       string
	ConnectTimeout string
}

// SessionConfig describes the session cookie and the server-side record
// lifetime. CookieMaxAge and TTL are independent: the cookie
// may expire client-side long before the stored record does.
type SessionConfig struct {
	Secret       string
	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration
	TTL          time.Duration
}

type StaticConfig struct {
	Dir string
}

// AdminConfig lists email addresses that are granted the admin role when they register.
type AdminConfig struct {
	Emails []string
}

type ShutdownConfig struct {
	Timeout             string
	ReadinessDrainDelay string
}

// Load reads configuration from .env and the environment, applying defaults.
func Load() *Config {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	mongoURI := getEnv("MONGO_URI", "mongodb://127.0.0.1:27017/groc")

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "groc-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("APP_ENV", "development"),
			Port:    getEnv("PORT", "3000"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("OTEL_COLLECTOR_ENDPOINT", "localhost:4318"),
			SampleRate: getEnvFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PYROSCOPE_ENDPOINT", "http://localhost:4040"),
		},
		Mongo: MongoConfig{
			Driver:         strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
			URI:            mongoURI,
			Database:       getEnv("MONGO_DATABASE", databaseFromURI(mongoURI)),
			ConnectTimeout: getEnv("MONGO_CONNECT_TIMEOUT", "10s"),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", DefaultSessionSecret),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "groc.sid"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			CookieMaxAge: 24 * time.Hour,
			TTL:          14 * 24 * time.Hour,
		},
		Static: StaticConfig{
			Dir: getEnv("STATIC_DIR", "web/public"),
		},
		Admin: AdminConfig{
			Emails: splitList(os.Getenv("ADMIN_EMAILS")),
		},
		Shutdown: ShutdownConfig{
			Timeout:             getEnv("SHUTDOWN_TIMEOUT", "10s"),
			ReadinessDrainDelay: getEnv("READINESS_DRAIN_DELAY", "0s"),
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Service.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Service.Port)
	}
	if c.Mongo.Driver != StoreMongo && c.Mongo.Driver != StoreMemory {
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Mongo.Driver)
	}
	if c.Mongo.Driver == StoreMongo && c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if _, err := time.ParseDuration(c.Mongo.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid MONGO_CONNECT_TIMEOUT: %w", err)
	}
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.IsProduction() && c.Session.Secret == DefaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate)
	}
	if _, err := time.ParseDuration(c.Shutdown.Timeout); err != nil {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	if _, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay); err != nil {
		return fmt.Errorf("invalid READINESS_DRAIN_DELAY: %w", err)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Service.Env, "production")
}

// UsesDefaultSecret reports whether the insecure placeholder secret is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.Secret == DefaultSessionSecret
}

func (c *Config) GetMongoConnectTimeoutDuration() time.Duration {
	return parseDuration(c.Mongo.ConnectTimeout, 10*time.Second)
}

func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Shutdown.Timeout, 10*time.Second)
}

func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Shutdown.ReadinessDrainDelay, 0)
}

// IsAdminEmail reports whether email is configured to receive the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Admin.Emails {
		if strings.EqualFold(e, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// databaseFromURI returns the database named in the URI path, or "groc".
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "groc"
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return "groc"
	}
	return name
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
