// Package config loads service settings from a YAML file with BLOGAUTH_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	auth "github.com/goliatone/go-blogauth"
)

// EnvPrefix prefixes environment overrides, e.g. BLOGAUTH_AUTH_SIGNING_KEY
const EnvPrefix = "BLOGAUTH"

const (
	SessionBackendSQL   = "sql"
	SessionBackendRedis = "redis"
)

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Debug   bool   `mapstructure:"debug"`
	Migrate bool   `mapstructure:"migrate"`
}

type AuthConfig struct {
	SigningKey      string   `mapstructure:"signing_key"`
	SigningMethod   string   `mapstructure:"signing_method"`
	ContextKey      string   `mapstructure:"context_key"`
	TokenExpiration int      `mapstructure:"token_expiration"`
	TokenLookup     string   `mapstructure:"token_lookup"`
	AuthScheme      string   `mapstructure:"auth_scheme"`
	Issuer          string   `mapstructure:"issuer"`
	Audience        []string `mapstructure:"audience"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SessionsConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

var _ auth.Config = (*Config)(nil)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3001")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.dsn", "file:blogauth.db?cache=shared")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.migrate", true)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.signing_method", "HS256")
	v.SetDefault("auth.context_key", "user")
	v.SetDefault("auth.token_expiration", 1)
	v.SetDefault("auth.token_lookup", "header:Authorization")
	v.SetDefault("auth.auth_scheme", "Bearer")
	v.SetDefault("auth.issuer", "blogauth")
	v.SetDefault("auth.audience", []string{"blogauth"})

	v.SetDefault("sessions.backend", SessionBackendSQL)
	v.SetDefault("sessions.redis.addr", "localhost:6379")
	v.SetDefault("sessions.redis.username", "")
	v.SetDefault("sessions.redis.password", "")
	v.SetDefault("sessions.redis.db", 0)
	v.SetDefault("sessions.redis.key_prefix", "blogauth:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// New returns a viper instance with defaults and environment overrides
// wired. Keys use dots, env vars use underscores.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path when given and decodes the result. A missing default
// config file is not an error, the defaults and environment apply.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith decodes from v, which may carry bound command flags
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("blogauth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenExpiration <= 0 {
		return fmt.Errorf("auth.token_expiration must be positive, got %d", c.Auth.TokenExpiration)
	}
	switch c.Sessions.Backend {
	case SessionBackendSQL, SessionBackendRedis:
	default:
		return fmt.Errorf("sessions.backend must be %q or %q, got %q", SessionBackendSQL, SessionBackendRedis, c.Sessions.Backend)
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetSigningMethod() string {
	return c.Auth.SigningMethod
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

// GetTokenExpiration is expressed in hours
func (c *Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Auth.Audience
}

// RedisSessionConfig maps the redis block onto the registry settings.
// Sessions expire with the token they back.
func (c *Config) RedisSessionConfig() auth.RedisSessionConfig {
	return auth.RedisSessionConfig{
		Addr:      c.Sessions.Redis.Addr,
		Username:  c.Sessions.Redis.Username,
		Password:  c.Sessions.Redis.Password,
		DB:        c.Sessions.Redis.DB,
		KeyPrefix: c.Sessions.Redis.KeyPrefix,
		TTL:       time.Duration(c.Auth.TokenExpiration) * time.Hour,
	}
}
