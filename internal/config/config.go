// Package config loads client configuration from the environment, an
// optional .env file, and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"eddisonso.com/file-vault/pkg/vaultlog"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Token store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var (
	// ErrInvalidStore indicates an unknown token store kind.
	ErrInvalidStore = errors.New("invalid token store")
	// ErrInvalidAddr indicates a service address that is not an http(s) URL.
	ErrInvalidAddr = errors.New("invalid service address")
	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds all client settings.
type Config struct {
	AuthAddr    string        `env:"VAULT_AUTH_ADDR" envDefault:"http://localhost:8000"`
	FileAddr    string        `env:"VAULT_FILE_ADDR" envDefault:"http://localhost:8001"`
	TokenStore  string        `env:"VAULT_TOKEN_STORE" envDefault:"file"`
	TokenPath   string        `env:"VAULT_TOKEN_PATH"`
	RedisURL    string        `env:"VAULT_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string        `env:"VAULT_REDIS_PREFIX" envDefault:"file-vault:"`
	Timeout     time.Duration `env:"VAULT_TIMEOUT" envDefault:"120s"`
	LogLevel    string        `env:"VAULT_LOG_LEVEL" envDefault:"warn"`
	LogFile     string        `env:"VAULT_LOG_FILE"`
}

// Load reads envFiles (or ./.env when none are given, ignoring a missing
// file) and then parses the environment. Variables already set in the
// environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultTokenPath()
	}
	return cfg, nil
}

// ApplyFlags overrides settings from command-line args.
func (c *Config) ApplyFlags(args []string, output io.Writer) error {
	fs := flag.NewFlagSet("vault", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&c.AuthAddr, "auth", c.AuthAddr, "Auth service base address")
	fs.StringVar(&c.FileAddr, "files", c.FileAddr, "File service base address")
	fs.StringVar(&c.TokenStore, "store", c.TokenStore, "Token store (file, memory, redis)")
	fs.StringVar(&c.TokenPath, "token-path", c.TokenPath, "Token file for the file store")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL for the redis store")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "HTTP request timeout")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Append JSON logs to this file")
	return fs.Parse(args)
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	switch c.TokenStore {
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: %q (want file, memory or redis)", ErrInvalidStore, c.TokenStore)
	}
	if err := validateAddr("auth", c.AuthAddr); err != nil {
		return err
	}
	if err := validateAddr("files", c.FileAddr); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if _, ok := vaultlog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

func validateAddr(name, addr string) error {
	u, err := url.Parse(addr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s=%q", ErrInvalidAddr, name, addr)
	}
	return nil
}

// DefaultTokenPath returns the per-user token file location.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".file-vault-token"
	}
	return filepath.Join(dir, "file-vault", "token")
}
