package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"` // development, production

	// Payroll backend
	APIURL     string        `env:"API_URL" envDefault:"http://127.0.0.1:8000"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"0s"`

	// Client state
	StateDatabaseURL string        `env:"STATE_DATABASE_URL" envDefault:"file:payroll-console.db"`
	ClientTTL        time.Duration `env:"CLIENT_TTL" envDefault:"4h"`

	// Security
	SessionSecret      string `env:"SESSION_SECRET"`
	SecureCookies      bool   `env:"SECURE_COOKIES" envDefault:"false"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	Cors               struct {
		TrustedOrigins []string `env:"CORS_TRUSTED_ORIGINS" envSeparator:","`
	}

	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`
	Currency    string `env:"CURRENCY" envDefault:"VND"`
}

// Load reads .env (if present), then the environment, then command-line
// flags; later sources win.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Server port")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development, production)")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Payroll backend base URL")
	fs.StringVar(&cfg.StateDatabaseURL, "state-database-url", cfg.StateDatabaseURL, "SQLite DSN or postgres:// URL for client state")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Cors.TrustedOrigins = trimAll(cfg.Cors.TrustedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URL is required")
	}
	if c.StateDatabaseURL == "" {
		return errors.New("STATE_DATABASE_URL is required")
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters")
	}
	if c.APITimeout < 0 {
		return errors.New("API_TIMEOUT must not be negative")
	}
	if c.ClientTTL <= 0 {
		return errors.New("CLIENT_TTL must be positive")
	}
	if c.LoginRatePerMinute <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE must be positive")
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.New("METRICS_PATH must start with /")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CLI configures payrollctl. Its state lives in a local SQLite file; values
// are encrypted when Key is set.
type CLI struct {
	APIURL    string `env:"API_URL" envDefault:"http://127.0.0.1:8000"`
	StatePath string `env:"PAYROLLCTL_STATE"`
	Key       string `env:"PAYROLLCTL_KEY"`
	Currency  string `env:"CURRENCY" envDefault:"VND"`
}

func LoadCLI() (*CLI, error) {
	_ = godotenv.Load()

	cfg := &CLI{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.StatePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.StatePath = filepath.Join(dir, "payrollctl", "state.db")
	}
	return cfg, nil
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
