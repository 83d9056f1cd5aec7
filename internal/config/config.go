// Package config loads orgctl settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const envPrefix = "ORGCTL_"

// DotenvFiles are loaded in order. Variables already set win, so
// .env.local overrides .env.
var DotenvFiles = []string{".env.local", ".env"}

type Config struct {
	BaseURL   string        `env:"BASE_URL" validate:"required,url"`
	Token     string        `env:"TOKEN"`
	Timeout   time.Duration `env:"TIMEOUT" validate:"gt=0"`
	DBPath    string        `env:"DB" validate:"required"`
	LogLevel  string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string        `env:"LOG_FORMAT" validate:"oneof=json console"`
	LogFile   string        `env:"LOG_FILE"`
	Operator  string        `env:"OPERATOR" validate:"required"`

	// Warnings lists values that were rejected and replaced by defaults.
	Warnings []string `env:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	dir := ".orgctl"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".orgctl")
	}
	operator := os.Getenv("USER")
	if operator == "" {
		operator = "operator"
	}
	return Config{
		BaseURL:   "http://localhost:8888/api/v1/system",
		Timeout:   10 * time.Second,
		DBPath:    filepath.Join(dir, "orgctl.db"),
		LogLevel:  "info",
		LogFormat: "json",
		LogFile:   filepath.Join(dir, "orgctl.log"),
		Operator:  operator,
	}
}

// LoadDotenv loads the files that exist and reports how many were read.
func LoadDotenv(files ...string) (int, error) {
	var existing []string
	for _, f := range files {
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadConfig reads ORGCTL_* variables over the defaults. Unparseable or
// invalid values keep their default and are reported in Warnings.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if _, err := LoadDotenv(DotenvFiles...); err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("reading .env: %v", err))
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				cfg.Warnings = append(cfg.Warnings, e.Error())
			}
		} else {
			cfg.Warnings = append(cfg.Warnings, err.Error())
		}
	}
	cfg.sanitize()
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) sanitize() {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	def := DefaultConfig()
	for _, fe := range verrs {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s%s: invalid value %q, using default", envPrefix, envName(fe.Field()), fmt.Sprint(fe.Value())))
		switch fe.Field() {
		case "BaseURL":
			c.BaseURL = def.BaseURL
		case "Timeout":
			c.Timeout = def.Timeout
		case "DBPath":
			c.DBPath = def.DBPath
		case "LogLevel":
			c.LogLevel = def.LogLevel
		case "LogFormat":
			c.LogFormat = def.LogFormat
		case "Operator":
			c.Operator = def.Operator
		}
	}
}

func envName(field string) string {
	switch field {
	case "BaseURL":
		return "BASE_URL"
	case "DBPath":
		return "DB"
	case "LogLevel":
		return "LOG_LEVEL"
	case "LogFormat":
		return "LOG_FORMAT"
	default:
		return strings.ToUpper(field)
	}
}
