package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "CROPADVISOR_"
	EnvConfig = EnvPrefix + "CONFIG"
	EnvDotenv = EnvPrefix + "DOTENV"

	defaultDotenv = ".env"
)

// apiKeyFallbacks are consulted in order when gemini_api_key is unset.
var apiKeyFallbacks = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if CROPADVISOR_CONFIG is set
//  3. env (prefix CROPADVISOR_), after the .env file named by
//     CROPADVISOR_DOTENV (default ".env") has been merged into the
//     environment without overriding variables already set
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// CROPADVISOR_RATE_LIMIT_CAPACITY -> rate_limit_capacity (flat keys)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		for _, name := range apiKeyFallbacks {
			if v := os.Getenv(name); v != "" {
				cfg.GeminiAPIKey = v
				break
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv merges a .env file into the process environment. A missing
// default file is not an error; a missing explicitly named file is.
func loadDotenv() error {
	path := os.Getenv(EnvDotenv)
	explicit := path != ""
	if !explicit {
		path = defaultDotenv
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: dotenv %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}
