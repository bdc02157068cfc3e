package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRUSTSCORE_"

// legacyEnv maps unprefixed variables still honored for compatibility.
var legacyEnv = map[string]string{ //nolint:gochecknoglobals // lookup table
	"LOG_FILE":     "log_file",
	"LOG_LEVEL":    "log_level",
	"GITHUB_TOKEN": "github_token",
	"HF_TOKEN":     "hf_token",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TRUSTSCORE_CONFIG is set
//  3. legacy env (LOG_FILE, LOG_LEVEL, GITHUB_TOKEN, HF_TOKEN)
//  4. env (prefix TRUSTSCORE_)
//
// A weights, license or size cap table given in the file replaces the default
// table instead of being merged into it.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	legacy := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// TRUSTSCORE_WORKER_COUNT -> worker_count (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if k.Exists("weights") {
		cfg.Weights = nil
	}
	if k.Exists("size_caps_mb") {
		cfg.SizeCapsMB = nil
	}
	if k.Exists("license_compatible") {
		cfg.LicenseCompatible = nil
	}
	if k.Exists("license_incompatible") {
		cfg.LicenseIncompatible = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg.LicenseCompatible = splitList(cfg.LicenseCompatible)
	cfg.LicenseIncompatible = splitList(cfg.LicenseIncompatible)
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList expands comma separated entries, as given by env vars.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
