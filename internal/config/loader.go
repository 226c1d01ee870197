package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PHYSIO_CONFIG is set
//  3. env (prefix PHYSIO_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PHYSIO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: PHYSIO_ADDR, PHYSIO_MAX_PATIENTS, ...
	// Map env keys like PHYSIO_MAX_PATIENTS -> max_patients (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PHYSIO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "physio_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	switch {
	case cfg.Addr == "":
		return nil, errors.New("addr must not be empty")
	case cfg.MaxPatients < 1:
		return nil, errors.New("max_patients must be at least 1")
	case cfg.SessionCodeLength < 4:
		return nil, errors.New("session_code_length must be at least 4")
	case cfg.AccuracyIntervalMS < 100:
		return nil, errors.New("accuracy_interval_ms must be at least 100")
	}
	return &cfg, nil
}
