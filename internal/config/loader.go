package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown keys are rejected so typos surface instead of silently falling
// back to defaults. Useful in tests where configs are built from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Store.Backend != "" && !cfg.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: none, file, postgres", cfg.Store.Backend))
	}
	if cfg.Store.Backend == StoreFile && cfg.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required for the file backend"))
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required for the postgres backend"))
	}

	// Materialise the detector overrides once so bad verdict names and
	// template ranges are caught at load time, not at first attach.
	det, err := cfg.Detector.Detect()
	if err != nil {
		errs = append(errs, err)
	} else if err := det.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
