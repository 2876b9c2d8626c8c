// Package config provides the configuration schema and loader for the
// ringwatch server.
package config

import (
	"github.com/ringwatch/ringwatch/pkg/detect"
)

// LogLevel controls log verbosity for the ringwatch server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// StoreBackend selects where verdict records are persisted.
type StoreBackend string

const (
	// StoreNone disables the verdict log.
	StoreNone StoreBackend = "none"

	// StoreFile appends verdict records as JSON lines to a local file.
	StoreFile StoreBackend = "file"

	// StorePostgres writes verdict records to a PostgreSQL table.
	StorePostgres StoreBackend = "postgres"
)

// IsValid reports whether b is a recognised store backend.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreNone, StoreFile, StorePostgres:
		return true
	}
	return false
}

// Config is the root configuration structure for ringwatch.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Detector DetectorConfig `yaml:"detector"`
	Store    StoreConfig    `yaml:"store"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DetectorConfig carries overrides applied on top of [detect.DefaultConfig].
// Unset fields keep the reference values, so an empty section is the stock
// 450 Hz call-progress plan.
type DetectorConfig struct {
	TargetFreqHz    *float64 `json:"target_freq_hz,omitempty" yaml:"target_freq_hz"`
	SampleRate      *int     `json:"sample_rate,omitempty" yaml:"sample_rate"`
	GoertzelWindow  *int     `json:"goertzel_window,omitempty" yaml:"goertzel_window"`
	EnergyThreshold *float64 `json:"energy_threshold,omitempty" yaml:"energy_threshold"`
	ToneThreshold   *float64 `json:"tone_threshold,omitempty" yaml:"tone_threshold"`
	MaxDetectMS     *int64   `json:"max_detect_ms,omitempty" yaml:"max_detect_ms"`

	// HangupOn lists verdict names that should terminate the call.
	// Nil keeps the default (busy only); an explicit empty list disables
	// automatic hangup entirely.
	HangupOn *[]string `json:"hangup_on,omitempty" yaml:"hangup_on"`

	Tones ToneOverrides `json:"tones,omitempty" yaml:"tones"`
}

// ToneOverrides replaces individual timing templates wholesale.
type ToneOverrides struct {
	Busy       *detect.Template `json:"busy,omitempty" yaml:"busy"`
	Ringback   *detect.Template `json:"ringback,omitempty" yaml:"ringback"`
	Congestion *detect.Template `json:"congestion,omitempty" yaml:"congestion"`
}

// StoreConfig configures the verdict audit log.
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`

	// Path is the JSON-lines file used by the "file" backend.
	Path string `yaml:"path"`

	// DSN is the PostgreSQL connection string used by the "postgres" backend.
	DSN string `yaml:"dsn"`
}

// Detect materialises the detector overrides into a full [detect.Config].
// Template and threshold validation happens when a session is attached.
func (d DetectorConfig) Detect() (detect.Config, error) {
	cfg := detect.DefaultConfig()
	if d.TargetFreqHz != nil {
		cfg.TargetFreq = *d.TargetFreqHz
	}
	if d.SampleRate != nil {
		cfg.SampleRate = *d.SampleRate
	}
	if d.GoertzelWindow != nil {
		cfg.GoertzelWindow = *d.GoertzelWindow
	}
	if d.EnergyThreshold != nil {
		cfg.EnergyThreshold = *d.EnergyThreshold
	}
	if d.ToneThreshold != nil {
		cfg.ToneThreshold = *d.ToneThreshold
	}
	if d.MaxDetectMS != nil {
		cfg.MaxDetectTime = *d.MaxDetectMS
	}
	if d.Tones.Busy != nil {
		cfg.Busy = *d.Tones.Busy
	}
	if d.Tones.Ringback != nil {
		cfg.Ringback = *d.Tones.Ringback
	}
	if d.Tones.Congestion != nil {
		cfg.Congestion = *d.Tones.Congestion
	}
	if d.HangupOn != nil {
		cfg.HangupOn = nil
		for _, name := range *d.HangupOn {
			v, err := detect.ParseVerdict(name)
			if err != nil {
				return detect.Config{}, err
			}
			cfg.HangupOn = append(cfg.HangupOn, v)
		}
	}
	return cfg, nil
}
