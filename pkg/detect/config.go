// Package detect implements a call-progress tone analyzer for 8 kHz mono
// PCM early media. It classifies busy, ringback and congestion tones from
// signal energy and on/off timing patterns alone, with no external
// recognition service.
//
// A [Session] is driven synchronously, one frame at a time, by the host that
// owns the audio stream. Per frame it combines a broadband RMS gate with a
// narrow-band Goertzel gate at the target frequency (450 Hz by default),
// tracks tone/silence segment durations, and matches completed segment pairs
// against per-tone timing templates. Sessions hold no locks and spawn no
// goroutines; callers must serialise access to a session.
package detect

import (
	"errors"
	"fmt"
)

// Reference cadence constants for the common 450 Hz call-progress plan.
const (
	DefaultTargetFreq      = 450.0
	DefaultSampleRate      = 8000
	DefaultGoertzelWindow  = 205 // ≈25.6 ms at 8 kHz
	DefaultEnergyThreshold = 500
	DefaultToneThreshold   = 1000
	DefaultMaxDetectTime   = 60000 // ms
)

// Template describes one tone's timing pattern: the tolerated on/off
// duration windows in milliseconds and how many consecutive matching
// segment pairs are required before the verdict fires.
type Template struct {
	OnMin  int64 `json:"on_min_ms" yaml:"on_min_ms"`
	OnMax  int64 `json:"on_max_ms" yaml:"on_max_ms"`
	OffMin int64 `json:"off_min_ms" yaml:"off_min_ms"`
	OffMax int64 `json:"off_max_ms" yaml:"off_max_ms"`

	// MinConsecutive is the number of consecutive matching segment pairs
	// required before this template fires its verdict.
	MinConsecutive int `json:"min_consecutive" yaml:"min_consecutive"`

	// Terminal marks whether firing ends the session. A non-terminal tone
	// (ringback) is reported as the best-known verdict while analysis
	// continues.
	Terminal bool `json:"terminal" yaml:"terminal"`
}

// Matches reports whether a completed segment pair falls inside both the on
// and off duration windows.
func (t Template) Matches(onMS, offMS int64) bool {
	return onMS >= t.OnMin && onMS <= t.OnMax &&
		offMS >= t.OffMin && offMS <= t.OffMax
}

func (t Template) validate(name string) []error {
	var errs []error
	if t.OnMin < 0 || t.OnMax < t.OnMin {
		errs = append(errs, fmt.Errorf("detect: %s template on window [%d,%d] is invalid", name, t.OnMin, t.OnMax))
	}
	if t.OffMin < 0 || t.OffMax < t.OffMin {
		errs = append(errs, fmt.Errorf("detect: %s template off window [%d,%d] is invalid", name, t.OffMin, t.OffMax))
	}
	if t.MinConsecutive < 1 {
		errs = append(errs, fmt.Errorf("detect: %s template min_consecutive must be >= 1, got %d", name, t.MinConsecutive))
	}
	return errs
}

// Config holds the immutable parameters of one detection session.
// Use [DefaultConfig] as the starting point and override fields as needed;
// [New] validates the result before any frame is processed.
type Config struct {
	// TargetFreq is the call-progress tone frequency in Hz.
	TargetFreq float64

	// SampleRate is the PCM sample rate in Hz. The engine expects 8000.
	SampleRate int

	// GoertzelWindow is the narrow-band analysis window length in samples.
	GoertzelWindow int

	// EnergyThreshold is the broadband RMS level above which a frame is
	// considered non-silent.
	EnergyThreshold float64

	// ToneThreshold is the normalized Goertzel energy above which the
	// narrow-band gate considers the target frequency present. Both gates
	// must pass for a frame to count as tone.
	ToneThreshold float64

	// Busy, Ringback and Congestion are the timing templates, checked in
	// that fixed priority order for every completed segment pair.
	Busy       Template
	Ringback   Template
	Congestion Template

	// MaxDetectTime is the overall detection budget in milliseconds.
	// When a frame's elapsed timestamp exceeds it, the session ends with
	// [VerdictTimeout]. Zero disables the guard.
	MaxDetectTime int64

	// HangupOn lists the verdicts that should terminate the call. The engine
	// only reports the request; acting on it is the host's job.
	HangupOn []Verdict
}

// DefaultConfig returns the reference configuration: 450 Hz at 8 kHz with a
// 205-sample window, busy 250–450/250–450 ms (2 consecutive cycles),
// ringback 900–1200/3000–5000 ms (1 cycle, non-terminal), congestion
// 600–800/500–900 ms (2 cycles), a 60 s budget, and hangup on busy only.
func DefaultConfig() Config {
	return Config{
		TargetFreq:      DefaultTargetFreq,
		SampleRate:      DefaultSampleRate,
		GoertzelWindow:  DefaultGoertzelWindow,
		EnergyThreshold: DefaultEnergyThreshold,
		ToneThreshold:   DefaultToneThreshold,
		Busy: Template{
			OnMin: 250, OnMax: 450, OffMin: 250, OffMax: 450,
			MinConsecutive: 2, Terminal: true,
		},
		Ringback: Template{
			OnMin: 900, OnMax: 1200, OffMin: 3000, OffMax: 5000,
			MinConsecutive: 1, Terminal: false,
		},
		Congestion: Template{
			OnMin: 600, OnMax: 800, OffMin: 500, OffMax: 900,
			MinConsecutive: 2, Terminal: true,
		},
		MaxDetectTime: DefaultMaxDetectTime,
		HangupOn:      []Verdict{VerdictBusy},
	}
}

// Validate checks that cfg is a coherent session configuration. It returns a
// joined error listing every failure found, so a bad config surfaces all its
// problems at once.
func (cfg Config) Validate() error {
	var errs []error

	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("detect: sample rate must be positive, got %d", cfg.SampleRate))
	}
	if cfg.GoertzelWindow <= 0 {
		errs = append(errs, fmt.Errorf("detect: goertzel window must be positive, got %d", cfg.GoertzelWindow))
	}
	if cfg.SampleRate > 0 && (cfg.TargetFreq <= 0 || cfg.TargetFreq >= float64(cfg.SampleRate)/2) {
		errs = append(errs, fmt.Errorf("detect: target frequency %v Hz must be in (0, %d)", cfg.TargetFreq, cfg.SampleRate/2))
	}
	if cfg.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("detect: energy threshold must be non-negative, got %v", cfg.EnergyThreshold))
	}
	if cfg.ToneThreshold < 0 {
		errs = append(errs, fmt.Errorf("detect: tone threshold must be non-negative, got %v", cfg.ToneThreshold))
	}
	if cfg.MaxDetectTime < 0 {
		errs = append(errs, fmt.Errorf("detect: max detect time must be non-negative, got %d", cfg.MaxDetectTime))
	}

	errs = append(errs, cfg.Busy.validate("busy")...)
	errs = append(errs, cfg.Ringback.validate("ringback")...)
	errs = append(errs, cfg.Congestion.validate("congestion")...)

	for _, v := range cfg.HangupOn {
		switch v {
		case VerdictBusy, VerdictRingback, VerdictCongestion, VerdictTimeout:
		default:
			errs = append(errs, fmt.Errorf("detect: hangup policy cannot include %q", v))
		}
	}

	return errors.Join(errs...)
}

// hangupWanted reports whether the policy asks to terminate the call for v.
func (cfg Config) hangupWanted(v Verdict) bool {
	for _, h := range cfg.HangupOn {
		if h == v {
			return true
		}
	}
	return false
}
