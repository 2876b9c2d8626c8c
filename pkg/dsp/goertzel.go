package dsp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrWindowSize indicates the analysis window must be positive.
	ErrWindowSize = errors.New("dsp: goertzel window must be positive")
	// ErrSampleRate indicates the sample rate must be positive.
	ErrSampleRate = errors.New("dsp: sample rate must be positive")
	// ErrFrequency indicates the target frequency must lie in (0, Nyquist).
	ErrFrequency = errors.New("dsp: target frequency must be positive and below Nyquist")
)

// Goertzel estimates the signal power at a single target frequency using the
// Goertzel recurrence. It accumulates samples until a full analysis window
// has been seen, at which point the narrow-band energy can be read and the
// state resets. The window is independent of frame boundaries: feeding a
// 160-sample frame into a 205-sample window simply leaves the accumulator
// partially filled for the next frame.
//
// Not safe for concurrent use; each detection session owns its own instance.
type Goertzel struct {
	coef   float64
	window int

	s1, s2 float64
	count  int

	// energy holds the reading from the most recently completed window.
	energy float64
	ready  bool
}

// NewGoertzel creates an accumulator for the given target frequency, sample
// rate and window length. The coefficient 2·cos(2π·k/N) with
// k = round(N·f/fs) is computed once per instance, so sessions with
// different configurations can coexist.
func NewGoertzel(freqHz, sampleRate float64, window int) (*Goertzel, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWindowSize, window)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrSampleRate, sampleRate)
	}
	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return nil, fmt.Errorf("%w: %v Hz at %v Hz sample rate", ErrFrequency, freqHz, sampleRate)
	}

	k := math.Round(float64(window) * freqHz / sampleRate)
	coef := 2 * math.Cos(2*math.Pi*k/float64(window))

	return &Goertzel{coef: coef, window: window}, nil
}

// Feed pushes one sample through the recurrence. It returns true when this
// sample completed an analysis window; the window's energy is then available
// via Energy and the accumulator starts over.
func (g *Goertzel) Feed(sample int16) bool {
	s0 := float64(sample) + g.coef*g.s1 - g.s2
	g.s2 = g.s1
	g.s1 = s0
	g.count++

	if g.count < g.window {
		return false
	}

	power := g.s1*g.s1 + g.s2*g.s2 - g.coef*g.s1*g.s2
	if power < 0 {
		// Floating point rounding can push a near-zero power negative.
		power = 0
	}
	g.energy = power / float64(g.window*g.window)
	g.ready = true
	g.s1, g.s2 = 0, 0
	g.count = 0
	return true
}

// Energy returns the normalized narrow-band power of the most recently
// completed window: (s1² + s2² − coef·s1·s2) / N². The second return value
// is false until at least one full window has been processed.
func (g *Goertzel) Energy() (float64, bool) {
	return g.energy, g.ready
}

// Coefficient returns the precomputed recurrence coefficient.
func (g *Goertzel) Coefficient() float64 { return g.coef }

// Window returns the configured analysis window length in samples.
func (g *Goertzel) Window() int { return g.window }

// Reset clears all accumulated state, including the last window reading.
func (g *Goertzel) Reset() {
	g.s1, g.s2 = 0, 0
	g.count = 0
	g.energy = 0
	g.ready = false
}
