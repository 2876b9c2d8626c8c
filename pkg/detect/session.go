package detect

import (
	"errors"
	"fmt"

	"github.com/ringwatch/ringwatch/pkg/dsp"
)

// ErrSessionClosed is returned by [Session.Feed] after the session produced
// a terminal verdict or was closed. It signals a tolerated race between the
// last processed frame and host teardown, not a hard failure: the returned
// [Result] still carries the sticky verdict.
var ErrSessionClosed = errors.New("detect: session is closed")

// Result is the tri-state outcome of one Feed call.
type Result struct {
	// Verdict is the current best-known classification. For a live session
	// this is [VerdictUnknown] until a tone is recognized; a non-terminal
	// ringback detection updates it without ending the session.
	Verdict Verdict

	// Done is true once the session reached a terminal verdict. Further
	// frames are no-ops.
	Done bool

	// Hangup is true when the terminal verdict matches the configured
	// hangup policy. It is raised at most once, on the frame that produced
	// the terminal verdict.
	Hangup bool
}

// Session is one call-progress detection session. It owns all analysis
// state for the lifetime of one attached audio stream and is driven by
// sequential Feed calls, one per inbound frame, in strict temporal order.
//
// A Session is not safe for concurrent use. It never blocks and spawns no
// goroutines; the single built-in timeout is evaluated against each frame's
// reported timestamp, never a background timer.
type Session struct {
	cfg     Config
	goertzl *dsp.Goertzel
	tracker segmentTracker
	cls     classifier

	// toneEnergy latches the narrow-band reading of the most recently
	// completed Goertzel window, which is coarser than frame granularity.
	toneEnergy float64

	verdict Verdict
	done    bool
	closed  bool
}

// New validates cfg and attaches a new detection session. The Goertzel
// coefficient is computed here, from this session's configuration, so
// concurrent sessions with different targets do not share state.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := dsp.NewGoertzel(cfg.TargetFreq, float64(cfg.SampleRate), cfg.GoertzelWindow)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	return &Session{
		cfg:     cfg,
		goertzl: g,
		cls:     newClassifier(cfg),
	}, nil
}

// Feed analyses one frame of 16-bit mono PCM. elapsedMS is the frame's
// monotonic timestamp in milliseconds since detection start; wall-clock
// time is never consulted. Empty frames are skipped without touching timing
// state. After a terminal verdict or Close, Feed is an idempotent no-op that
// returns the sticky result together with [ErrSessionClosed].
func (s *Session) Feed(samples []int16, elapsedMS int64) (Result, error) {
	if s.closed || s.done {
		return Result{Verdict: s.verdict, Done: true}, ErrSessionClosed
	}

	if s.cfg.MaxDetectTime > 0 && elapsedMS > s.cfg.MaxDetectTime {
		s.verdict = VerdictTimeout
		s.done = true
		return Result{
			Verdict: s.verdict,
			Done:    true,
			Hangup:  s.cfg.hangupWanted(VerdictTimeout),
		}, nil
	}

	if len(samples) == 0 {
		// Malformed frame: skip, keep timing state intact.
		return Result{Verdict: s.verdict}, nil
	}

	rms := dsp.RMS(samples)
	for _, sample := range samples {
		if s.goertzl.Feed(sample) {
			if e, ok := s.goertzl.Energy(); ok {
				s.toneEnergy = e
			}
		}
	}

	// Both gates must agree: loud enough broadband AND tonal at the target
	// frequency, so speech or noise on early media does not read as tone.
	present := rms >= s.cfg.EnergyThreshold && s.toneEnergy >= s.cfg.ToneThreshold

	pair, completed := s.tracker.update(present, elapsedMS)
	if !completed {
		return Result{Verdict: s.verdict}, nil
	}

	kind, fired := s.cls.observe(pair)
	if !fired {
		return Result{Verdict: s.verdict}, nil
	}

	s.verdict = kind
	hangup := s.cfg.hangupWanted(kind)
	terminal := s.template(kind).Terminal || hangup
	if terminal {
		s.done = true
	}
	return Result{Verdict: kind, Done: terminal, Hangup: hangup}, nil
}

// Verdict returns the current best-known verdict.
func (s *Session) Verdict() Verdict { return s.verdict }

// Active reports whether the session is still consuming frames.
func (s *Session) Active() bool { return !s.done && !s.closed }

// Config returns the session's immutable configuration.
func (s *Session) Config() Config { return s.cfg }

// Close detaches the session. Subsequent Feed calls are no-ops returning
// [ErrSessionClosed]. Close is idempotent.
func (s *Session) Close() {
	s.closed = true
}

func (s *Session) template(v Verdict) Template {
	switch v {
	case VerdictBusy:
		return s.cfg.Busy
	case VerdictRingback:
		return s.cfg.Ringback
	case VerdictCongestion:
		return s.cfg.Congestion
	}
	return Template{}
}
