package detect

import "fmt"

// Verdict is the outcome of a call-progress analysis session.
type Verdict int

const (
	// VerdictUnknown means analysis is still running (or nothing was
	// recognized before the session ended).
	VerdictUnknown Verdict = iota

	// VerdictBusy means the called party's line returned a busy tone.
	VerdictBusy

	// VerdictRingback means the line is ringing. Ringback is reported as the
	// current best-known verdict but does not end the session on its own.
	VerdictRingback

	// VerdictCongestion means the network returned a congestion
	// (fast-busy/reorder) tone.
	VerdictCongestion

	// VerdictTimeout means the maximum detection time elapsed without a
	// terminal classification.
	VerdictTimeout
)

// String returns the lower-case wire name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictUnknown:
		return "unknown"
	case VerdictBusy:
		return "busy"
	case VerdictRingback:
		return "ringback"
	case VerdictCongestion:
		return "congestion"
	case VerdictTimeout:
		return "timeout"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// ParseVerdict converts a wire name back into a [Verdict].
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "unknown":
		return VerdictUnknown, nil
	case "busy":
		return VerdictBusy, nil
	case "ringback":
		return VerdictRingback, nil
	case "congestion":
		return VerdictCongestion, nil
	case "timeout":
		return VerdictTimeout, nil
	}
	return VerdictUnknown, fmt.Errorf("detect: unknown verdict %q", s)
}

// MarshalText implements encoding.TextMarshaler so verdicts serialise as
// their wire names in JSON and YAML.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
