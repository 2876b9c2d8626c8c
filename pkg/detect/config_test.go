package detect

import (
	"strings"
	"testing"
)

func TestTemplate_BusyWindow(t *testing.T) {
	busy := DefaultConfig().Busy
	for _, on := range []int64{250, 300, 350, 400, 450} {
		for _, off := range []int64{250, 350, 450} {
			if !busy.Matches(on, off) {
				t.Errorf("busy template rejected on=%d off=%d", on, off)
			}
		}
	}
	if busy.Matches(200, 350) {
		t.Error("busy template matched on=200 (too short)")
	}
	if busy.Matches(500, 350) {
		t.Error("busy template matched on=500 (too long)")
	}
}

func TestTemplate_RingbackWindow(t *testing.T) {
	rb := DefaultConfig().Ringback
	for _, c := range []segmentPair{{900, 3000}, {1000, 4000}, {1200, 5000}, {900, 3500}} {
		if !rb.Matches(c.OnMS, c.OffMS) {
			t.Errorf("ringback template rejected on=%d off=%d", c.OnMS, c.OffMS)
		}
	}
	if rb.Matches(350, 350) {
		t.Error("ringback template matched a busy cadence")
	}
}

func TestTemplate_CongestionWindow(t *testing.T) {
	cg := DefaultConfig().Congestion
	for _, c := range []segmentPair{{600, 500}, {700, 700}, {800, 900}, {650, 600}} {
		if !cg.Matches(c.OnMS, c.OffMS) {
			t.Errorf("congestion template rejected on=%d off=%d", c.OnMS, c.OffMS)
		}
	}
	if cg.Matches(550, 700) {
		t.Error("congestion template matched on=550")
	}
}

func TestConfigValidate_Defaults(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate_CollectsAllFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0
	cfg.GoertzelWindow = -1
	cfg.Busy.OnMax = 100 // below OnMin
	cfg.Busy.MinConsecutive = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"sample rate", "goertzel window", "on window", "min_consecutive"} {
		if !strings.Contains(msg, want) {
			t.Errorf("joined error missing %q: %v", want, msg)
		}
	}
}

func TestConfigValidate_HangupPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HangupOn = []Verdict{VerdictUnknown}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for hangup on unknown")
	}
	cfg.HangupOn = []Verdict{VerdictBusy, VerdictCongestion, VerdictTimeout}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid hangup policy rejected: %v", err)
	}
}

func TestVerdict_ParseRoundTrip(t *testing.T) {
	for _, v := range []Verdict{VerdictUnknown, VerdictBusy, VerdictRingback, VerdictCongestion, VerdictTimeout} {
		got, err := ParseVerdict(v.String())
		if err != nil {
			t.Fatalf("ParseVerdict(%q): %v", v.String(), err)
		}
		if got != v {
			t.Fatalf("ParseVerdict(%q) = %v, want %v", v.String(), got, v)
		}
	}
	if _, err := ParseVerdict("answered"); err == nil {
		t.Fatal("expected error for unknown verdict name")
	}
}
