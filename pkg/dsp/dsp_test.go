package dsp

import (
	"math"
	"testing"
)

// genSine produces n samples of a sine wave at freqHz.
func genSine(freqHz, sampleRate float64, n int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freqHz*t))
	}
	return out
}

func TestRMS_Empty(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
}

func TestRMS_SineAboveThreshold(t *testing.T) {
	// A 450 Hz tone at telephony amplitude must clear the default
	// broadband energy gate of 500.
	frame := genSine(450, 8000, 320, 8000)
	if got := RMS(frame); got <= 500 {
		t.Fatalf("RMS of 450 Hz sine = %v, want > 500", got)
	}
}

func TestRMS_SilenceBelowThreshold(t *testing.T) {
	frame := make([]int16, 320)
	if got := RMS(frame); got >= 500 {
		t.Fatalf("RMS of silence = %v, want < 500", got)
	}
}

func TestRMS_ConstantSignal(t *testing.T) {
	frame := []int16{100, 100, 100, 100}
	if got := RMS(frame); math.Abs(got-100) > 1e-9 {
		t.Fatalf("RMS = %v, want 100", got)
	}
}

func TestDecodePCM16_RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 12345}
	out, err := DecodePCM16(EncodePCM16(in))
	if err != nil {
		t.Fatalf("DecodePCM16: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestDecodePCM16_OddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{0, 1, 2}); err == nil {
		t.Fatal("expected error for odd byte count")
	}
}
