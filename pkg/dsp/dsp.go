// Package dsp provides the signal primitives used by the tone detection
// engine: broadband RMS energy, a single-frequency Goertzel accumulator,
// and PCM frame decoding.
//
// Everything in this package is plain numeric state with no goroutines and
// no locking. Callers own the sequencing.
package dsp

import (
	"fmt"
	"math"
)

// RMS returns the root-mean-square magnitude of a block of 16-bit samples.
// It is the broadband "is there any signal at all" measure; it says nothing
// about frequency content. Returns 0 for an empty block.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DecodePCM16 converts little-endian 16-bit linear PCM bytes to samples.
// Returns an error if the byte count is odd.
func DecodePCM16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("dsp: odd PCM byte count %d", len(data))
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// EncodePCM16 converts samples to little-endian 16-bit linear PCM bytes.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
