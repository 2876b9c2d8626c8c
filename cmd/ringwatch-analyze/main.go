// Command ringwatch-analyze runs the call-progress detector over a WAV
// recording and prints the classification. Useful for tuning templates and
// thresholds against captured call audio without standing up the server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"

	"github.com/ringwatch/ringwatch/internal/config"
	"github.com/ringwatch/ringwatch/pkg/detect"
	"github.com/ringwatch/ringwatch/pkg/dsp"
)

// frameMS is the analysis frame size. Matches the packetisation interval of
// typical telephony media.
const frameMS = 20

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional YAML config; only the detector section is used")
	verbose := flag.Bool("v", false, "print every intermediate verdict change")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.wav>\n", os.Args[0])
		flag.PrintDefaults()
		return 2
	}

	cfg := detect.DefaultConfig()
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ringwatch-analyze: %v\n", err)
			return 1
		}
		cfg, err = fileCfg.Detector.Detect()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ringwatch-analyze: %v\n", err)
			return 1
		}
	}

	samples, err := loadWAV(flag.Arg(0), cfg.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringwatch-analyze: %v\n", err)
		return 1
	}

	verdict, elapsedMS, err := analyze(cfg, samples, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringwatch-analyze: %v\n", err)
		return 1
	}

	fmt.Printf("verdict: %s (after %d ms of %d ms)\n",
		verdict, elapsedMS, int64(len(samples))*1000/int64(cfg.SampleRate))
	if verdict == detect.VerdictUnknown {
		return 1
	}
	return 0
}

// analyze streams samples through a detection session in frame-sized chunks
// and returns the final verdict and the media time at which it fired.
func analyze(cfg detect.Config, samples []int16, verbose bool) (detect.Verdict, int64, error) {
	sess, err := detect.New(cfg)
	if err != nil {
		return detect.VerdictUnknown, 0, err
	}
	defer sess.Close()

	frameLen := cfg.SampleRate * frameMS / 1000
	var (
		elapsed  int64
		reported detect.Verdict
		firedAt  int64
	)
	for off := 0; off < len(samples); off += frameLen {
		end := off + frameLen
		if end > len(samples) {
			end = len(samples)
		}
		res, err := sess.Feed(samples[off:end], elapsed)
		if err != nil {
			if errors.Is(err, detect.ErrSessionClosed) {
				break
			}
			return detect.VerdictUnknown, 0, err
		}
		elapsed = int64(end) * 1000 / int64(cfg.SampleRate)

		if res.Verdict != detect.VerdictUnknown && res.Verdict != reported {
			reported = res.Verdict
			firedAt = elapsed
			if verbose {
				fmt.Printf("%8d ms  %s (terminal=%v)\n", elapsed, res.Verdict, res.Done)
			}
		}
		if res.Done {
			break
		}
	}
	return sess.Verdict(), firedAt, nil
}

// loadWAV reads a WAV file, downmixes to mono and resamples to rate.
func loadWAV(path string, rate int) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav format: %w", err)
	}
	channels := int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	var samples []int16
	for {
		chunk, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read wav samples: %w", err)
		}
		for _, s := range chunk {
			for c := 0; c < channels; c++ {
				// FloatValue normalises to [-1, 1) regardless of bit depth.
				samples = append(samples, int16(r.FloatValue(s, uint(c))*32767))
			}
		}
	}

	if channels == 2 {
		samples = dsp.DownmixStereo(samples)
	}
	return dsp.Resample(samples, int(format.SampleRate), rate), nil
}
