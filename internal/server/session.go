package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zaf/g711"

	"github.com/ringwatch/ringwatch/pkg/detect"
	"github.com/ringwatch/ringwatch/pkg/dsp"
)

// Codec identifies the media encoding of inbound frames.
type Codec string

const (
	// CodecL16 is 16-bit signed linear PCM, little-endian.
	CodecL16 Codec = "l16"

	// CodecPCMU is G.711 µ-law.
	CodecPCMU Codec = "pcmu"

	// CodecPCMA is G.711 A-law.
	CodecPCMA Codec = "pcma"
)

// decode converts one media payload into linear PCM samples.
func (c Codec) decode(data []byte) ([]int16, error) {
	switch c {
	case CodecL16:
		return dsp.DecodePCM16(data)
	case CodecPCMU:
		return dsp.DecodePCM16(g711.DecodeUlaw(data))
	case CodecPCMA:
		return dsp.DecodePCM16(g711.DecodeAlaw(data))
	}
	return nil, fmt.Errorf("server: unsupported codec %q", c)
}

// IsValid reports whether c is a recognised codec name.
func (c Codec) IsValid() bool {
	switch c {
	case CodecL16, CodecPCMU, CodecPCMA:
		return true
	}
	return false
}

// callSession pairs one detection session with its transport bookkeeping.
// The detect engine itself is single-threaded; this wrapper owns the mutex
// that serialises media frames, status reads and detach.
type callSession struct {
	ID        string
	Codec     Codec
	CreatedAt time.Time

	mu       sync.Mutex
	det      *detect.Session
	samples  int64 // total samples accepted, drives the elapsed-ms clock
	last     detect.Result
	recorded bool
}

// elapsedMS returns the media-clock timestamp of the next frame in
// milliseconds: time is derived from accepted samples, never wall clock,
// so slow or bursty transports cannot skew segment durations. A reconnecting
// media socket may race an old one, so the counter is read under the lock.
func (cs *callSession) elapsedMS() int64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.elapsedMSLocked()
}

// elapsedMSLocked requires cs.mu to be held.
func (cs *callSession) elapsedMSLocked() int64 {
	return cs.samples * 1000 / int64(cs.det.Config().SampleRate)
}

// feed decodes and analyses one media payload under the session lock.
func (cs *callSession) feed(payload []byte) (detect.Result, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	samples, err := cs.Codec.decode(payload)
	if err != nil {
		return cs.last, fmt.Errorf("server: decode frame: %w", err)
	}
	res, err := cs.det.Feed(samples, cs.elapsedMSLocked())
	if err != nil {
		// Closed session: keep the sticky result, swallow the signal.
		return res, nil
	}
	cs.samples += int64(len(samples))
	cs.last = res
	return res, nil
}

// status returns a point-in-time snapshot of the session.
func (cs *callSession) status() sessionStatus {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return sessionStatus{
		ID:        cs.ID,
		Codec:     string(cs.Codec),
		Verdict:   cs.det.Verdict(),
		Active:    cs.det.Active(),
		Hangup:    cs.last.Hangup,
		ElapsedMS: cs.elapsedMSLocked(),
		CreatedAt: cs.CreatedAt,
	}
}

// close detaches the underlying detect session. Returns the final snapshot
// and whether this call was the one that closed it (for single-shot
// persistence).
func (cs *callSession) close() (sessionStatus, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.det.Close()
	first := !cs.recorded
	cs.recorded = true
	return sessionStatus{
		ID:        cs.ID,
		Codec:     string(cs.Codec),
		Verdict:   cs.det.Verdict(),
		Active:    false,
		Hangup:    cs.last.Hangup,
		ElapsedMS: cs.elapsedMSLocked(),
		CreatedAt: cs.CreatedAt,
	}, first
}

// registry tracks attached sessions by ID. All methods are safe for
// concurrent use.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*callSession
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*callSession)}
}

// attach creates a detection session from cfg and registers it.
func (r *registry) attach(cfg detect.Config, codec Codec) (*callSession, error) {
	det, err := detect.New(cfg)
	if err != nil {
		return nil, err
	}
	cs := &callSession{
		ID:        uuid.NewString(),
		Codec:     codec,
		CreatedAt: time.Now().UTC(),
		det:       det,
	}
	r.mu.Lock()
	r.sessions[cs.ID] = cs
	r.mu.Unlock()
	return cs, nil
}

func (r *registry) get(id string) (*callSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.sessions[id]
	return cs, ok
}

// remove unregisters and returns the session, if present.
func (r *registry) remove(id string) (*callSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return cs, ok
}

func (r *registry) list() []*callSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*callSession, 0, len(r.sessions))
	for _, cs := range r.sessions {
		out = append(out, cs)
	}
	return out
}
