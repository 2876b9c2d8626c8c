// Package server exposes the call-progress detection engine over HTTP:
// sessions are attached with a JSON request, fed media over a WebSocket,
// and queried or detached over plain REST endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ringwatch/ringwatch/internal/config"
	"github.com/ringwatch/ringwatch/internal/observe"
	"github.com/ringwatch/ringwatch/internal/store"
	"github.com/ringwatch/ringwatch/pkg/detect"
)

// Server handles session lifecycle and media ingress.
type Server struct {
	log      *slog.Logger
	metrics  *observe.Metrics
	store    store.Store
	defaults config.DetectorConfig
	reg      *registry
}

// New creates a Server. st may be nil when verdict persistence is disabled.
func New(log *slog.Logger, metrics *observe.Metrics, st store.Store, defaults config.DetectorConfig) *Server {
	return &Server{
		log:      log,
		metrics:  metrics,
		store:    st,
		defaults: defaults,
		reg:      newRegistry(),
	}
}

// Register attaches all session and verdict routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", s.handleAttach)
	mux.HandleFunc("GET /v1/sessions", s.handleList)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDetach)
	mux.HandleFunc("GET /v1/sessions/{id}/media", s.handleMedia)
	mux.HandleFunc("GET /v1/verdicts", s.handleVerdicts)
}

// attachRequest creates a detection session. The detector section carries
// the same override shape as the server configuration file; unset fields
// inherit the server defaults.
type attachRequest struct {
	Codec    string                 `json:"codec"`
	Detector *config.DetectorConfig `json:"detector,omitempty"`
}

type attachResponse struct {
	ID       string `json:"id"`
	Codec    string `json:"codec"`
	MediaURL string `json:"media_url"`
}

// sessionStatus is the wire representation of one session's state.
type sessionStatus struct {
	ID        string         `json:"id"`
	Codec     string         `json:"codec"`
	Verdict   detect.Verdict `json:"verdict"`
	Active    bool           `json:"active"`
	Hangup    bool           `json:"hangup"`
	ElapsedMS int64          `json:"elapsed_ms"`
	CreatedAt time.Time      `json:"created_at"`
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}

	codec := Codec(req.Codec)
	if codec == "" {
		codec = CodecL16
	}
	if !codec.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported codec %q", req.Codec))
		return
	}

	detCfg := s.defaults
	if req.Detector != nil {
		detCfg = mergeDetector(s.defaults, *req.Detector)
	}
	cfg, err := detCfg.Detect()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cs, err := s.reg.attach(cfg, codec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.ActiveSessions.Add(r.Context(), 1)
	s.log.Info("session attached", "session_id", cs.ID, "codec", codec)

	writeJSON(w, http.StatusCreated, attachResponse{
		ID:       cs.ID,
		Codec:    string(codec),
		MediaURL: "/v1/sessions/" + cs.ID + "/media",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.reg.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, cs.status())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := s.reg.list()
	out := make([]sessionStatus, 0, len(sessions))
	for _, cs := range sessions {
		out = append(out, cs.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.reg.remove(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	st := s.finishSession(r.Context(), cs)
	s.log.Info("session detached", "session_id", cs.ID, "verdict", st.Verdict)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleVerdicts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("verdict log disabled"))
		return
	}
	records, err := s.store.Recent(r.Context(), 100)
	if err != nil {
		s.log.Error("read verdict log", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("read verdict log"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verdicts": records})
}

// finishSession closes the session, updates gauges and persists the record
// exactly once.
func (s *Server) finishSession(ctx context.Context, cs *callSession) sessionStatus {
	st, first := cs.close()
	if !first {
		return st
	}
	s.metrics.ActiveSessions.Add(ctx, -1)
	if s.store != nil && st.Verdict != detect.VerdictUnknown {
		rec := store.Record{
			Timestamp:  time.Now().UTC(),
			SessionID:  st.ID,
			Verdict:    st.Verdict,
			Hangup:     st.Hangup,
			ElapsedMS:  st.ElapsedMS,
			MediaCodec: st.Codec,
		}
		if err := s.store.Save(ctx, rec); err != nil {
			s.log.Error("persist verdict", "session_id", st.ID, "error", err)
		}
	}
	return st
}

// recordVerdict bumps the verdict counters when a session reaches a result.
func (s *Server) recordVerdict(ctx context.Context, cs *callSession, res detect.Result) {
	s.metrics.Verdicts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("verdict", res.Verdict.String())))
	if res.Hangup {
		s.metrics.Hangups.Add(ctx, 1)
	}
	s.log.Info("verdict",
		"session_id", cs.ID,
		"verdict", res.Verdict,
		"terminal", res.Done,
		"hangup", res.Hangup,
	)
}

// mergeDetector layers per-session overrides on top of the server defaults.
func mergeDetector(base, over config.DetectorConfig) config.DetectorConfig {
	out := base
	if over.TargetFreqHz != nil {
		out.TargetFreqHz = over.TargetFreqHz
	}
	if over.SampleRate != nil {
		out.SampleRate = over.SampleRate
	}
	if over.GoertzelWindow != nil {
		out.GoertzelWindow = over.GoertzelWindow
	}
	if over.EnergyThreshold != nil {
		out.EnergyThreshold = over.EnergyThreshold
	}
	if over.ToneThreshold != nil {
		out.ToneThreshold = over.ToneThreshold
	}
	if over.MaxDetectMS != nil {
		out.MaxDetectMS = over.MaxDetectMS
	}
	if over.HangupOn != nil {
		out.HangupOn = over.HangupOn
	}
	if over.Tones.Busy != nil {
		out.Tones.Busy = over.Tones.Busy
	}
	if over.Tones.Ringback != nil {
		out.Tones.Ringback = over.Tones.Ringback
	}
	if over.Tones.Congestion != nil {
		out.Tones.Congestion = over.Tones.Congestion
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
