package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ringwatch/ringwatch/pkg/detect"
)

// mediaEvent is the JSON message pushed to the media WebSocket whenever the
// engine produces a verdict or rejects a frame.
type mediaEvent struct {
	Type      string         `json:"type"` // "verdict" or "error"
	Verdict   detect.Verdict `json:"verdict,omitempty"`
	Terminal  bool           `json:"terminal,omitempty"`
	Hangup    bool           `json:"hangup,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Error     string         `json:"error,omitempty"`
}

// handleMedia upgrades to a WebSocket and streams binary media frames into
// the session. Verdict events are pushed as JSON text messages; a terminal
// verdict closes the socket with a normal closure after persisting the
// record.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.reg.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept", "session_id", cs.ID, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	codecAttr := metric.WithAttributes(attribute.String("codec", string(cs.Codec)))
	s.log.Debug("media stream opened", "session_id", cs.ID, "codec", cs.Codec)

	var reported detect.Verdict
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation. The session stays
			// attached so the client can poll status or reconnect.
			s.log.Debug("media stream closed", "session_id", cs.ID, "error", err)
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}

		start := time.Now()
		res, err := cs.feed(data)
		s.metrics.FeedDuration.Record(ctx, time.Since(start).Seconds())
		if err != nil {
			s.metrics.FrameErrors.Add(ctx, 1)
			s.writeEvent(ctx, conn, cs, mediaEvent{
				Type:      "error",
				ElapsedMS: cs.elapsedMS(),
				Error:     err.Error(),
			})
			continue
		}
		s.metrics.MediaFrames.Add(ctx, 1, codecAttr)

		if res.Verdict != detect.VerdictUnknown && res.Verdict != reported {
			reported = res.Verdict
			s.recordVerdict(ctx, cs, res)
			s.writeEvent(ctx, conn, cs, mediaEvent{
				Type:      "verdict",
				Verdict:   res.Verdict,
				Terminal:  res.Done,
				Hangup:    res.Hangup,
				ElapsedMS: cs.elapsedMS(),
			})
		}

		if res.Done {
			s.reg.remove(cs.ID)
			s.finishSession(ctx, cs)
			conn.Close(websocket.StatusNormalClosure, "detection complete")
			return
		}
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, cs *callSession, ev mediaEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("marshal media event", "session_id", cs.ID, "error", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Debug("write media event", "session_id", cs.ID, "error", err)
	}
}
