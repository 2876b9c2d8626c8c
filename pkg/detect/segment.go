package detect

// segmentPair is one completed (tone-duration, preceding-silence-duration)
// measurement, the unit of pattern matching.
type segmentPair struct {
	OnMS  int64
	OffMS int64
}

// segmentTracker turns the per-frame tone-present boolean stream into
// timestamped on/off segments. A segment's duration is only finalized when
// the binary state flips; the tracker emits a completed pair on each falling
// edge for which a preceding silence duration was measured.
type segmentTracker struct {
	inTone bool

	toneStartMS    int64
	silenceStartMS int64
	silenceStarted bool

	lastSilenceMS int64
	silenceKnown  bool
}

// update advances the tracker with the tone decision for the frame at
// nowMS. It returns a completed segment pair and true when a tone segment
// just ended and its preceding silence duration is known. The very first
// edge of a stream never emits a pair.
func (t *segmentTracker) update(present bool, nowMS int64) (segmentPair, bool) {
	if present {
		if !t.inTone {
			// Rising edge: finalize the preceding silence segment.
			t.inTone = true
			if t.silenceStarted {
				t.lastSilenceMS = nowMS - t.silenceStartMS
				t.silenceKnown = true
			}
			t.toneStartMS = nowMS
		}
		return segmentPair{}, false
	}

	if t.inTone {
		// Falling edge: finalize the tone segment.
		t.inTone = false
		onMS := nowMS - t.toneStartMS
		t.silenceStartMS = nowMS
		t.silenceStarted = true
		if t.silenceKnown {
			return segmentPair{OnMS: onMS, OffMS: t.lastSilenceMS}, true
		}
		return segmentPair{}, false
	}

	if !t.silenceStarted {
		t.silenceStartMS = nowMS
		t.silenceStarted = true
	}
	return segmentPair{}, false
}
