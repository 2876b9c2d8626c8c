package detect

// classifier matches completed segment pairs against the configured timing
// templates and tracks consecutive-match counts per tone. Templates are
// checked in fixed priority order: busy, ringback, congestion. A match for
// one tone resets the counters of all others; a pair matching nothing
// resets everything.
type classifier struct {
	templates []toneTemplate
	counts    map[Verdict]int
}

type toneTemplate struct {
	kind Verdict
	tpl  Template
}

func newClassifier(cfg Config) classifier {
	return classifier{
		templates: []toneTemplate{
			{VerdictBusy, cfg.Busy},
			{VerdictRingback, cfg.Ringback},
			{VerdictCongestion, cfg.Congestion},
		},
		counts: make(map[Verdict]int, 3),
	}
}

// observe feeds one completed segment pair through the templates. When a
// template's consecutive-match count reaches its minimum, observe returns
// that tone's verdict and true.
func (c *classifier) observe(p segmentPair) (Verdict, bool) {
	for _, t := range c.templates {
		if !t.tpl.Matches(p.OnMS, p.OffMS) {
			continue
		}
		for k := range c.counts {
			if k != t.kind {
				c.counts[k] = 0
			}
		}
		c.counts[t.kind]++
		if c.counts[t.kind] >= t.tpl.MinConsecutive {
			return t.kind, true
		}
		return VerdictUnknown, false
	}

	for k := range c.counts {
		c.counts[k] = 0
	}
	return VerdictUnknown, false
}
