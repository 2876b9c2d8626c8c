package detect

import "testing"

func TestSegmentTracker_EmitsPairWithMeasuredDurations(t *testing.T) {
	var tr segmentTracker

	// 300 ms silence, 350 ms tone, then silence again.
	tr.update(false, 0)
	tr.update(false, 150)
	if _, ok := tr.update(true, 300); ok {
		t.Fatal("rising edge must not emit a pair")
	}
	pair, ok := tr.update(false, 650)
	if !ok {
		t.Fatal("falling edge with known preceding silence must emit a pair")
	}
	if pair.OnMS != 350 || pair.OffMS != 300 {
		t.Fatalf("pair = (%d, %d), want (350, 300)", pair.OnMS, pair.OffMS)
	}
}

func TestSegmentTracker_FirstToneSegmentNotEmitted(t *testing.T) {
	var tr segmentTracker

	// Stream opens mid-tone: no preceding silence was ever measured.
	tr.update(true, 0)
	if _, ok := tr.update(false, 350); ok {
		t.Fatal("first falling edge emitted a pair despite unknown silence duration")
	}

	// The next full cycle has a measured silence and must emit.
	tr.update(true, 700)
	pair, ok := tr.update(false, 1050)
	if !ok {
		t.Fatal("second falling edge did not emit")
	}
	if pair.OnMS != 350 || pair.OffMS != 350 {
		t.Fatalf("pair = (%d, %d), want (350, 350)", pair.OnMS, pair.OffMS)
	}
}

func TestSegmentTracker_NoEmitWithoutEdge(t *testing.T) {
	var tr segmentTracker
	tr.update(false, 0)
	tr.update(true, 300)
	for now := int64(310); now <= 600; now += 10 {
		if _, ok := tr.update(true, now); ok {
			t.Fatalf("pair emitted at %d ms without a state flip", now)
		}
	}
}

func TestSegmentTracker_ConsecutiveCycles(t *testing.T) {
	var tr segmentTracker
	tr.update(false, 0)

	cycles := []struct {
		toneStart, toneEnd int64
		wantOn, wantOff    int64
	}{
		{300, 650, 350, 300},
		{1000, 1350, 350, 350},
		{1700, 2050, 350, 350},
	}
	for i, c := range cycles {
		tr.update(true, c.toneStart)
		pair, ok := tr.update(false, c.toneEnd)
		if !ok {
			t.Fatalf("cycle %d emitted nothing", i)
		}
		if pair.OnMS != c.wantOn || pair.OffMS != c.wantOff {
			t.Fatalf("cycle %d pair = (%d, %d), want (%d, %d)", i, pair.OnMS, pair.OffMS, c.wantOn, c.wantOff)
		}
	}
}
