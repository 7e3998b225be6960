package server

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTimeskewerProbeCadence(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ts := NewTimeskewer(2*time.Second, clock.now)

	seq, ok := ts.Update(33 * time.Millisecond)
	if !ok {
		t.Fatal("expected a probe on the first tick")
	}
	if seq != 1 {
		t.Errorf("first probe seq = %d, want 1", seq)
	}
	// Outstanding probe blocks new ones
	for i := 0; i < 90; i++ {
		if _, ok := ts.Update(33 * time.Millisecond); ok {
			t.Fatalf("probe sent while one was outstanding (tick %d)", i)
		}
	}

	clock.advance(80 * time.Millisecond)
	if got := ts.Receive(seq); got != 80 {
		t.Errorf("first sample = %dms, want 80", got)
	}

	// 90 ticks of 33ms already passed, so the next tick probes again
	next, ok := ts.Update(33 * time.Millisecond)
	if !ok {
		t.Error("expected a probe once the interval elapsed")
	}
	if next != seq+1 {
		t.Errorf("second probe seq = %d, want %d", next, seq+1)
	}
}

func TestTimeskewerSmoothing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ts := NewTimeskewer(time.Second, clock.now)

	samples := []struct {
		rtt  time.Duration
		want int
	}{
		{100 * time.Millisecond, 100},
		{200 * time.Millisecond, 150},
		{50 * time.Millisecond, 100},
	}

	for i, s := range samples {
		seq, ok := ts.Update(time.Second)
		if !ok {
			t.Fatalf("sample %d: no probe sent", i)
		}
		clock.advance(s.rtt)
		if got := ts.Receive(seq); got != s.want {
			t.Errorf("sample %d: ping = %d, want %d", i, got, s.want)
		}
	}
	if !ts.Sampled() {
		t.Error("Sampled() = false after samples")
	}
}

func TestTimeskewerUnsolicitedProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ts := NewTimeskewer(time.Second, clock.now)

	if got := ts.Receive(0); got != 0 {
		t.Errorf("unsolicited probe changed estimate to %d", got)
	}
	if ts.Sampled() {
		t.Error("unsolicited probe counted as a sample")
	}
}

// A client's own periodic probe can land while a server probe is in flight.
// It must not close the sample early.
func TestTimeskewerClientProbeMidFlight(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ts := NewTimeskewer(time.Second, clock.now)

	seq, ok := ts.Update(time.Second)
	if !ok {
		t.Fatal("no probe sent")
	}

	clock.advance(5 * time.Millisecond)
	if got := ts.Receive(0); got != 0 {
		t.Errorf("client probe reported %dms, want 0", got)
	}
	if got := ts.Receive(seq + 7); got != 0 {
		t.Errorf("stale echo reported %dms, want 0", got)
	}
	if ts.Sampled() {
		t.Fatal("unrelated probe closed the sample")
	}

	clock.advance(295 * time.Millisecond)
	if got := ts.Receive(seq); got != 300 {
		t.Errorf("echo sample = %dms, want 300", got)
	}

	// A duplicate echo is ignored once the sample is closed
	clock.advance(time.Second)
	if got := ts.Receive(seq); got != 300 {
		t.Errorf("duplicate echo changed estimate to %d", got)
	}
}

func TestTimeskewerLostProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ts := NewTimeskewer(time.Second, clock.now)

	lost, _ := ts.Update(time.Second)
	clock.advance(probeTimeout)
	seq, ok := ts.Update(time.Second)
	if !ok {
		t.Fatal("expected a fresh probe after the previous one timed out")
	}

	// A late echo of the lost probe does not count against the new one
	clock.advance(40 * time.Millisecond)
	ts.Receive(lost)
	if ts.Sampled() {
		t.Error("late echo of a timed-out probe closed the sample")
	}
	if got := ts.Receive(seq); got != 40 {
		t.Errorf("sample = %dms, want 40", got)
	}
}
