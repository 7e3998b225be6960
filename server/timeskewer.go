package server

import "time"

// probeTimeout abandons a probe whose echo never came back
const probeTimeout = 10 * time.Second

// Timeskewer estimates one connection's round-trip time. The server sends a
// numbered probe every interval of tick time; only an echo carrying that
// number closes the sample. Clients also probe on their own schedule, and
// those probes never touch the estimate. All methods run on the loop
// goroutine.
type Timeskewer struct {
	interval time.Duration
	now      func() time.Time

	ping    time.Duration
	sampled bool

	seq         int
	outstanding bool
	sentAt      time.Time
	sinceProbe  time.Duration
}

// NewTimeskewer creates an estimator probing every interval. now defaults
// to time.Now.
func NewTimeskewer(interval time.Duration, now func() time.Time) *Timeskewer {
	if now == nil {
		now = time.Now
	}
	return &Timeskewer{
		interval:   interval,
		now:        now,
		sinceProbe: interval, // probe on the first tick
	}
}

// Ping is the smoothed round trip in milliseconds
func (t *Timeskewer) Ping() int {
	return int(t.ping / time.Millisecond)
}

// Sampled reports whether at least one probe has completed
func (t *Timeskewer) Sampled() bool {
	return t.sampled
}

// Update advances the probe timer by one tick and reports whether a probe
// should go out now, along with the sequence number it must carry. A true
// result marks the probe as sent.
func (t *Timeskewer) Update(delta time.Duration) (int, bool) {
	t.sinceProbe += delta

	if t.outstanding {
		if t.now().Sub(t.sentAt) < probeTimeout {
			return 0, false
		}
		t.outstanding = false
	}
	if t.sinceProbe < t.interval {
		return 0, false
	}

	t.sinceProbe = 0
	t.seq++
	t.outstanding = true
	t.sentAt = t.now()
	return t.seq, true
}

// Receive handles a PING_PROBE from the client. An echo of the outstanding
// server probe (same seq) closes the sample and updates the estimate; any
// other probe, including a client's own with seq 0, leaves it alone. It
// returns the current estimate in milliseconds either way.
func (t *Timeskewer) Receive(seq int) int {
	if !t.outstanding || seq == 0 || seq != t.seq {
		return t.Ping()
	}
	t.outstanding = false

	rtt := t.now().Sub(t.sentAt)
	if rtt < 0 {
		rtt = 0
	}
	if !t.sampled {
		t.ping = rtt
		t.sampled = true
	} else {
		t.ping = (t.ping + rtt) / 2
	}
	return t.Ping()
}
