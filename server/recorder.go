package server

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/internal/storage"
)

type archiveJob struct {
	kind string
	run  func(storage.Backend) error
}

// Recorder hands archive writes to a background goroutine so the database
// never stalls the tick loop. When the queue is full writes are dropped and
// counted.
type Recorder struct {
	backend storage.Backend
	jobs    chan archiveJob
	done    chan struct{}
	log     zerolog.Logger
	metrics *Metrics

	closeOnce sync.Once
}

// NewRecorder starts the writer goroutine
func NewRecorder(backend storage.Backend, queueSize int, log zerolog.Logger, metrics *Metrics) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Recorder{
		backend: backend,
		jobs:    make(chan archiveJob, queueSize),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "recorder").Logger(),
		metrics: metrics,
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for job := range r.jobs {
		if err := job.run(r.backend); err != nil {
			r.log.Error().Err(err).Str("kind", job.kind).Msg("Archive write failed")
		}
	}
}

func (r *Recorder) enqueue(job archiveJob) {
	select {
	case r.jobs <- job:
	default:
		r.log.Warn().Str("kind", job.kind).Msg("Archive queue full, dropping write")
		if r.metrics != nil {
			r.metrics.archiveDropped(job.kind)
		}
	}
}

// StartMatch archives a match's starting state
func (r *Recorder) StartMatch(rec *storage.MatchRecord) {
	r.enqueue(archiveJob{kind: "start", run: func(b storage.Backend) error {
		return b.StartMatch(rec)
	}})
}

// RecordAction journals one accepted action
func (r *Recorder) RecordAction(rec *storage.ActionRecord) {
	r.enqueue(archiveJob{kind: "action", run: func(b storage.Backend) error {
		return b.RecordAction(rec)
	}})
}

// EndMatch closes a match's journal
func (r *Recorder) EndMatch(gameID string, endTime float64, digest string) {
	endedAt := time.Now()
	r.enqueue(archiveJob{kind: "end", run: func(b storage.Backend) error {
		return b.EndMatch(gameID, endedAt, endTime, digest)
	}})
}

// Close flushes pending writes and stops the goroutine. Nothing may be
// recorded after Close.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.jobs)
		<-r.done
	})
}
