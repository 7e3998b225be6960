package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/qwertysam/solar-colony/server"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics wraps the server's OTel instruments. It uses the global meter,
// which is a no-op until an SDK provider is installed.
type Metrics struct {
	tickDuration metric.Float64Histogram
	activeGames  metric.Int64ObservableGauge
	packets      metric.Int64Counter
	rejected     metric.Int64Counter
	tickFaults   metric.Int64Counter
	archiveDrops metric.Int64Counter

	games atomic.Int64
}

// NewMetrics registers every instrument
func NewMetrics() (*Metrics, error) {
	m := &Metrics{}
	mt := meter()

	var err error

	m.tickDuration, err = mt.Float64Histogram(
		"game.tick.duration",
		metric.WithDescription("Time spent advancing every game for one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick histogram: %w", err)
	}

	m.activeGames, err = mt.Int64ObservableGauge(
		"game.active",
		metric.WithDescription("Games currently registered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active games gauge: %w", err)
	}
	_, err = mt.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(m.activeGames, m.games.Load())
			return nil
		},
		m.activeGames,
	)
	if err != nil {
		return nil, fmt.Errorf("registering active games callback: %w", err)
	}

	m.packets, err = mt.Int64Counter(
		"net.packets.handled",
		metric.WithDescription("Inbound packets handled, by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating packet counter: %w", err)
	}

	m.rejected, err = mt.Int64Counter(
		"net.packets.rejected",
		metric.WithDescription("Inbound packets ignored, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	m.tickFaults, err = mt.Int64Counter(
		"game.tick.faults",
		metric.WithDescription("Game updates that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick fault counter: %w", err)
	}

	m.archiveDrops, err = mt.Int64Counter(
		"archive.dropped",
		metric.WithDescription("Archive writes dropped due to a full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating archive drop counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) tick(d time.Duration) {
	m.tickDuration.Record(context.Background(), float64(d)/float64(time.Millisecond))
}

func (m *Metrics) setGames(n int) {
	m.games.Store(int64(n))
}

func (m *Metrics) packet(t PacketType) {
	m.packets.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", string(t))))
}

func (m *Metrics) reject(t PacketType, reason string) {
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", string(t)),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) tickFault() {
	m.tickFaults.Add(context.Background(), 1)
}

func (m *Metrics) archiveDropped(kind string) {
	m.archiveDrops.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}
