package server

import (
	"fmt"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/config"
	"github.com/qwertysam/solar-colony/internal/storage"
)

// ServerContext holds everything handlers need that would otherwise be
// process-wide state: configuration, the manager and its session registry,
// the archive and the metric instruments.
type ServerContext struct {
	Config   *config.Config
	Log      zerolog.Logger
	Metrics  *Metrics
	Recorder *Recorder
	Archive  storage.Backend
	Manager  *GameManager

	// Template is the map every new match is built from
	Template game.SystemSnapshot

	upgrader websocket.Upgrader
}

// NewServerContext wires the server together. backend must already be
// initialised; it is closed by Close.
func NewServerContext(cfg *config.Config, log zerolog.Logger, backend storage.Backend) (*ServerContext, error) {
	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	template := game.DefaultTemplate()
	if cfg.Game.Template != "" {
		data, err := os.ReadFile(cfg.Game.Template)
		if err != nil {
			return nil, fmt.Errorf("reading system template: %w", err)
		}
		template, err = game.ParseSystemSnapshot(data)
		if err != nil {
			return nil, err
		}
	}
	// Catch a broken template now rather than at the first match start
	if _, err := game.LoadSystem(template, game.NewTeams()); err != nil {
		return nil, fmt.Errorf("invalid system template: %w", err)
	}

	sc := &ServerContext{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics,
		Archive:  backend,
		Recorder: NewRecorder(backend, cfg.Storage.QueueSize, log, metrics),
		Template: template,
	}
	sc.upgrader = websocket.Upgrader{
		CheckOrigin:       sc.isValidOrigin,
		EnableCompression: true, // Enable per-message deflate compression
	}
	sc.Manager = NewGameManager(sc)
	return sc, nil
}

// Close flushes the archive. Call it after the manager loop has stopped.
func (sc *ServerContext) Close() error {
	sc.Recorder.Close()
	return sc.Archive.Close()
}
