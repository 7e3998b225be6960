// Package storage archives finished and in-progress matches: the starting
// snapshot, every accepted player action and the final state digest. The
// archive is what makes a match verifiable after the fact with game.Replay.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/config"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchNotOpen  = errors.New("no open match for game")
)

// TeamRecord is a team as it stood when the match began
type TeamRecord struct {
	ID      int      `json:"id"`
	Colour  string   `json:"colour"`
	Pixels  int      `json:"pixels"`
	Players []string `json:"players"`
}

// MatchRecord describes one match
type MatchRecord struct {
	GameID     string
	MaxPlayers int
	Teams      []TeamRecord
	Snapshot   game.SystemSnapshot
	StartedAt  time.Time

	EndedAt *time.Time
	EndTime float64 // simulation seconds when the match ended
	Digest  string
}

// ActionRecord is one journaled player action
type ActionRecord struct {
	GameID string
	Seq    int
	Team   int
	Action game.Action
}

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	StartMatch(m *MatchRecord) error
	RecordAction(a *ActionRecord) error
	EndMatch(gameID string, endedAt time.Time, endTime float64, digest string) error

	// LoadMatch returns the most recent match archived under gameID
	LoadMatch(gameID string) (*MatchRecord, []ActionRecord, error)
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "none":
		return Nop{}, nil
	case "sqlite":
		db, err := OpenSqlite(cfg.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		return NewGorm(db, log), nil
	case "postgres":
		db, err := OpenPostgres(cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		return NewGorm(db, log), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) Init() error                                       { return nil }
func (Nop) Close() error                                      { return nil }
func (Nop) StartMatch(*MatchRecord) error                     { return nil }
func (Nop) RecordAction(*ActionRecord) error                  { return nil }
func (Nop) EndMatch(string, time.Time, float64, string) error { return nil }
func (Nop) LoadMatch(string) (*MatchRecord, []ActionRecord, error) {
	return nil, nil, ErrMatchNotFound
}
