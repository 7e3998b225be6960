package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qwertysam/solar-colony/game"
)

// Match is the archived row for one match
type Match struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	GameID     string         `json:"gameID" gorm:"size:16;index"`
	MaxPlayers int            `json:"maxPlayers"`
	Teams      datatypes.JSON `json:"teams"`
	Snapshot   datatypes.JSON `json:"snapshot"`
	StartedAt  time.Time      `json:"startedAt"`
	EndedAt    *time.Time     `json:"endedAt"`
	EndTime    float64        `json:"endTime"`
	Digest     string         `json:"digest" gorm:"size:64"`
}

// MatchAction is one journaled command. Payload holds the msgpack-encoded
// game.Action so the journal stays compact for long matches.
type MatchAction struct {
	ID      uint    `json:"id" gorm:"primarykey"`
	MatchID uint    `json:"matchID" gorm:"index"`
	Seq     int     `json:"seq"`
	Team    int     `json:"team"`
	Time    float64 `json:"time"`
	Type    string  `json:"type" gorm:"size:32"`
	Payload []byte  `json:"-"`
}

// Gorm stores matches through GORM. It works over SQLite and Postgres alike.
type Gorm struct {
	db  *gorm.DB
	log zerolog.Logger

	mu   sync.Mutex
	open map[string]uint // game ID -> row of the match in progress
}

// NewGorm wraps an open database
func NewGorm(db *gorm.DB, log zerolog.Logger) *Gorm {
	return &Gorm{
		db:   db,
		log:  log.With().Str("component", "storage").Logger(),
		open: make(map[string]uint),
	}
}

// Init migrates the schema
func (g *Gorm) Init() error {
	g.log.Info().Str("dialect", g.db.Dialector.Name()).Msg("Migrating schema")
	if err := g.db.AutoMigrate(&Match{}, &MatchAction{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartMatch archives the starting state and opens the journal
func (g *Gorm) StartMatch(m *MatchRecord) error {
	teams, err := json.Marshal(m.Teams)
	if err != nil {
		return fmt.Errorf("encoding teams: %w", err)
	}
	snap, err := json.Marshal(m.Snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	row := Match{
		GameID:     m.GameID,
		MaxPlayers: m.MaxPlayers,
		Teams:      datatypes.JSON(teams),
		Snapshot:   datatypes.JSON(snap),
		StartedAt:  m.StartedAt,
	}
	if err := g.db.Create(&row).Error; err != nil {
		return fmt.Errorf("creating match %s: %w", m.GameID, err)
	}

	g.mu.Lock()
	g.open[m.GameID] = row.ID
	g.mu.Unlock()

	g.log.Debug().Str("game", m.GameID).Uint("match", row.ID).Msg("Match archived")
	return nil
}

// RecordAction appends to the open journal for a.GameID
func (g *Gorm) RecordAction(a *ActionRecord) error {
	g.mu.Lock()
	matchID, ok := g.open[a.GameID]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w %s", ErrMatchNotOpen, a.GameID)
	}

	payload, err := msgpack.Marshal(&a.Action)
	if err != nil {
		return fmt.Errorf("encoding action: %w", err)
	}

	row := MatchAction{
		MatchID: matchID,
		Seq:     a.Seq,
		Team:    a.Team,
		Time:    a.Action.Time,
		Type:    string(a.Action.Type),
		Payload: payload,
	}
	if err := g.db.Create(&row).Error; err != nil {
		return fmt.Errorf("recording action for %s: %w", a.GameID, err)
	}
	return nil
}

// EndMatch closes the journal and stores the final digest
func (g *Gorm) EndMatch(gameID string, endedAt time.Time, endTime float64, digest string) error {
	g.mu.Lock()
	matchID, ok := g.open[gameID]
	delete(g.open, gameID)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w %s", ErrMatchNotOpen, gameID)
	}

	err := g.db.Model(&Match{}).Where("id = ?", matchID).Updates(map[string]interface{}{
		"ended_at": endedAt,
		"end_time": endTime,
		"digest":   digest,
	}).Error
	if err != nil {
		return fmt.Errorf("ending match %s: %w", gameID, err)
	}
	return nil
}

// LoadMatch reads back the latest match for gameID with its journal in order
func (g *Gorm) LoadMatch(gameID string) (*MatchRecord, []ActionRecord, error) {
	var row Match
	err := g.db.Where("game_id = ?", gameID).Order("id desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading match %s: %w", gameID, err)
	}

	rec := &MatchRecord{
		GameID:     row.GameID,
		MaxPlayers: row.MaxPlayers,
		StartedAt:  row.StartedAt,
		EndedAt:    row.EndedAt,
		EndTime:    row.EndTime,
		Digest:     row.Digest,
	}
	if err := json.Unmarshal(row.Teams, &rec.Teams); err != nil {
		return nil, nil, fmt.Errorf("decoding teams: %w", err)
	}
	if err := json.Unmarshal(row.Snapshot, &rec.Snapshot); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	var rows []MatchAction
	if err := g.db.Where("match_id = ?", row.ID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("loading actions for %s: %w", gameID, err)
	}

	actions := make([]ActionRecord, 0, len(rows))
	for _, r := range rows {
		var a game.Action
		if err := msgpack.Unmarshal(r.Payload, &a); err != nil {
			return nil, nil, fmt.Errorf("decoding action %d: %w", r.Seq, err)
		}
		actions = append(actions, ActionRecord{GameID: gameID, Seq: r.Seq, Team: r.Team, Action: a})
	}
	return rec, actions, nil
}
