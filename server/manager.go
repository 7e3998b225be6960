package server

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/game"
)

// Game codes
const (
	IDLength      = 5
	IDCharacters  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	MaxIDAttempts = 1000
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrIDSpaceExhausted = errors.New("no free game id")
)

type inbound struct {
	session *Session
	msg     ClientMessage
}

// GameListing is the public view of one open game
type GameListing struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
}

// GameManager owns every game and session. Run is the only goroutine that
// touches them; connections talk to it over channels.
type GameManager struct {
	sc  *ServerContext
	log zerolog.Logger

	games       []*ServerGame
	queuedGames []*ServerGame
	sessions    map[uuid.UUID]*Session

	register   chan *Session
	unregister chan *Session
	inbox      chan inbound
	done       chan struct{}

	listing atomic.Pointer[[]GameListing]

	// randomID draws one candidate code; tests replace it
	randomID func() (string, error)
}

// NewGameManager creates an idle manager. Nothing happens until Run.
func NewGameManager(sc *ServerContext) *GameManager {
	m := &GameManager{
		sc:         sc,
		log:        sc.Log.With().Str("component", "manager").Logger(),
		sessions:   make(map[uuid.UUID]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbox:      make(chan inbound, 256),
		done:       make(chan struct{}),
		randomID:   randomGameID,
	}
	m.publishListing()
	return m
}

// Run drives every game at the fixed tick rate until ctx is cancelled. All
// games are ended on the way out.
func (m *GameManager) Run(ctx context.Context) {
	ticker := time.NewTicker(game.UpdateInterval)
	defer ticker.Stop()
	defer m.shutdown()

	m.log.Info().Dur("interval", game.UpdateInterval).Msg("Game loop started")

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-m.register:
			m.sessions[s.ID] = s
			m.log.Debug().Str("session", s.ID.String()).Msg("Client connected")

		case s := <-m.unregister:
			m.disconnect(s)

		case in := <-m.inbox:
			// Messages still queued from a connection that already closed
			if _, ok := m.sessions[in.session.ID]; !ok {
				continue
			}
			m.dispatch(in.session, in.msg)

		case <-ticker.C:
			m.tick()
		}
	}
}

// Done is closed once Run has returned
func (m *GameManager) Done() <-chan struct{} {
	return m.done
}

func (m *GameManager) tick() {
	start := time.Now()

	for _, s := range m.sessions {
		if seq, ok := s.pinger.Update(game.UpdateInterval); ok {
			s.Send(PacketPingProbe, PingProbeData{Seq: seq})
		}
	}

	// Each tick is one fixed step even if the ticker dropped some; replays
	// depend on it. A game may end and deregister itself while updating.
	games := append([]*ServerGame(nil), m.games...)
	for _, g := range games {
		m.updateGame(g)
	}

	m.publishListing()
	m.sc.Metrics.setGames(len(m.games))
	m.sc.Metrics.tick(time.Since(start))
}

// updateGame advances one game, isolating the others from its panics
func (m *GameManager) updateGame(g *ServerGame) {
	defer func() {
		if r := recover(); r != nil {
			m.sc.Metrics.tickFault()
			g.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Server game tick error")
		}
	}()
	g.Update(game.UpdateInterval)
}

// disconnect removes a closed connection and its player
func (m *GameManager) disconnect(s *Session) {
	if _, ok := m.sessions[s.ID]; !ok {
		return
	}
	delete(m.sessions, s.ID)
	if g := s.game; g != nil {
		g.removePlayer(s)
	}
	s.closed = true
	close(s.send)
	m.log.Debug().Str("session", s.ID.String()).Msg("Client disconnected")
}

func (m *GameManager) shutdown() {
	for _, g := range append([]*ServerGame(nil), m.games...) {
		g.end("shutdown")
	}
	for id, s := range m.sessions {
		delete(m.sessions, id)
		s.closed = true
		close(s.send)
	}
	m.publishListing()
	m.sc.Metrics.setGames(0)
	m.log.Info().Msg("Game loop stopped")
	close(m.done)
}

// clampPlayers fits a requested game size into the allowed range. Zero or
// less means no preference.
func (m *GameManager) clampPlayers(n int) int {
	cfg := m.sc.Config.Game
	if n <= 0 {
		return cfg.MaxPlayers
	}
	return min(max(n, cfg.MinPlayers), cfg.MaxPlayers)
}

// createGame registers a new empty game. Private games are never offered
// to matchmaking.
func (m *GameManager) createGame(players int, private bool) (*ServerGame, error) {
	id, err := m.generateSafeID()
	if err != nil {
		return nil, err
	}
	size := m.clampPlayers(players)
	g := NewServerGame(id, size, m.sc)
	g.private = private
	if players > 0 {
		g.preferred = size
	}
	m.games = append(m.games, g)
	m.log.Info().Str("game", id).Int("maxPlayers", size).Bool("private", private).Msg("Creating game")
	return g, nil
}

// queue places s in the first queued game that fits its size preference,
// creating and queueing a new game when none does
func (m *GameManager) queue(s *Session, name string, preferred int) (*ServerGame, error) {
	want := 0
	if preferred > 0 {
		want = m.clampPlayers(preferred)
	}
	for _, g := range m.queuedGames {
		if want > 0 && g.preferred != want {
			continue
		}
		if g.canAddPlayer() {
			return g, g.addPlayer(s, name)
		}
	}

	g, err := m.createGame(preferred, false)
	if err != nil {
		return nil, err
	}
	m.queuedGames = append(m.queuedGames, g)
	m.log.Info().Str("game", g.ID).Msg("Queueing game")
	return g, g.addPlayer(s, name)
}

// findGame looks a game up by code among active and queued games
func (m *GameManager) findGame(id string) *ServerGame {
	for _, g := range m.games {
		if g.ID == id {
			return g
		}
	}
	for _, g := range m.queuedGames {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// generateSafeID draws codes until one is unused
func (m *GameManager) generateSafeID() (string, error) {
	for i := 0; i < MaxIDAttempts; i++ {
		id, err := m.randomID()
		if err != nil {
			return "", err
		}
		if m.findGame(id) == nil {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

func randomGameID() (string, error) {
	b := make([]byte, IDLength)
	limit := big.NewInt(int64(len(IDCharacters)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = IDCharacters[n.Int64()]
	}
	return string(b), nil
}

func removeByIdentity(list []*ServerGame, g *ServerGame) ([]*ServerGame, bool) {
	for i, x := range list {
		if x == g {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

// removeGame deregisters g. Removing an unknown game is a no-op.
func (m *GameManager) removeGame(g *ServerGame) {
	m.removeQueue(g)
	var ok bool
	if m.games, ok = removeByIdentity(m.games, g); ok {
		m.log.Info().Str("game", g.ID).Msg("Removing game")
	}
}

// removeQueue takes g out of matchmaking. Removing an unqueued game is a
// no-op.
func (m *GameManager) removeQueue(g *ServerGame) {
	var ok bool
	if m.queuedGames, ok = removeByIdentity(m.queuedGames, g); ok {
		m.log.Info().Str("game", g.ID).Msg("Unqueueing game")
	}
}

// publishListing refreshes the copy of the open game list that HTTP
// handlers read from other goroutines
func (m *GameManager) publishListing() {
	list := make([]GameListing, 0, len(m.games))
	for _, g := range m.games {
		if g.private {
			continue
		}
		list = append(list, GameListing{
			ID:         g.ID,
			State:      g.state.String(),
			Players:    len(g.players),
			MaxPlayers: g.maxPlayers,
		})
	}
	m.listing.Store(&list)
}

// Listing returns the most recently published game list. Safe to call from
// any goroutine.
func (m *GameManager) Listing() []GameListing {
	if l := m.listing.Load(); l != nil {
		return *l
	}
	return nil
}
