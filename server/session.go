package server

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/qwertysam/solar-colony/game"
)

// Session is one websocket connection and, once approved, one player. All
// fields except send, limiter and conn are owned by the manager loop.
type Session struct {
	ID uuid.UUID

	name     string
	team     *game.Team
	start    bool
	resume   bool
	approved bool
	game     *ServerGame
	pinger   *Timeskewer

	send    chan ServerMessage
	closed  bool
	limiter *rate.Limiter
	conn    *websocket.Conn
	log     zerolog.Logger
}

func newSession(sc *ServerContext, conn *websocket.Conn) *Session {
	id := uuid.New()
	return &Session{
		ID:      id,
		pinger:  NewTimeskewer(sc.Config.Game.PingInterval, nil),
		send:    make(chan ServerMessage, sc.Config.Net.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(sc.Config.Net.RateLimit), sc.Config.Net.RateBurst),
		conn:    conn,
		log:     sc.Log.With().Str("session", id.String()).Logger(),
	}
}

// Name is the display name chosen on the join form
func (s *Session) Name() string {
	return s.name
}

// Team is the team the player controls, or nil
func (s *Session) Team() *game.Team {
	return s.team
}

// Game is the game the session has joined, or nil
func (s *Session) Game() *ServerGame {
	return s.game
}

// Approved reports whether the session has joined a game
func (s *Session) Approved() bool {
	return s.approved
}

// Send queues a packet for the write pump. A full buffer drops the packet.
func (s *Session) Send(t PacketType, data interface{}) bool {
	if s.closed {
		return false
	}
	select {
	case s.send <- ServerMessage{Type: t, Data: data}:
		return true
	default:
		s.log.Warn().Str("type", string(t)).Msg("Send buffer full, dropping packet")
		return false
	}
}

// leaveGame clears every per-game field
func (s *Session) leaveGame() {
	s.game = nil
	s.team = nil
	s.start = false
	s.resume = false
	s.approved = false
}
