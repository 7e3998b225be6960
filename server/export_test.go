package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/config"
	"github.com/qwertysam/solar-colony/internal/storage"
)

// Test helpers that drive the manager without a loop goroutine or sockets.
// Every helper runs on the test goroutine, standing in for Run.

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Game: config.GameConfig{
			MinPlayers:     2,
			MaxPlayers:     8,
			Countdown:      3 * time.Second,
			StartingPixels: 100,
			PingInterval:   2 * time.Second,
		},
		Log:     config.LogConfig{Level: "debug"},
		Storage: config.StorageConfig{Type: "none", QueueSize: 64},
		Net:     config.NetConfig{RateLimit: 30, RateBurst: 60, SendBuffer: 512},
	}
}

func newTestContext(t *testing.T, backend storage.Backend) *ServerContext {
	t.Helper()
	if backend == nil {
		backend = storage.Nop{}
	}
	sc, err := NewServerContext(testConfig(), zerolog.Nop(), backend)
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })
	return sc
}

// connect registers a socketless session
func connect(sc *ServerContext) *Session {
	s := newSession(sc, nil)
	sc.Manager.sessions[s.ID] = s
	return s
}

// send delivers one packet from s as if read off the wire
func send(t *testing.T, sc *ServerContext, s *Session, pt PacketType, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	sc.Manager.dispatch(s, ClientMessage{Type: pt, Data: raw})
}

// drain empties the session's outbound queue
func drain(s *Session) []ServerMessage {
	var out []ServerMessage
	for {
		select {
		case m, ok := <-s.send:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func ofType(msgs []ServerMessage, pt PacketType) []ServerMessage {
	var out []ServerMessage
	for _, m := range msgs {
		if m.Type == pt {
			out = append(out, m)
		}
	}
	return out
}

func lastOfType(t *testing.T, msgs []ServerMessage, pt PacketType) ServerMessage {
	t.Helper()
	found := ofType(msgs, pt)
	require.NotEmpty(t, found, "no %s packet", pt)
	return found[len(found)-1]
}

func tickN(sc *ServerContext, n int) {
	for i := 0; i < n; i++ {
		sc.Manager.tick()
	}
}

// tickUntil ticks until g reaches state, failing after limit ticks
func tickUntil(t *testing.T, sc *ServerContext, g *ServerGame, state MatchState, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if g.State() == state {
			return
		}
		sc.Manager.tick()
	}
	require.Equal(t, state, g.State(), "state not reached after %d ticks", limit)
}

// startTwoPlayerGame queues two players onto RED and ORANGE and presses
// start for both
func startTwoPlayerGame(t *testing.T, sc *ServerContext) (*ServerGame, *Session, *Session) {
	t.Helper()
	a, b := connect(sc), connect(sc)
	send(t, sc, a, PacketQueue, JoinFormData{Name: "alice"})
	send(t, sc, b, PacketQueue, JoinFormData{Name: "bob"})
	require.NotNil(t, a.Game())
	require.Same(t, a.Game(), b.Game())

	send(t, sc, a, PacketJoinTeam, JoinTeamData{Team: int(game.ColourRed)})
	send(t, sc, b, PacketJoinTeam, JoinTeamData{Team: int(game.ColourOrange)})
	send(t, sc, a, PacketStartButton, Empty{})
	send(t, sc, b, PacketStartButton, Empty{})

	g := a.Game()
	require.Equal(t, StateCountdown, g.State())
	return g, a, b
}

// ownedBy returns a planet held by team
func ownedBy(t *testing.T, g *ServerGame, team *game.Team) *game.Planet {
	t.Helper()
	for _, p := range g.System().Planets() {
		if p.Team == team {
			return p
		}
	}
	t.Fatalf("team %d owns no planet", team.ID)
	return nil
}
