package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertysam/solar-colony/internal/storage"
)

func TestCreateGameClampsSize(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager

	tests := []struct {
		requested int
		want      int
		preferred int
	}{
		{requested: 0, want: 8, preferred: 0},
		{requested: -3, want: 8, preferred: 0},
		{requested: 1, want: 2, preferred: 2},
		{requested: 4, want: 4, preferred: 4},
		{requested: 20, want: 8, preferred: 8},
	}
	for _, tt := range tests {
		g, err := m.createGame(tt.requested, false)
		require.NoError(t, err)
		assert.Equal(t, tt.want, g.MaxPlayers(), "requested %d", tt.requested)
		assert.Equal(t, tt.preferred, g.preferred, "requested %d", tt.requested)
		assert.Len(t, g.ID, IDLength)
	}
	assert.Len(t, m.games, len(tests))
	assert.Empty(t, m.queuedGames, "createGame alone never queues")
}

func TestQueueRespectsCapacityAndPreference(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager

	var sessions []*Session
	for i := 0; i < 5; i++ {
		s := connect(sc)
		send(t, sc, s, PacketQueue, JoinFormData{Name: "p", Players: 2})
		sessions = append(sessions, s)
	}
	assert.Same(t, sessions[0].Game(), sessions[1].Game())
	assert.Same(t, sessions[2].Game(), sessions[3].Game())
	assert.NotSame(t, sessions[1].Game(), sessions[2].Game())
	for _, g := range m.games {
		assert.LessOrEqual(t, len(g.Players()), g.MaxPlayers())
	}

	three := connect(sc)
	send(t, sc, three, PacketQueue, JoinFormData{Name: "p", Players: 3})
	assert.NotSame(t, sessions[4].Game(), three.Game(), "different size preference")
	assert.Equal(t, 3, three.Game().MaxPlayers())

	open := connect(sc)
	send(t, sc, open, PacketQueue, JoinFormData{Name: "p"})
	assert.Same(t, sessions[4].Game(), open.Game(), "no preference takes the first open game")
}

func TestGenerateSafeIDSkipsTakenCodes(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager

	codes := []string{"AAAAA", "AAAAA", "BBBBB"}
	m.randomID = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	first, err := m.createGame(0, false)
	require.NoError(t, err)
	second, err := m.createGame(0, false)
	require.NoError(t, err)
	assert.Equal(t, "AAAAA", first.ID)
	assert.Equal(t, "BBBBB", second.ID)
}

func TestGenerateSafeIDGivesUp(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager

	calls := 0
	m.randomID = func() (string, error) {
		calls++
		return "AAAAA", nil
	}
	_, err := m.createGame(0, false)
	require.NoError(t, err)

	calls = 0
	_, err = m.generateSafeID()
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, MaxIDAttempts, calls)

	s := connect(sc)
	send(t, sc, s, PacketCreateGame, JoinFormData{Name: "p"})
	assert.Nil(t, s.Game())
	assert.Equal(t, FormFailData{Reason: "Server is full"}, lastOfType(t, drain(s), PacketFormFail).Data)

	m.randomID = func() (string, error) { return "", errors.New("entropy gone") }
	_, err = m.generateSafeID()
	assert.EqualError(t, err, "entropy gone")
}

func TestRandomGameIDAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := randomGameID()
		require.NoError(t, err)
		_, ok := normalizeGameID(id)
		assert.True(t, ok, id)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager
	s := connect(sc)
	send(t, sc, s, PacketQueue, JoinFormData{Name: "p"})
	g := s.Game()

	m.removeQueue(g)
	m.removeQueue(g)
	assert.Empty(t, m.queuedGames)
	assert.Same(t, g, m.findGame(g.ID))

	m.removeGame(g)
	m.removeGame(g)
	assert.Empty(t, m.games)
	assert.Nil(t, m.findGame(g.ID))
}

func TestJoinByCode(t *testing.T) {
	sc := newTestContext(t, nil)
	host := connect(sc)
	send(t, sc, host, PacketCreateGame, JoinFormData{Name: "host", Players: 2})
	g := host.Game()
	require.NotNil(t, g)
	assert.Empty(t, sc.Manager.queuedGames, "private games are not matchmade")

	stranger := connect(sc)
	send(t, sc, stranger, PacketQueue, JoinFormData{Name: "s"})
	assert.NotSame(t, g, stranger.Game())

	for _, code := range []string{"nope", "ZZZZZ", "AAAA!"} {
		s := connect(sc)
		send(t, sc, s, PacketJoinID, JoinIDData{Name: "x", GameID: code})
		assert.Nil(t, s.Game())
		assert.Equal(t, FormFailData{Reason: "Game not found"}, lastOfType(t, drain(s), PacketFormFail).Data, code)
	}

	friend := connect(sc)
	send(t, sc, friend, PacketJoinID, JoinIDData{Name: "friend", GameID: g.ID})
	assert.Same(t, g, friend.Game())

	late := connect(sc)
	send(t, sc, late, PacketJoinID, JoinIDData{Name: "late", GameID: g.ID})
	assert.Equal(t, FormFailData{Reason: "Game is full"}, lastOfType(t, drain(late), PacketFormFail).Data)
}

func TestListingHidesPrivateGames(t *testing.T) {
	sc := newTestContext(t, nil)
	host, queued := connect(sc), connect(sc)
	send(t, sc, host, PacketCreateGame, JoinFormData{Name: "host"})
	send(t, sc, queued, PacketQueue, JoinFormData{Name: "q", Players: 4})

	assert.Empty(t, sc.Manager.Listing(), "published on tick")
	sc.Manager.tick()

	assert.Equal(t, []GameListing{{
		ID:         queued.Game().ID,
		State:      "LOBBY",
		Players:    1,
		MaxPlayers: 4,
	}}, sc.Manager.Listing())
}

func TestTickSendsPingProbes(t *testing.T) {
	sc := newTestContext(t, nil)
	s := connect(sc)

	sc.Manager.tick()
	assert.Equal(t, []ServerMessage{{Type: PacketPingProbe, Data: PingProbeData{Seq: 1}}}, drain(s))
	tickN(sc, 5)
	assert.Empty(t, drain(s), "one probe outstanding at a time")

	// The client's own probe is answered but does not close the sample
	send(t, sc, s, PacketPingProbe, Empty{})
	assert.Equal(t, PacketPingSet, lastOfType(t, drain(s), PacketPingSet).Type)
	assert.False(t, s.pinger.Sampled())

	send(t, sc, s, PacketPingProbe, PingProbeData{Seq: 1})
	assert.Equal(t, PacketPingSet, lastOfType(t, drain(s), PacketPingSet).Type)
	assert.True(t, s.pinger.Sampled())
}

func TestTickSurvivesGamePanic(t *testing.T) {
	sc := newTestContext(t, nil)
	m := sc.Manager

	// Playing without a system panics on update
	broken := NewServerGame("PANIC", 2, sc)
	broken.state = StatePlaying
	m.games = append(m.games, broken)

	g, _, _ := startTwoPlayerGame(t, sc)
	assert.NotPanics(t, func() { tickN(sc, 3) })
	assert.Contains(t, m.games, broken)
	assert.Equal(t, StateCountdown, g.State())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	sc := newTestContext(t, nil)
	s := connect(sc)
	send(t, sc, s, PacketQueue, JoinFormData{Name: "p"})
	g := s.Game()

	sc.Manager.disconnect(s)
	assert.NotPanics(t, func() { sc.Manager.disconnect(s) })
	assert.Equal(t, StateEnded, g.State())
	assert.False(t, s.Send(PacketPingSet, PingData{}), "closed sessions drop sends")
}

func TestRunEndsGamesOnShutdown(t *testing.T) {
	sc := newTestContext(t, nil)
	g, _, _ := startTwoPlayerGame(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	go sc.Manager.Run(ctx)
	cancel()

	select {
	case <-sc.Manager.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Equal(t, StateEnded, g.State())
	assert.Empty(t, sc.Manager.games)
	assert.Empty(t, sc.Manager.Listing())
}

// blockingBackend stalls StartMatch until released
type blockingBackend struct {
	storage.Nop
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls []string
}

func (b *blockingBackend) StartMatch(*storage.MatchRecord) error {
	b.entered <- struct{}{}
	<-b.release
	b.record("start")
	return nil
}

func (b *blockingBackend) RecordAction(*storage.ActionRecord) error {
	b.record("action")
	return nil
}

func (b *blockingBackend) EndMatch(string, time.Time, float64, string) error {
	b.record("end")
	return nil
}

func (b *blockingBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	backend := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	metrics, err := NewMetrics()
	require.NoError(t, err)
	r := NewRecorder(backend, 1, zerolog.Nop(), metrics)

	r.StartMatch(&storage.MatchRecord{GameID: "ABCDE"})
	<-backend.entered

	r.RecordAction(&storage.ActionRecord{GameID: "ABCDE"})
	r.EndMatch("ABCDE", 1, "digest") // queue is full, dropped

	close(backend.release)
	r.Close()
	r.Close()

	assert.Equal(t, []string{"start", "action"}, backend.calls)
}
