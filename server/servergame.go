package server

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/storage"
)

var (
	ErrGameFull    = errors.New("game is full")
	ErrGameStarted = errors.New("game has already started")
	ErrGameEnded   = errors.New("game has ended")
)

// ServerGame is one match: the roster, the team slots, the lifecycle state
// and, once started, the simulation. Every method runs on the manager loop.
type ServerGame struct {
	ID         string
	maxPlayers int
	preferred  int  // size requested by whoever created it
	private    bool // created by code, never matchmade

	teams   []*game.Team // every colour slot
	active  []*game.Team // teams in play once started
	players []*Session

	system    *game.System
	state     MatchState
	started   bool
	countdown time.Duration
	maxPing   int
	seq       int

	sc  *ServerContext
	log zerolog.Logger
}

// NewServerGame creates an empty match
func NewServerGame(id string, maxPlayers int, sc *ServerContext) *ServerGame {
	return &ServerGame{
		ID:         id,
		maxPlayers: maxPlayers,
		teams:      game.NewTeams(),
		state:      StateQueued,
		sc:         sc,
		log:        sc.Log.With().Str("game", id).Logger(),
	}
}

// State is the lifecycle state
func (g *ServerGame) State() MatchState {
	return g.state
}

// MaxPlayers is the seat count
func (g *ServerGame) MaxPlayers() int {
	return g.maxPlayers
}

// Players returns the connected roster
func (g *ServerGame) Players() []*Session {
	return g.players
}

// Teams returns the teams in play: every slot before the start, only the
// populated ones after.
func (g *ServerGame) Teams() []*game.Team {
	if g.started {
		return g.active
	}
	return g.teams
}

// System is the simulation, nil until the match starts
func (g *ServerGame) System() *game.System {
	return g.system
}

func (g *ServerGame) setState(next MatchState) {
	if !g.state.CanTransition(next) {
		g.log.Warn().Stringer("from", g.state).Stringer("to", next).Msg("Illegal state transition")
		return
	}
	g.log.Debug().Stringer("from", g.state).Stringer("to", next).Msg("State change")
	g.state = next
}

func (g *ServerGame) canAddPlayer() bool {
	if len(g.players) >= g.maxPlayers {
		return false
	}
	switch g.state {
	case StateQueued, StateLobby:
		return true
	case StatePaused:
		// A vacated seat in a paused match can be refilled
		return g.started
	}
	return false
}

func (g *ServerGame) addPlayer(s *Session, name string) error {
	switch {
	case g.state == StateEnded:
		return ErrGameEnded
	case len(g.players) >= g.maxPlayers:
		return ErrGameFull
	case !g.canAddPlayer():
		return ErrGameStarted
	}

	s.leaveGame()
	s.name = name
	s.game = g
	s.approved = true
	g.players = append(g.players, s)

	if g.state == StateQueued {
		g.setState(StateLobby)
	}
	g.log.Info().Str("player", name).Int("players", len(g.players)).Msg("Player joined")

	s.Send(PacketJoinGame, JoinGameData{GameID: g.ID, MaxPlayers: g.maxPlayers, Started: g.started})
	g.createTeams(s)

	if g.started {
		// Late join: bring the newcomer up to date, then let everyone
		// know the resume count changed
		s.Send(PacketCreateSystem, CreateSystemData{System: g.system.Save(true)})
		s.Send(PacketSetTime, TimeData{Time: g.system.Time()})
		s.Send(PacketPause, TimeData{Time: g.system.Time()})
		g.broadcastResume()
		return nil
	}
	g.updateSelectionMessages(nil)
	return nil
}

func (g *ServerGame) removePlayer(s *Session) {
	idx := -1
	for i, p := range g.players {
		if p == s {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	if s.team != nil {
		s.team.RemovePlayer(s)
	}
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	s.leaveGame()

	g.log.Info().Str("player", s.name).Int("players", len(g.players)).Msg("Player left")

	if len(g.players) == 0 {
		g.end("empty")
		return
	}

	if !g.started {
		// The roster changed, so everyone confirms again
		for _, p := range g.players {
			p.start = false
		}
		g.updateTeams(nil)
		return
	}

	switch g.state {
	case StatePlaying, StateCountdown:
		g.pause()
	case StatePaused:
		g.broadcastResume()
		g.checkResume()
	}
	g.updateTeams(nil)
}

// rebuildTeams drops every team nobody chose
func (g *ServerGame) rebuildTeams() {
	g.active = game.PopulatedTeams(g.teams)
}

func (g *ServerGame) start() {
	g.log.Info().Int("players", len(g.players)).Msg("Starting game")

	g.sc.Manager.removeQueue(g)
	g.rebuildTeams()
	g.started = true
	g.maxPlayers = len(g.players)

	for _, t := range g.active {
		t.SetPixels(g.sc.Config.Game.StartingPixels)
	}

	sys, err := game.LoadSystem(g.sc.Template, g.active, game.WithObserver(g))
	if err != nil {
		g.log.Error().Err(err).Msg("Building system failed")
		g.end("template")
		return
	}
	g.system = sys

	snap := sys.Save(true)
	g.broadcast(PacketCreateSystem, CreateSystemData{System: snap})
	for _, p := range g.players {
		p.Send(PacketSetClientTeam, ClientTeamData{Team: p.team.ID})
	}

	g.sc.Recorder.StartMatch(&storage.MatchRecord{
		GameID:     g.ID,
		MaxPlayers: g.maxPlayers,
		Teams:      teamRecords(g.active),
		Snapshot:   snap,
		StartedAt:  time.Now(),
	})

	g.beginCountdown()
}

// beginCountdown starts the ping-compensated delay before play. Every
// client is told the same maxPing so their local countdowns end together.
func (g *ServerGame) beginCountdown() {
	g.maxPing = 0
	for _, p := range g.players {
		if ping := p.pinger.Ping(); ping > g.maxPing {
			g.maxPing = ping
		}
	}
	g.countdown = g.sc.Config.Game.Countdown + time.Duration(g.maxPing)*time.Millisecond
	g.setState(StateCountdown)

	g.broadcast(PacketPlay, PlayData{MaxPing: g.maxPing, Countdown: g.countdown.Seconds()})
}

func (g *ServerGame) play() {
	g.setState(StatePlaying)
	for _, p := range g.players {
		p.resume = false
	}
	g.log.Info().Float64("time", g.system.Time()).Msg("Playing")
}

func (g *ServerGame) pause() {
	g.setState(StatePaused)
	g.countdown = 0
	for _, p := range g.players {
		p.resume = false
	}
	g.broadcast(PacketPause, TimeData{Time: g.system.Time()})
	g.broadcastResume()
	g.log.Info().Float64("time", g.system.Time()).Msg("Paused")
}

func (g *ServerGame) readyCount() int {
	ready := 0
	for _, p := range g.players {
		if p.resume {
			ready++
		}
	}
	return ready
}

func (g *ServerGame) broadcastResume() {
	g.broadcast(PacketResume, ResumeData{Ready: g.readyCount(), Total: len(g.players)})
}

// checkResume restarts the countdown once everyone still connected is ready
func (g *ServerGame) checkResume() {
	if g.state != StatePaused || len(g.players) == 0 || g.readyCount() != len(g.players) {
		return
	}
	g.maxPlayers = len(g.players)
	g.broadcast(PacketSetTime, TimeData{Time: g.system.Time()})
	g.beginCountdown()
}

// end deregisters the game and closes its archive entry
func (g *ServerGame) end(reason string) {
	if g.state == StateEnded {
		return
	}
	g.setState(StateEnded)

	if g.system != nil {
		digest, err := game.Digest(g.system)
		if err != nil {
			g.log.Error().Err(err).Msg("Digest failed")
		}
		g.sc.Recorder.EndMatch(g.ID, g.system.Time(), digest)
	}
	g.sc.Manager.removeGame(g)
	g.log.Info().Str("reason", reason).Msg("Game ended")
}

// Update advances the match by one tick
func (g *ServerGame) Update(delta time.Duration) {
	switch g.state {
	case StateCountdown:
		g.countdown -= delta
		if g.countdown <= 0 {
			g.play()
		}
	case StatePlaying:
		g.system.Update(game.TickSeconds, false)
	case StatePaused:
		g.system.Update(game.TickSeconds, true)
	}
}

func (g *ServerGame) broadcast(t PacketType, data interface{}) {
	for _, p := range g.players {
		p.Send(t, data)
	}
}

// journal archives an accepted action
func (g *ServerGame) journal(s *Session, a game.Action) {
	a.Time = g.system.Time()
	team := game.NoTeam
	if s.team != nil {
		team = s.team.ID
	}
	g.sc.Recorder.RecordAction(&storage.ActionRecord{GameID: g.ID, Seq: g.seq, Team: team, Action: a})
	g.seq++
}

func teamRecords(teams []*game.Team) []storage.TeamRecord {
	out := make([]storage.TeamRecord, 0, len(teams))
	for _, t := range teams {
		out = append(out, storage.TeamRecord{
			ID:      t.ID,
			Colour:  t.Colour.String(),
			Pixels:  t.Pixels,
			Players: t.PlayerNames(),
		})
	}
	return out
}

// Observer: the simulation reports accepted changes and the game relays
// them to every client.

func (g *ServerGame) OnShipsCreated(p *game.Planet, n, cost int) {
	g.broadcast(PacketCreateShips, CreateShipsData{Planet: p.ID, N: n, Cost: cost})
}

func (g *ServerGame) OnSpawnCreated(p *game.Planet, force bool) {
	g.broadcast(PacketCreateSpawn, CreateSpawnData{Planet: p.ID, Force: force})
}

func (g *ServerGame) OnShipsSent(s *game.Ship) {
	g.broadcast(PacketSendShips, SendShipsData{
		Planet:    s.From,
		To:        s.Destination,
		Amount:    s.Amount,
		X1:        s.Origin.X,
		Y1:        s.Origin.Y,
		X2:        s.DestinationPos.X,
		Y2:        s.DestinationPos.Y,
		ShipSpeed: s.Speed,
		Duration:  s.Duration,
	})
}

func (g *ServerGame) OnArrival(p *game.Planet, team *game.Team, amount int) {
	g.log.Debug().Int("planet", p.ID).Int("team", team.ID).Int("amount", amount).Msg("Fleet arrived")
}
