package server

import (
	"errors"

	"github.com/qwertysam/solar-colony/game"
)

// rejection is a handler error whose text doubles as the metric reason
type rejection string

func (r rejection) Error() string { return string(r) }

const (
	rejectUnknown      rejection = "unknown_type"
	rejectNotJoined    rejection = "not_joined"
	rejectJoined       rejection = "already_joined"
	rejectState        rejection = "wrong_state"
	rejectDecode       rejection = "bad_payload"
	rejectNotOwner     rejection = "not_owner"
	rejectUnaffordable rejection = "rejected_purchase"
)

type access int

const (
	accessAny  access = iota // ping probes
	accessForm               // join form, only before joining a game
	accessGame               // only while in a game, gated by state
)

type handlerFunc func(m *GameManager, s *Session, msg ClientMessage) error

type route struct {
	handle handlerFunc
	access access
	states stateSet // empty means any state
}

// handle adapts a typed handler to the route table
func handle[T any](fn func(m *GameManager, s *Session, data T) error) handlerFunc {
	return func(m *GameManager, s *Session, msg ClientMessage) error {
		data, err := decodePayload[T](msg)
		if err != nil {
			s.log.Debug().Err(err).Msg("Bad payload")
			return rejectDecode
		}
		return fn(m, s, data)
	}
}

var routes = map[PacketType]route{
	PacketPingProbe:   {handle: handle(onPingProbe), access: accessAny},
	PacketQueue:       {handle: handle(onQueue), access: accessForm},
	PacketCreateGame:  {handle: handle(onCreateGame), access: accessForm},
	PacketJoinID:      {handle: handle(onJoinID), access: accessForm},
	PacketJoinTeam:    {handle: handle(onJoinTeam), access: accessGame, states: stateSet{StateLobby, StatePaused}},
	PacketStartButton: {handle: handle(onStartButton), access: accessGame, states: stateSet{StateLobby}},
	PacketCreateShips: {handle: handle(onCreateShips), access: accessGame, states: stateSet{StatePlaying}},
	PacketCreateSpawn: {handle: handle(onCreateSpawn), access: accessGame, states: stateSet{StatePlaying}},
	PacketSendShips:   {handle: handle(onSendShips), access: accessGame, states: stateSet{StatePlaying}},
	PacketResume:      {handle: handle(onResume), access: accessGame, states: stateSet{StatePaused}},
	PacketQuit:        {handle: handle(onQuit), access: accessGame},
}

// dispatch routes one inbound packet. Anything not allowed for the
// session's current position is dropped and counted; nothing is sent back.
func (m *GameManager) dispatch(s *Session, msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("type", string(msg.Type)).Msg("PANIC in dispatch")
		}
	}()

	if err := m.route(s, msg); err != nil {
		reason := "error"
		var rej rejection
		if errors.As(err, &rej) {
			reason = string(rej)
		}
		m.sc.Metrics.reject(msg.Type, reason)
		s.log.Debug().Err(err).Str("type", string(msg.Type)).Msg("Packet rejected")
		return
	}
	m.sc.Metrics.packet(msg.Type)
}

func (m *GameManager) route(s *Session, msg ClientMessage) error {
	r, ok := routes[msg.Type]
	if !ok {
		return rejectUnknown
	}
	switch r.access {
	case accessForm:
		if s.approved {
			return rejectJoined
		}
	case accessGame:
		if !s.approved || s.game == nil {
			return rejectNotJoined
		}
		if len(r.states) > 0 && !r.states.has(s.game.state) {
			return rejectState
		}
	}
	return r.handle(m, s, msg)
}

// Join form

func onPingProbe(m *GameManager, s *Session, data PingProbeData) error {
	s.Send(PacketPingSet, PingData{Ping: s.pinger.Receive(data.Seq)})
	return nil
}

func (m *GameManager) formFail(s *Session, err error) error {
	reason := "Unable to join game"
	switch {
	case errors.Is(err, ErrGameNotFound):
		reason = "Game not found"
	case errors.Is(err, ErrGameFull):
		reason = "Game is full"
	case errors.Is(err, ErrGameStarted):
		reason = "Game has already started"
	case errors.Is(err, ErrGameEnded):
		reason = "Game has ended"
	case errors.Is(err, ErrIDSpaceExhausted):
		reason = "Server is full"
	}
	s.Send(PacketFormFail, FormFailData{Reason: reason})
	return err
}

func onQueue(m *GameManager, s *Session, data JoinFormData) error {
	if _, err := m.queue(s, sanitizeName(data.Name), data.Players); err != nil {
		return m.formFail(s, err)
	}
	return nil
}

func onCreateGame(m *GameManager, s *Session, data JoinFormData) error {
	g, err := m.createGame(data.Players, true)
	if err != nil {
		return m.formFail(s, err)
	}
	if err := g.addPlayer(s, sanitizeName(data.Name)); err != nil {
		m.removeGame(g)
		return m.formFail(s, err)
	}
	return nil
}

func onJoinID(m *GameManager, s *Session, data JoinIDData) error {
	id, ok := normalizeGameID(data.GameID)
	if !ok {
		return m.formFail(s, ErrGameNotFound)
	}
	g := m.findGame(id)
	if g == nil {
		return m.formFail(s, ErrGameNotFound)
	}
	if err := g.addPlayer(s, sanitizeName(data.Name)); err != nil {
		return m.formFail(s, err)
	}
	return nil
}

// Lobby

func onJoinTeam(m *GameManager, s *Session, data JoinTeamData) error {
	if err := s.game.joinTeam(s, data.Team); err != nil {
		return rejectState
	}
	return nil
}

func onStartButton(m *GameManager, s *Session, _ Empty) error {
	s.game.startButton(s)
	return nil
}

// Match

// ownedPlanet returns the planet only if the sender's team holds it
func ownedPlanet(s *Session, id int) (*game.Planet, error) {
	p := s.game.system.PlanetByID(id)
	if p == nil || s.team == nil || p.Team != s.team {
		return nil, rejectNotOwner
	}
	return p, nil
}

func onCreateShips(m *GameManager, s *Session, data CreateShipsData) error {
	p, err := ownedPlanet(s, data.Planet)
	if err != nil {
		return err
	}
	if !p.CreateShips(data.N, data.Cost, false) {
		return rejectUnaffordable
	}
	s.game.journal(s, game.Action{Type: game.ActionCreateShips, Planet: p.ID, N: data.N, Cost: data.Cost})
	return nil
}

func onCreateSpawn(m *GameManager, s *Session, data CreateSpawnData) error {
	p, err := ownedPlanet(s, data.Planet)
	if err != nil {
		return err
	}
	// Clients never get free spawns, whatever they ask for
	if !p.CreateSpawn(false) {
		return rejectUnaffordable
	}
	s.game.journal(s, game.Action{Type: game.ActionCreateSpawn, Planet: p.ID})
	return nil
}

func onSendShips(m *GameManager, s *Session, data SendShipsData) error {
	if _, err := ownedPlanet(s, data.Planet); err != nil {
		return err
	}
	ship, err := s.game.system.SendShips(data.Planet, data.To, data.Amount)
	if err != nil {
		return err
	}
	s.game.journal(s, game.Action{Type: game.ActionSendShips, Planet: ship.From, To: ship.Destination, Amount: ship.Amount})
	return nil
}

func onResume(m *GameManager, s *Session, _ Empty) error {
	g := s.game
	// A late joiner picks a team before anything else
	if s.team == nil {
		return rejectState
	}
	if s.resume {
		return nil
	}
	s.resume = true
	g.broadcastResume()
	g.checkResume()
	return nil
}

func onQuit(m *GameManager, s *Session, _ Empty) error {
	s.game.removePlayer(s)
	return nil
}
