package game

import (
	"errors"
	"fmt"
	"sort"
)

// ActionType names a journaled player command
type ActionType string

const (
	ActionCreateShips ActionType = "CREATE_SHIPS"
	ActionCreateSpawn ActionType = "CREATE_SPAWN"
	ActionSendShips   ActionType = "SEND_SHIPS"
)

// ErrReplayDiverged means a journaled action was rejected on replay, so the
// journal and snapshot no longer describe the same match.
var ErrReplayDiverged = errors.New("replay diverged from journal")

// Action is one accepted command, stamped with the system time it was
// applied at.
type Action struct {
	Time   float64    `json:"time" msgpack:"time"`
	Type   ActionType `json:"type" msgpack:"type"`
	Planet int        `json:"pl" msgpack:"pl"`
	To     int        `json:"to,omitempty" msgpack:"to,omitempty"`
	N      int        `json:"n,omitempty" msgpack:"n,omitempty"`
	Cost   int        `json:"c,omitempty" msgpack:"c,omitempty"`
	Amount int        `json:"amount,omitempty" msgpack:"amount,omitempty"`
}

// Apply executes a on s
func (a Action) Apply(s *System) error {
	switch a.Type {
	case ActionCreateShips:
		p := s.PlanetByID(a.Planet)
		if p == nil {
			return ErrPlanetNotFound
		}
		if !p.CreateShips(a.N, a.Cost, false) {
			return fmt.Errorf("%w: %s on planet %d", ErrReplayDiverged, a.Type, a.Planet)
		}
	case ActionCreateSpawn:
		p := s.PlanetByID(a.Planet)
		if p == nil {
			return ErrPlanetNotFound
		}
		if !p.CreateSpawn(false) {
			return fmt.Errorf("%w: %s on planet %d", ErrReplayDiverged, a.Type, a.Planet)
		}
	case ActionSendShips:
		if _, err := s.SendShips(a.Planet, a.To, a.Amount); err != nil {
			return fmt.Errorf("%w: %s from %d: %v", ErrReplayDiverged, a.Type, a.Planet, err)
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// Replay loads snap against teams and re-executes the journal with the same
// fixed tick the live loop uses, stopping once the clock reaches until. Teams
// must carry the balances they held when snap was taken.
func Replay(snap SystemSnapshot, teams []*Team, actions []Action, until float64) (*System, error) {
	s, err := LoadSystem(snap, teams)
	if err != nil {
		return nil, err
	}

	ordered := append([]Action(nil), actions...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })

	for _, a := range ordered {
		for s.Time() < a.Time {
			s.Update(TickSeconds, false)
		}
		if err := a.Apply(s); err != nil {
			return s, err
		}
	}
	for s.Time() < until {
		s.Update(TickSeconds, false)
	}
	return s, nil
}
