package server

import (
	"fmt"

	"github.com/qwertysam/solar-colony/game"
)

// recipients is either the single session to address or, when to is nil,
// the whole roster
func (g *ServerGame) recipients(to *Session) []*Session {
	if to != nil {
		return []*Session{to}
	}
	return g.players
}

// createTeams sends the team slots, then their rosters
func (g *ServerGame) createTeams(to *Session) {
	teams := g.Teams()
	data := TeamsData{Teams: make([]TeamInfo, 0, len(teams))}
	for _, t := range teams {
		data.Teams = append(data.Teams, TeamInfo{ID: t.ID, Colour: t.Colour.String(), Hex: t.Colour.Hex(), Players: []string{}})
	}
	for _, s := range g.recipients(to) {
		s.Send(PacketCreateTeams, data)
	}
	g.updateTeams(to)
}

// updateTeams sends every roster, followed by the lobby status line while
// teams are still being picked
func (g *ServerGame) updateTeams(to *Session) {
	teams := g.Teams()
	data := TeamsData{Teams: make([]TeamInfo, 0, len(teams))}
	for _, t := range teams {
		data.Teams = append(data.Teams, TeamInfo{ID: t.ID, Players: t.PlayerNames()})
	}
	for _, s := range g.recipients(to) {
		s.Send(PacketUpdateTeams, data)
	}
	if !g.started {
		g.updateSelectionMessages(to)
	}
}

func plural(n int) string {
	if n != 1 {
		return "s"
	}
	return ""
}

// selectionMessage is the lobby status line for one player
func (g *ServerGame) selectionMessage(s *Session) UpdateMessageData {
	total := len(g.players)
	started := 0
	for _, p := range g.players {
		if p.start {
			started++
		}
	}

	msg := UpdateMessageData{
		MaxPlayers:  g.maxPlayers,
		PlayerCount: total,
		Team:        game.NoTeam,
	}
	minPlayers := g.sc.Config.Game.MinPlayers

	switch {
	case s.team == nil:
		msg.Message = "Click a colour to choose a team"
	case total < minPlayers:
		msg.Team = s.team.ID
		need := minPlayers - total
		msg.Message = fmt.Sprintf("%d more player%s required to start game...", need, plural(need))
	case s.start:
		msg.Team = s.team.ID
		if started == total {
			if len(game.PopulatedTeams(g.teams)) < 2 {
				msg.Message = "More than one team must be populated"
			}
		} else {
			waiting := total - started
			msg.Message = fmt.Sprintf("Waiting for %d player%s to confirm teams (%d/%d)", waiting, plural(waiting), started, total)
		}
	default:
		msg.Team = s.team.ID
		msg.Message = "Press start to begin with these teams"
		msg.StartEnabled = true
	}
	return msg
}

func (g *ServerGame) updateSelectionMessages(to *Session) {
	for _, s := range g.recipients(to) {
		s.Send(PacketUpdateMessage, g.selectionMessage(s))
	}
}

// joinTeam moves s onto team id. In the lobby every start vote is reset.
// After the start only a late joiner without a team may pick, and only one
// of the teams in play.
func (g *ServerGame) joinTeam(s *Session, id int) error {
	if g.started {
		if g.state != StatePaused || s.team != nil {
			return ErrGameStarted
		}
	}
	t := game.TeamByID(g.Teams(), id)
	if t == nil {
		return fmt.Errorf("unknown team %d", id)
	}

	if !g.started {
		for _, p := range g.players {
			p.start = false
		}
	}
	if s.team != nil {
		s.team.RemovePlayer(s)
	}
	t.AddPlayer(s)
	s.team = t

	g.updateTeams(nil)
	s.Send(PacketSetClientTeam, ClientTeamData{Team: t.ID})
	return nil
}

// startButton records a start vote and starts the match once every player
// has voted and at least two teams are populated
func (g *ServerGame) startButton(s *Session) {
	if s.start || s.team == nil {
		return
	}
	s.start = true

	chosen := 0
	for _, p := range g.players {
		if p.start {
			chosen++
		}
	}
	if chosen >= g.sc.Config.Game.MinPlayers && chosen == len(g.players) && len(game.PopulatedTeams(g.teams)) >= 2 {
		g.start()
		return
	}
	g.updateSelectionMessages(nil)
}
