package server

import (
	"encoding/json"
	"fmt"

	"github.com/qwertysam/solar-colony/game"
)

// PacketType tags every message on the wire
type PacketType string

// Packet types
const (
	PacketPingProbe     PacketType = "PING_PROBE"
	PacketPingSet       PacketType = "PING_SET"
	PacketJoinGame      PacketType = "JOIN_GAME"
	PacketCreateTeams   PacketType = "CREATE_TEAMS"
	PacketUpdateTeams   PacketType = "UPDATE_TEAMS"
	PacketJoinTeam      PacketType = "JOIN_TEAM"
	PacketStartButton   PacketType = "START_BUTTON"
	PacketUpdateMessage PacketType = "UPDATE_MESSAGE"
	PacketCreateSystem  PacketType = "CREATE_SYSTEM"
	PacketSetClientTeam PacketType = "SET_CLIENT_TEAM"
	PacketCreateShips   PacketType = "CREATE_SHIPS"
	PacketCreateSpawn   PacketType = "CREATE_SPAWN"
	PacketSendShips     PacketType = "SEND_SHIPS"
	PacketPause         PacketType = "PAUSE"
	PacketPlay          PacketType = "PLAY"
	PacketResume        PacketType = "RESUME"
	PacketSetTime       PacketType = "SET_TIME"
	PacketQuit          PacketType = "QUIT"

	// Join form
	PacketQueue      PacketType = "QUEUE"
	PacketCreateGame PacketType = "CREATE_GAME"
	PacketJoinID     PacketType = "JOIN_ID"
	PacketFormFail   PacketType = "FORM_FAIL"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type PacketType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type PacketType  `json:"type"`
	Data interface{} `json:"data"`
}

// decodePayload unmarshals the message body into T. A missing body decodes
// to T's zero value since several packets carry no payload.
func decodePayload[T any](msg ClientMessage) (T, error) {
	var out T
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		return out, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
	}
	return out, nil
}

// Payloads

// Empty is the payload of packets that carry nothing
type Empty struct{}

// PingProbeData numbers a server probe. Clients echo Seq back unchanged;
// their own probes leave it zero.
type PingProbeData struct {
	Seq int `json:"seq,omitempty"`
}

// PingData carries a round-trip estimate in milliseconds
type PingData struct {
	Ping int `json:"ping"`
}

// JoinFormData is sent by QUEUE and CREATE_GAME
type JoinFormData struct {
	Name    string `json:"name"`
	Players int    `json:"players,omitempty"`
}

// JoinIDData joins a game by its code
type JoinIDData struct {
	Name   string `json:"name"`
	GameID string `json:"gameID"`
}

// FormFailData explains why a join was refused
type FormFailData struct {
	Reason string `json:"reason"`
}

// JoinGameData confirms a session has joined a game
type JoinGameData struct {
	GameID     string `json:"gameID"`
	MaxPlayers int    `json:"maxPlayers"`
	Started    bool   `json:"started"`
}

// TeamInfo describes one team in CREATE_TEAMS and UPDATE_TEAMS
type TeamInfo struct {
	ID      int      `json:"id"`
	Colour  string   `json:"colour,omitempty"`
	Hex     int      `json:"hex,omitempty"`
	Players []string `json:"players"`
}

// TeamsData is the team roster list
type TeamsData struct {
	Teams []TeamInfo `json:"teams"`
}

// JoinTeamData selects a team
type JoinTeamData struct {
	Team int `json:"team"`
}

// UpdateMessageData is the lobby status line
type UpdateMessageData struct {
	Message      string `json:"message"`
	StartEnabled bool   `json:"startEnabled"`
	MaxPlayers   int    `json:"maxPlayers"`
	PlayerCount  int    `json:"playerCount"`
	Team         int    `json:"team"`
}

// CreateSystemData carries the full literal snapshot
type CreateSystemData struct {
	System game.SystemSnapshot `json:"sys"`
}

// ClientTeamData tells a client which team it controls
type ClientTeamData struct {
	Team int `json:"team"`
}

// CreateShipsData buys or announces ships
type CreateShipsData struct {
	Planet int `json:"pl"`
	N      int `json:"n"`
	Cost   int `json:"c"`
}

// CreateSpawnData buys or announces a spawn
type CreateSpawnData struct {
	Planet int  `json:"pl"`
	Force  bool `json:"force,omitempty"`
}

// SendShipsData launches a fleet. The server fills the trajectory fields
// when it broadcasts the launch.
type SendShipsData struct {
	Planet    int     `json:"pl"`
	To        int     `json:"to"`
	Amount    int     `json:"amount"`
	X1        float64 `json:"x1,omitempty"`
	Y1        float64 `json:"y1,omitempty"`
	X2        float64 `json:"x2,omitempty"`
	Y2        float64 `json:"y2,omitempty"`
	ShipSpeed float64 `json:"shipSpeed,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// TimeData carries the simulation clock in seconds
type TimeData struct {
	Time float64 `json:"time"`
}

// PlayData starts the synchronized countdown. Countdown is in seconds and
// already includes MaxPing.
type PlayData struct {
	MaxPing   int     `json:"maxPing"`
	Countdown float64 `json:"countdown"`
}

// ResumeData reports how many players are ready to resume
type ResumeData struct {
	Ready int `json:"p"`
	Total int `json:"m"`
}
