package server

// MatchState is the lifecycle position of a ServerGame
type MatchState int

const (
	StateQueued MatchState = iota
	StateLobby
	StateCountdown
	StatePlaying
	StatePaused
	StateEnded
)

var matchStateNames = map[MatchState]string{
	StateQueued:    "QUEUED",
	StateLobby:     "LOBBY",
	StateCountdown: "COUNTDOWN",
	StatePlaying:   "PLAYING",
	StatePaused:    "PAUSED",
	StateEnded:     "ENDED",
}

func (s MatchState) String() string {
	if name, ok := matchStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// matchTransitions lists the legal moves out of each state. Once a match has
// started it never returns to LOBBY; a leave during any countdown pauses it.
var matchTransitions = map[MatchState][]MatchState{
	StateQueued:    {StateLobby, StateEnded},
	StateLobby:     {StateCountdown, StateEnded},
	StateCountdown: {StatePlaying, StatePaused, StateEnded},
	StatePlaying:   {StatePaused, StateEnded},
	StatePaused:    {StateCountdown, StateEnded},
	StateEnded:     nil,
}

// CanTransition reports whether moving from s to next is legal
func (s MatchState) CanTransition(next MatchState) bool {
	for _, to := range matchTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// stateSet is a small helper for route gating
type stateSet []MatchState

func (ss stateSet) has(s MatchState) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
