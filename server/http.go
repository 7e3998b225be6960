package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/storage"
)

// Router builds the HTTP surface: the websocket endpoint plus a few
// read-only JSON endpoints
func (sc *ServerContext) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ws", sc.HandleWebSocket)
	r.Get("/api/games", sc.HandleGames)
	r.Get("/api/matches/{id}/verify", sc.HandleVerify)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleGames lists the public games
func (sc *ServerContext) HandleGames(w http.ResponseWriter, r *http.Request) {
	// Enable CORS for cross-origin requests
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games": sc.Manager.Listing(),
	})
}

// VerifyResult compares an archived digest with a fresh replay
type VerifyResult struct {
	GameID   string  `json:"gameID"`
	Actions  int     `json:"actions"`
	EndTime  float64 `json:"endTime"`
	Recorded string  `json:"recorded"`
	Replayed string  `json:"replayed"`
	Match    bool    `json:"match"`
}

// HandleVerify replays an archived match and checks it reproduces the
// recorded final state
func (sc *ServerContext) HandleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := normalizeGameID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid game id"})
		return
	}

	res, err := sc.verifyMatch(id)
	switch {
	case errors.Is(err, storage.ErrMatchNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, errMatchRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		sc.Log.Error().Err(err).Str("game", id).Msg("Verify failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

var errMatchRunning = errors.New("match has not ended")

func (sc *ServerContext) verifyMatch(id string) (*VerifyResult, error) {
	rec, records, err := sc.Archive.LoadMatch(id)
	if err != nil {
		return nil, err
	}
	if rec.EndedAt == nil {
		return nil, errMatchRunning
	}

	teams, err := replayTeams(rec.Teams)
	if err != nil {
		return nil, err
	}
	actions := make([]game.Action, 0, len(records))
	for _, a := range records {
		actions = append(actions, a.Action)
	}

	sys, err := game.Replay(rec.Snapshot, teams, actions, rec.EndTime)
	if err != nil {
		return nil, err
	}
	digest, err := game.Digest(sys)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		GameID:   id,
		Actions:  len(actions),
		EndTime:  rec.EndTime,
		Recorded: rec.Digest,
		Replayed: digest,
		Match:    digest == rec.Digest,
	}, nil
}

// replayTeams rebuilds the teams a match started with
func replayTeams(records []storage.TeamRecord) ([]*game.Team, error) {
	teams := make([]*game.Team, 0, len(records))
	for _, tr := range records {
		if tr.ID < 0 || tr.ID >= len(game.Colours) {
			return nil, fmt.Errorf("archived team %d out of range", tr.ID)
		}
		t := game.NewTeam(game.Colours[tr.ID], tr.ID)
		t.SetPixels(tr.Pixels)
		teams = append(teams, t)
	}
	return teams, nil
}
