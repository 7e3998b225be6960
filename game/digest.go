package game

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"
)

// Digest hashes the literal snapshot of s. Two systems with identical
// planets, fleets and clocks hash identically, which is how replays are
// checked against the archived result.
func Digest(s *System) (string, error) {
	data, err := json.Marshal(s.Save(true))
	if err != nil {
		return "", fmt.Errorf("encoding system for digest: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
