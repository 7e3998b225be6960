package server

import (
	"html"
	"strings"
)

const (
	maxNameLength = 20
	defaultName   = "Player"
)

// sanitizeName removes non-alphanumeric characters and escapes HTML
func sanitizeName(name string) string {
	// Remove non-alphanumeric characters first, then truncate
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			return r
		}
		return -1
	}, name)
	cleaned = strings.TrimSpace(cleaned)

	// Limit name length after cleaning
	if len(cleaned) > maxNameLength {
		cleaned = strings.TrimSpace(cleaned[:maxNameLength])
	}
	if cleaned == "" {
		return defaultName
	}

	return html.EscapeString(cleaned)
}

// normalizeGameID upper-cases a typed game code and reports whether it
// could be a code at all
func normalizeGameID(id string) (string, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) != IDLength {
		return id, false
	}
	for _, r := range id {
		if !strings.ContainsRune(IDCharacters, r) {
			return id, false
		}
	}
	return id, true
}
