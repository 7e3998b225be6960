package server

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "alice", "alice"},
		{"strips symbols", "<b>al!ce</b>", "balceb"},
		{"keeps spaces", "  Big Al  ", "Big Al"},
		{"empty", "", defaultName},
		{"only symbols", "!!!", defaultName},
		{"truncates", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
		{"trims after truncating", "abcdefghijklmnopqrs tuv", "abcdefghijklmnopqrs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.input); got != tt.expected {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeGameID(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"abcde", "ABCDE", true},
		{" k7x2m ", "K7X2M", true},
		{"ABCD", "ABCD", false},
		{"ABCDEF", "ABCDEF", false},
		{"ABCD0", "ABCD0", false}, // 0 and O are not in the alphabet
		{"ABCDO", "ABCDO", false},
		{"ABCD1", "ABCD1", false},
	}

	for _, tt := range tests {
		got, ok := normalizeGameID(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeGameID(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
