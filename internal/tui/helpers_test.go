package tui

import "testing"

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "-"},
		{"2024-03-09", "2024-03-09"},
		{"2024-03-09T14:22:01", "2024-03-09"},
		{"2024-03-09 14:22:01", "2024-03-09"},
		{"2024-03-09T14:22:01Z", "2024-03-09"},
		{"mañana", "mañana"},
	}
	for _, tt := range tests {
		if got := formatDate(tt.in); got != tt.want {
			t.Errorf("formatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"año", 4, "año "},
		{"", 0, ""},
	}
	for _, tt := range tests {
		if got := padRight(tt.s, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := cleanText("  una\n\nhistoria \t larga "); got != "una historia larga" {
		t.Errorf("cleanText = %q", got)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		filter string
		fields []string
		want   bool
	}{
		{"", []string{"anything"}, true},
		{"  ", nil, true},
		{"borges", []string{"Ficciones", "Jorge Luis Borges"}, true},
		{"BORGES", []string{"jorge luis borges"}, true},
		{"cortázar", []string{"Ficciones", "Jorge Luis Borges"}, false},
	}
	for _, tt := range tests {
		if got := matches(tt.filter, tt.fields...); got != tt.want {
			t.Errorf("matches(%q, %v) = %v, want %v", tt.filter, tt.fields, got, tt.want)
		}
	}
}

func TestMoveCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		n      int
		key    string
		want   int
	}{
		{"down", 0, 3, "j", 1},
		{"down at end", 2, 3, "down", 2},
		{"up", 2, 3, "k", 1},
		{"up at start", 0, 3, "up", 0},
		{"top", 2, 3, "g", 0},
		{"bottom", 0, 3, "G", 2},
		{"empty list", 0, 0, "j", 0},
		{"unknown key clamps", 5, 3, "z", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moveCursor(tt.cursor, tt.n, tt.key); got != tt.want {
				t.Errorf("moveCursor(%d, %d, %q) = %d, want %d", tt.cursor, tt.n, tt.key, got, tt.want)
			}
		})
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		name               string
		cursor, n, rows    int
		wantStart, wantEnd int
	}{
		{"fits", 3, 5, 10, 0, 5},
		{"no height", 3, 5, 0, 0, 5},
		{"top", 0, 100, 10, 0, 10},
		{"middle", 50, 100, 10, 45, 55},
		{"bottom", 99, 100, 10, 90, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := visibleRange(tt.cursor, tt.n, tt.rows)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("visibleRange(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.cursor, tt.n, tt.rows, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
