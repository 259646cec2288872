package tui

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pageSize is the default number of items fetched per API call.
const pageSize = 50

// maxInputLen is the maximum number of runes allowed in search and form inputs.
const maxInputLen = 500

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware), single printable characters and pasted
// text, which bubbletea delivers as one multi-rune key (wrapped in brackets
// for bracketed paste). Returns the text unchanged for named keys (enter,
// esc, ctrl+c, etc.). Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) != 1 {
		var ok bool
		if key, ok = pastedText(key); !ok {
			return text
		}
	}
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if runes := []rune(key); len(runes) > room {
		key = string(runes[:room])
	}
	return text + key
}

// namedKeys are the multi-rune names bubbletea gives keys that insert no text.
var namedKeys = map[string]bool{
	"enter": true, "esc": true, "tab": true, "delete": true, "insert": true,
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pgup": true, "pgdown": true,
}

// pastedText returns the text carried by a multi-rune key. Line breaks and
// tabs become spaces and other control characters are dropped, so inputs
// stay on one line.
func pastedText(key string) (string, bool) {
	if key == "" || namedKeys[key] || isModified(key) || isFunctionKey(key) {
		return "", false
	}
	if len(key) > 2 && key[0] == '[' && key[len(key)-1] == ']' {
		key = key[1 : len(key)-1]
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), b.Len() > 0
}

func isModified(key string) bool {
	for _, p := range []string{"ctrl+", "alt+", "shift+"} {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// isFunctionKey matches "f1" through "f20".
func isFunctionKey(key string) bool {
	if len(key) < 2 || len(key) > 3 || key[0] != 'f' {
		return false
	}
	n, err := strconv.Atoi(key[1:])
	return err == nil && n >= 1 && n <= 20
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a single-line input with a label, placeholder and
// cursor. Masked inputs show one bullet per rune.
func renderInput(label, value, placeholder string, focused, masked bool) string {
	shown := value
	if masked {
		shown = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	prompt := dimStyle.Render(label + ": ")
	if focused {
		prompt = inputPromptStyle.Render("> ") + normalStyle.Render(label+": ")
	} else {
		prompt = "  " + prompt
	}
	if shown == "" {
		if focused {
			return prompt + accentStyle.Render("█")
		}
		return prompt + inputPlaceholderStyle.Render(placeholder)
	}
	if focused {
		return prompt + selectedStyle.Render(shown) + accentStyle.Render("█")
	}
	return prompt + normalStyle.Render(shown)
}
