package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a backend record. The API sends numeric ids; locally created
// records carry a temporary string id (e.g. "local-1") until the server
// assigns one, so ID accepts both on the wire.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("domain.ID: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("domain.ID: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Numeric reports whether the id is a server-assigned numeric id.
func (id ID) Numeric() bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Local reports whether the id is a client-side temporary id.
func (id ID) Local() bool {
	return strings.HasPrefix(string(id), LocalIDPrefix)
}

func (id ID) String() string { return string(id) }

// LocalIDPrefix prefixes temporary ids of optimistically created records.
const LocalIDPrefix = "local-"
