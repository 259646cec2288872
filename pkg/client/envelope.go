package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// listKeys are the envelope fields list endpoints wrap their rows in.
var listKeys = []string{"usuarios", "libros", "prestamos", "wishlist", "data", "items"}

// decodeList accepts a bare JSON array or an object carrying the array
// under one of listKeys. A missing or null array decodes as empty.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var out []T
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	for _, k := range listKeys {
		v, ok := env[k]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("decode list %q: %w", k, err)
		}
		return out, nil
	}
	return []T{}, nil
}

// getList fetches path and unwraps its list envelope.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}
