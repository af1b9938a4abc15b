package propertymap

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the serialisation format version written by Dump.
const Version = 1

// ErrUnsupportedVersion is returned by Load for unknown format versions.
var ErrUnsupportedVersion = errors.New("propertymap: unsupported version")

// ErrInvalidDump is returned by Load for malformed input.
var ErrInvalidDump = errors.New("propertymap: invalid dump")

type envelope struct {
	Version    int                   `json:"version"`
	Interfaces map[string]Properties `json:"interfaces"`
}

// Dump serialises the map for an endpoint cookie.
func (m PropertyMap) Dump() (string, error) {
	b, err := json.Marshal(envelope{Version: Version, Interfaces: m})
	if err != nil {
		return "", fmt.Errorf("propertymap: dump: %w", err)
	}
	return string(b), nil
}

// Load parses a string written by Dump.
func Load(s string) (PropertyMap, error) {
	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	m := New()
	for k, v := range env.Interfaces {
		if len(v) > 0 {
			m[k] = v
		}
	}
	return m, nil
}
