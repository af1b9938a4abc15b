// Package settings stores per-user key/value settings for linked Alexa
// accounts.
//
// A user is identified by an opaque ID derived from their bearer token.
// Two backends are provided: SQLiteStore for single-node deployments and
// RedisStore when several bridge instances share state.
package settings

import (
	"context"
	"errors"
	"maps"
)

// ErrNotFound is returned when a user has no stored settings.
var ErrNotFound = errors.New("settings: user not found")

// ErrEmptyUserID is returned when an operation is given a blank user ID.
var ErrEmptyUserID = errors.New("settings: empty user id")

// UserSettings is a flat JSON-serialisable map of setting name to value.
type UserSettings map[string]any

// Clone returns a shallow copy.
func (s UserSettings) Clone() UserSettings {
	if s == nil {
		return UserSettings{}
	}
	return maps.Clone(s)
}

// Merge returns s overlaid with patch. Keys whose patch value is nil are
// removed.
func (s UserSettings) Merge(patch UserSettings) UserSettings {
	out := s.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Store persists user settings.
type Store interface {
	// GetUserSettings returns the settings of userID, or ErrNotFound.
	GetUserSettings(ctx context.Context, userID string) (UserSettings, error)

	// SaveUserSettings replaces the settings of userID.
	SaveUserSettings(ctx context.Context, userID string, s UserSettings) error

	// UpdateUserSettings merges patch into the stored settings of userID,
	// creating them if absent, and returns the result.
	UpdateUserSettings(ctx context.Context, userID string, patch UserSettings) (UserSettings, error)

	// DeleteUserSettings removes userID. Deleting an unknown user is not
	// an error.
	DeleteUserSettings(ctx context.Context, userID string) error
}
