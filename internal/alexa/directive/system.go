package directive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/settings"
)

func (d *Dispatcher) reportState(ctx context.Context, r *Request) (*alexa.Response, error) {
	if len(r.PropertyMap) == 0 {
		return nil, alexa.ErrInvalidValue("No capabilities defined for endpoint")
	}
	props, err := d.properties(ctx, r)
	if err != nil {
		return nil, err
	}
	return alexa.NewStateReport(r.Directive, append(props, d.connectivity())), nil
}

func (d *Dispatcher) discover(ctx context.Context, r *Request) (*alexa.Response, error) {
	if d.discoverer == nil {
		return nil, alexa.ErrInternal("discovery is not configured")
	}
	endpoints, err := d.discoverer.Discover(ctx, r.Token)
	if err != nil {
		return nil, err
	}
	return alexa.NewDiscoverResponse(r.Directive, endpoints), nil
}

// UserID derives the settings key of a linked account from its bearer
// token. The token itself is never stored.
func UserID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (d *Dispatcher) acceptGrant(ctx context.Context, r *Request) (*alexa.Response, error) {
	var payload struct {
		Grant struct {
			Type string `json:"type"`
			Code string `json:"code"`
		} `json:"grant"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Grant.Code == "" || r.Token == "" {
		return nil, alexa.ErrAcceptGrantFailed("Missing grant code or grantee token")
	}
	if d.grants == nil {
		return nil, alexa.ErrAcceptGrantFailed("Authorization store is not configured")
	}

	err := d.grants.SaveUserSettings(ctx, UserID(r.Token), settings.UserSettings{
		"grant_code":  payload.Grant.Code,
		"grant_type":  payload.Grant.Type,
		"accepted_at": d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logger.Error("saving authorization grant failed", "error", err)
		return nil, alexa.ErrAcceptGrantFailed("Failed to store the authorization grant")
	}
	return alexa.NewAcceptGrantResponse(r.Directive), nil
}
