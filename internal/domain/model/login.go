// Package model contains the domain types for the Aranet Cloud client.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrSpaceNotResolved is returned when the configured space name cannot be
// mapped to exactly one space id. This is a configuration problem; callers
// must not retry.
var ErrSpaceNotResolved = errors.New("space name not resolved")

// LoginData is the parsed body of a successful /user/login response.
// Raw retains the exact response bytes so the credential cache can persist
// the payload as the cloud returned it.
type LoginData struct {
	Auth   string            `json:"auth"`
	Spaces map[string]string `json:"spaces"`
	Raw    []byte            `json:"-"`
}

// ParseLoginData decodes a login response body. The original bytes are kept
// in the Raw field.
func ParseLoginData(raw []byte) (*LoginData, error) {
	var d LoginData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse login response: %w", err)
	}
	if d.Auth == "" {
		return nil, errors.New("login response has no auth token")
	}
	d.Raw = raw
	return &d, nil
}

// Session is a bearer token paired with the resolved space id. It stays
// valid until the cloud rejects it or the local cache deems it stale.
type Session struct {
	Token   string
	SpaceID string
}

// ResolveSpaceID maps the configured space name to its id using the space
// list from the login response. A list with a single entry is accepted even
// when its name differs from spaceName (the mismatch is logged); otherwise
// the name must match exactly one entry.
func (d *LoginData) ResolveSpaceID(spaceName string) (string, error) {
	if len(d.Spaces) == 0 {
		return "", fmt.Errorf("%w: space list is empty", ErrSpaceNotResolved)
	}

	if len(d.Spaces) == 1 {
		for id, name := range d.Spaces {
			if name != spaceName {
				slog.Warn("space name mismatch",
					"configured", spaceName,
					"actual", name,
				)
			}
			return id, nil
		}
	}

	var ids []string
	for id, name := range d.Spaces {
		if name == spaceName {
			ids = append(ids, id)
		}
	}

	switch len(ids) {
	case 1:
		return ids[0], nil
	case 0:
		return "", fmt.Errorf("%w: no space named %q", ErrSpaceNotResolved, spaceName)
	default:
		return "", fmt.Errorf("%w: %d spaces named %q", ErrSpaceNotResolved, len(ids), spaceName)
	}
}

// Session resolves spaceName and combines it with the auth token.
func (d *LoginData) Session(spaceName string) (Session, error) {
	id, err := d.ResolveSpaceID(spaceName)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: d.Auth, SpaceID: id}, nil
}
