// Package file implements the SessionStore port on the local filesystem.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

// DefaultMaxAge bounds how long a cached login is trusted. Cloud sessions
// are assumed valid for roughly ten minutes; 595s leaves margin.
const DefaultMaxAge = 595 * time.Second

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// envelope wraps the raw login payload with the time it was cached. Expiry
// compares against this embedded timestamp rather than file modification
// time, so touching the file without rewriting it cannot extend a session.
type envelope struct {
	SavedAt time.Time       `json:"saved_at"`
	Login   json.RawMessage `json:"login"`
}

// SessionRepo is the file-backed implementation of the SessionStore port.
// A maxAge <= 0 disables the expiry check entirely; the cache is then
// trusted until the cloud itself rejects it.
type SessionRepo struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionRepo creates a SessionRepo for the given cache file path.
func NewSessionRepo(path string, maxAge time.Duration) *SessionRepo {
	return &SessionRepo{path: path, maxAge: maxAge, now: time.Now}
}

// NewSessionRepoWithClock creates a SessionRepo with an injected clock.
// Intended for tests.
func NewSessionRepoWithClock(path string, maxAge time.Duration, now func() time.Time) *SessionRepo {
	return &SessionRepo{path: path, maxAge: maxAge, now: now}
}

// Load reads and parses the cached login data. A missing, unreadable or
// torn cache file surfaces as ErrCacheMiss; an entry whose age meets or
// exceeds maxAge surfaces as ErrCacheExpired even when the bytes are valid.
func (r *SessionRepo) Load(_ context.Context) (*model.LoginData, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, driven.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", driven.ErrCacheMiss, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A concurrent writer may have left a torn file behind. Degrade to
		// a miss so the caller logs in again instead of failing.
		return nil, fmt.Errorf("%w: corrupt cache file %s", driven.ErrCacheMiss, r.path)
	}
	if env.SavedAt.IsZero() || len(env.Login) == 0 {
		return nil, fmt.Errorf("%w: corrupt cache file %s", driven.ErrCacheMiss, r.path)
	}

	if r.maxAge > 0 {
		if age := r.now().Sub(env.SavedAt); age >= r.maxAge {
			return nil, fmt.Errorf("%w: age %s, max %s",
				driven.ErrCacheExpired, age.Round(time.Second), r.maxAge)
		}
	}

	data, err := model.ParseLoginData(env.Login)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrCacheMiss, err)
	}
	return data, nil
}

// Save replaces the cache file with the given login data via a temp-file
// write and rename, so readers never observe a partial entry.
func (r *SessionRepo) Save(_ context.Context, data *model.LoginData) error {
	raw := data.Raw
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return fmt.Errorf("encode login data: %w", err)
		}
	}

	buf, err := json.Marshal(envelope{SavedAt: r.now().UTC(), Login: raw})
	if err != nil {
		return fmt.Errorf("encode login cache: %w", err)
	}

	if err := atomic.WriteFile(r.path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write login cache %s: %w", r.path, err)
	}

	slog.Info("saved login data to cache", "path", r.path)
	return nil
}
