// Package driven defines the ports implemented by outbound adapters.
package driven

import (
	"context"
	"errors"

	"github.com/aranetools/aranetcloud/internal/domain/model"
)

// ErrCacheMiss is returned by SessionStore.Load when no cached login exists
// or the cached payload cannot be read. A torn concurrent write surfaces as
// a miss, never as a hard failure.
var ErrCacheMiss = errors.New("login cache miss")

// ErrCacheExpired is returned by SessionStore.Load when the cached login is
// older than the configured maximum age.
var ErrCacheExpired = errors.New("login cache expired")

// SessionStore defines the driven port for persisting the login response
// between process invocations.
type SessionStore interface {
	// Load returns the cached login data. Fails with ErrCacheMiss or
	// ErrCacheExpired; both are recoverable by logging in again.
	Load(ctx context.Context) (*model.LoginData, error)

	// Save overwrites the cache with the given login data. It never merges
	// with a previous entry.
	Save(ctx context.Context, data *model.LoginData) error
}
