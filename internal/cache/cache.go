// Package cache persists resolution results keyed by a deterministic hash
// of the request parameters. The core's contract is read-miss → compute →
// write, and read-hit → return + bump hit counter; TTL enforcement lives in
// the store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/communisaas/resolver-cli/internal/model"
)

// DefaultTTL is how long a cached resolution stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is one cached resolution.
type Entry struct {
	Key       string
	Result    model.ResolutionResult
	Hits      int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the persistence interface for cached resolutions.
type Store interface {
	// Get returns the live entry for a key, bumping its hit counter, or
	// (nil, nil) on a miss or expired entry.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores a result under a key with the given TTL, replacing any
	// prior entry.
	Put(ctx context.Context, key string, result *model.ResolutionResult, ttl time.Duration) error

	// DeleteExpired removes dead entries and reports how many.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Key derives the deterministic cache key for a request. Only the fields
// that change what discovery would find participate; streaming and
// cancellation do not.
func Key(req *model.ResolutionRequest) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(string(req.Class))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(req.EntityName)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(req.EntityURL)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(req.Scope)))
	return hex.EncodeToString(h.Sum(nil))
}
