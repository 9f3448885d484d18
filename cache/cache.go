/*
Package cache stores computed scenario results keyed by document content.

PURPOSE:
  Calculating a scenario is pure: the same document always produces the
  same result. The cache maps a hash of the document to the serialized
  result so repeated calculations of an unchanged scenario skip the
  engine entirely.

BACK ENDS:
  Memory: map guarded by a RWMutex, optional TTL (tests, single node)
  Redis:  go-redis client with a TTL on every key (shared across nodes)
  Nop:    never hits (cache disabled)

FAILURE MODE:
  The cache is an optimisation. Callers log errors from Get and Set and
  fall back to computing.

SEE ALSO:
  - api/handlers.go: Calculate handler reads and fills the cache
*/
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// KeyPrefix namespaces result keys in shared back ends.
const KeyPrefix = "feasly:result:"

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Cache stores serialized results.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Close() error
}

// Options configure New.
type Options struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
}

// New opens the back end named by opts.Backend.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendMemory, "":
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.TTL)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, errors.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Key hashes a canonical scenario document into a cache key.
//
// The document must be serialized deterministically (encoding/json on a
// struct is). Any change to the document changes the key.
func Key(doc []byte) string {
	return fmt.Sprintf("%s%016x", KeyPrefix, xxhash.Sum64(doc))
}

// Nop is a cache that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, string, string) error         { return nil }
func (Nop) Close() error                                      { return nil }
