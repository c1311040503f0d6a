// Package store persists the gateway resource record set.
//
// The store is not locked: concurrent writers are not coordinated and
// the last writer wins.
package store

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "store")

var (
	// ErrDecode is returned when the persisted record set exists,
	// but can not be parsed.
	ErrDecode = errors.New("failed to decode resources")
	// ErrIO is returned when the backing store can not be read or written.
	ErrIO = errors.New("resource store I/O failure")
)

// DefaultRedisKey is the key of the record set in redis.
const DefaultRedisKey = "agentcore/resources"

// ResourceStore loads and saves the record set.
type ResourceStore interface {
	// Load returns the persisted record set,
	// or an empty record set if nothing is persisted.
	Load(ctx context.Context) (*resources.RecordSet, error)
	// Save overwrites the persisted record set.
	Save(ctx context.Context, rs *resources.RecordSet) error
}

// New returns the store configured by cfg:
// redis when ResourceStoreURL is set, the file otherwise.
// The "memory://" URL keeps the record set in the process only.
func New(cfg *config.Config) (ResourceStore, error) {
	if cfg.ResourceStoreURL == "" {
		return NewFileStore(cfg.ResourceStoreFile), nil
	}
	if cfg.ResourceStoreURL == "memory://" {
		return NewMemoryStore(nil), nil
	}
	if !strings.HasPrefix(cfg.ResourceStoreURL, "redis://") && !strings.HasPrefix(cfg.ResourceStoreURL, "rediss://") {
		return nil, errors.Newf("unsupported resource store URL: %s", cfg.ResourceStoreURL)
	}
	opts, err := redis.ParseURL(cfg.ResourceStoreURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}
	return NewRedisStore(redis.NewClient(opts), DefaultRedisKey), nil
}

// decode marks parsing failures with ErrDecode
func decode(data []byte) (*resources.RecordSet, error) {
	rs, err := resources.Decode(data)
	if err != nil {
		return nil, errors.Mark(err, ErrDecode)
	}
	return rs, nil
}
