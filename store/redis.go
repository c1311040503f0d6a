package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis store keeps the whole record set as one JSON value,
// so a single key is read and written on each call.
type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store backed by a redis key.
func NewRedisStore(client *redis.Client, key string) ResourceStore {
	return &redisStore{
		client: client,
		key:    key,
	}
}

func (s *redisStore) Load(ctx context.Context) (*resources.RecordSet, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "not_found",
				"key", s.key,
			)
			return resources.New(), nil
		}
		return nil, errors.Mark(errors.Wrapf(err, "failed to get %s from redis", s.key), ErrIO)
	}

	rs, err := decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", s.key)
	}
	return rs, nil
}

func (s *redisStore) Save(ctx context.Context, rs *resources.RecordSet) error {
	data, err := resources.Encode(rs)
	if err != nil {
		return err
	}
	if err = s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to store %s in redis", s.key), ErrIO)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "saved",
		"key", s.key,
		"kinds", rs.Kinds(),
	)
	return nil
}
