package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/models"
)

// RedisStore keeps checkpoints in redis. Payloads live at <prefix>:<key>,
// the <prefix>:keys set indexes them, and <prefix>:written_at records when
// each was written.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger logger.Logger
}

// NewRedisStore creates a store over an existing client
func NewRedisStore(client redis.UniversalClient, prefix string, log logger.Logger) *RedisStore {
	if prefix == "" {
		prefix = "paperharvest"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.OrNop(log).WithField("component", "checkpoint"),
	}
}

func (s *RedisStore) entryKey(key string) string { return s.prefix + ":" + key }
func (s *RedisStore) indexKey() string          { return s.prefix + ":keys" }
func (s *RedisStore) writtenKey() string        { return s.prefix + ":written_at" }

// Ping verifies the server is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "redis ping")
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.entryKey(key)).Result()
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "check checkpoint %s", key)
	}
	return n > 0, nil
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]models.Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "read checkpoint %s", key)
	}
	return decode(key, data)
}

// Write stores the payload and updates the index in one MULTI/EXEC block
func (s *RedisStore) Write(ctx context.Context, key string, records []models.Record) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", key, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.entryKey(key), data, 0)
		pipe.SAdd(ctx, s.indexKey(), key)
		pipe.HSet(ctx, s.writtenKey(), key, time.Now().UTC().Format(time.RFC3339))
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("unit", key).Error("Checkpoint write failed")
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "write checkpoint %s", key)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"unit":    key,
		"records": len(records),
	})
	return nil
}

func (s *RedisStore) ListKeys(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "list checkpoints")
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		if isKey(m) {
			keys = append(keys, m)
		}
	}
	return sortedKeys(keys), nil
}

// WrittenAt returns when key was last written
func (s *RedisStore) WrittenAt(ctx context.Context, key string) (time.Time, error) {
	if err := validateKey(key); err != nil {
		return time.Time{}, err
	}
	v, err := s.client.HGet(ctx, s.writtenKey(), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return time.Time{}, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "read write time %s", key)
	}
	return time.Parse(time.RFC3339, v)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.entryKey(key))
		pipe.SRem(ctx, s.indexKey(), key)
		pipe.HDel(ctx, s.writtenKey(), key)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "delete checkpoint %s", key)
	}
	s.logger.WithField("unit", key).Info("Checkpoint deleted")
	return nil
}
