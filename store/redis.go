// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mattermost/mattermost-interactions/utils"
)

const DefaultRedisPrefix = "interactions:"

// maxUpdateRetries bounds optimistic-lock retries of Update.
const maxUpdateRetries = 5

type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and pings it.
func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, utils.NewInvalidError("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}
	return NewRedisStoreWithClient(client, prefix), nil
}

func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return decodeRecord(data)
}

func (s *RedisStore) Set(ctx context.Context, key string, r Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	data, err := encodeRecord(r)
	if err != nil {
		return false, err
	}
	if err = s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return false, errors.Wrap(err, "redis set")
	}
	return true, nil
}

// Update merges within a WATCH transaction, retrying if the key changes
// concurrently.
func (s *RedisStore) Update(ctx context.Context, key string, partial Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	k := s.prefix + key

	found := false
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		current, err := decodeRecord(data)
		if err != nil {
			return err
		}
		updated, err := encodeRecord(merge(current, partial))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "redis update")
		}
		return found, nil
	}
	return false, errors.Errorf("redis update: %q changed concurrently %d times", key, maxUpdateRetries)
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis del")
	}
	return n > 0, nil
}

func encodeRecord(r Record) ([]byte, error) {
	if r == nil {
		r = Record{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, utils.NewInvalidError(errors.Wrap(err, "failed to encode record"))
	}
	return data, nil
}

func decodeRecord(data []byte) (Record, error) {
	r := Record{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "failed to decode record")
	}
	return r, nil
}
