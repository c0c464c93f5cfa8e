package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const maxWatchRetries = 8

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// RedisStore keeps a namespace in two redis keys: a hash holding the values
// and a sorted set whose members are the keys, all scored 0 so that redis
// orders them lexicographically.
type RedisStore struct {
	client    *redis.Client
	ns        Namespace
	limits    Limits
	valuesKey string
	keysKey   string
}

func NewRedisStore(client *redis.Client, ns Namespace, limits Limits) *RedisStore {
	return &RedisStore{
		client:    client,
		ns:        ns,
		limits:    limits,
		valuesKey: fmt.Sprintf("kv:%d:values", ns),
		keysKey:   fmt.Sprintf("kv:%d:keys", ns),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.get(ctx, s.client, key)
}

func (s *RedisStore) get(ctx context.Context, c hashReader, key string) ([]byte, bool, error) {
	value, err := c.HGet(ctx, s.valuesKey, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s/%s: %w", s.ns, key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Insert(ctx context.Context, key string, value []byte) (previous []byte, existed bool, err error) {
	if err := s.limits.checkKey(key); err != nil {
		return nil, false, err
	}
	if err := s.limits.checkValue(value); err != nil {
		return nil, false, err
	}

	err = s.watch(ctx, func(tx *redis.Tx) error {
		previous, existed, err = s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.valuesKey, key, value)
			pipe.ZAdd(ctx, s.keysKey, &redis.Z{Score: 0, Member: key})
			return nil
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return previous, existed, nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) (previous []byte, existed bool, err error) {
	err = s.watch(ctx, func(tx *redis.Tx) error {
		previous, existed, err = s.get(ctx, tx, key)
		if err != nil || !existed {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, s.valuesKey, key)
			pipe.ZRem(ctx, s.keysKey, key)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return previous, existed, nil
}

// Values reads the key index and then the hash. The two reads are not one
// redis transaction; callers serialize writers with the operation lock.
func (s *RedisStore) Values(ctx context.Context) ([][]byte, error) {
	keys, err := s.client.ZRangeByLex(ctx, s.keysKey, &redis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return nil, fmt.Errorf("kv values %s: %w", s.ns, err)
	}
	values := make([][]byte, 0, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	raw, err := s.client.HMGet(ctx, s.valuesKey, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("kv values %s: %w", s.ns, err)
	}
	for _, v := range raw {
		if str, ok := v.(string); ok {
			values = append(values, []byte(str))
		}
	}
	return values, nil
}

func (s *RedisStore) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, fn, s.valuesKey, s.keysKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("kv %s: too much contention: %w", s.ns, redis.TxFailedErr)
}
