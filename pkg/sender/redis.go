package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces blacklist keys inside a shared Redis instance.
const keyPrefix = "fraudshield:blacklist:"

// suffixKeyDigits is the secondary index width. Numbers longer than this
// get a second key on their last 10 digits so national-format queries
// still hit international-format records.
const suffixKeyDigits = 10

// RedisStore is a Redis-backed blacklist for deployments where multiple
// engine instances share one reported-numbers dataset.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection. Callers
// that want graceful degradation should fall back to a MemoryStore on
// error rather than failing startup.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Seed writes the given records, indexed by canonical number and by the
// last-10-digit suffix. Existing keys are overwritten.
func (s *RedisStore) Seed(ctx context.Context, entries []Entry) error {
	pipe := s.rdb.Pipeline()
	for _, e := range entries {
		canonical := Canonicalize(e.Number)
		if canonical == "" {
			continue
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal blacklist entry %s: %w", e.Number, err)
		}
		pipe.Set(ctx, keyPrefix+canonical, payload, 0)
		if len(canonical) > suffixKeyDigits {
			pipe.Set(ctx, keyPrefix+canonical[len(canonical)-suffixKeyDigits:], payload, 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed blacklist: %w", err)
	}
	return nil
}

// Lookup fetches records for the canonical identifier, trying the exact
// key first and then the last-10-digit suffix key.
func (s *RedisStore) Lookup(ctx context.Context, canonical string) ([]Entry, error) {
	if canonical == "" {
		return nil, nil
	}
	keys := []string{keyPrefix + canonical}
	if len(canonical) > suffixKeyDigits {
		keys = append(keys, keyPrefix+canonical[len(canonical)-suffixKeyDigits:])
	}
	for _, key := range keys {
		raw, err := s.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("blacklist get %s: %w", key, err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("blacklist entry %s corrupt: %w", key, err)
		}
		return []Entry{entry}, nil
	}
	return nil, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
