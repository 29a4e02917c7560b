package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/target/async-export/internal/core"
)

// DefaultDictionaryHashKey is the Redis hash holding dictionary translations.
const DefaultDictionaryHashKey = "dictItemCache"

// DictionaryRepo resolves "<code>_<value>" keys against a Redis hash. Each field value is a JSON object
// mapping locale marks to display text, e.g. {"en":"Male","default":"男"}.
type DictionaryRepo struct {
	client  redis.UniversalClient
	hashKey string
	logger  *slog.Logger
}

var _ core.DictionaryRepository = (*DictionaryRepo)(nil)

// DictionaryRepoOptions configures NewDictionaryRepo.
type DictionaryRepoOptions struct {
	Client  redis.UniversalClient
	HashKey string
	Logger  *slog.Logger
}

// NewDictionaryRepo creates a DictionaryRepo. An empty HashKey uses DefaultDictionaryHashKey.
func NewDictionaryRepo(opts DictionaryRepoOptions) *DictionaryRepo {
	key := strings.TrimSpace(opts.HashKey)
	if key == "" {
		key = DefaultDictionaryHashKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DictionaryRepo{
		client:  opts.Client,
		hashKey: key,
		logger:  logger.With("component", "dictionary_repo"),
	}
}

// Lookup returns the raw translation entry stored under key.
func (r *DictionaryRepo) Lookup(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrDictionaryKeyEmpty
	}
	val, err := r.client.HGet(ctx, r.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores a translation entry.
func (r *DictionaryRepo) Set(ctx context.Context, key, entry string) error {
	if key == "" {
		return ErrDictionaryKeyEmpty
	}
	if err := r.client.HSet(ctx, r.hashKey, key, entry).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "dictionary entry stored", "key", key)
	return nil
}
