package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game code index

// releaseCodeScript deletes a code key only while it still maps to the
// releasing game
var releaseCodeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClaimCode reserves a code with SETNX so two servers sharing a Redis never
// hand out the same code. Code keys never expire: a code lives exactly as
// long as its game.
func (s *Storage) ClaimCode(ctx context.Context, code model.GameCode, id model.GameID) error {
	ok, err := s.client.SetNX(ctx, codeKey(code), string(id), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrCodeTaken
	}
	return nil
}

func (s *Storage) ResolveCode(ctx context.Context, code model.GameCode) (model.GameID, error) {
	id, err := s.client.Get(ctx, codeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrCodeNotFound
		}
		return "", err
	}
	return model.GameID(id), nil
}

func (s *Storage) ReleaseCode(ctx context.Context, code model.GameCode, id model.GameID) error {
	return releaseCodeScript.Run(ctx, s.client, []string{codeKey(code)}, string(id)).Err()
}

// Summaries

func (s *Storage) SaveSummary(ctx context.Context, summary *model.GameSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, summaryKey(summary.ID), data, s.cfg.SummaryTTL)
	pipe.ZAdd(ctx, recentSummariesIndexKey(), redis.Z{
		Score:  float64(summary.CompletedAt.UnixMilli()),
		Member: summaryKey(summary.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSummary(ctx context.Context, id model.GameID) (*model.GameSummary, error) {
	data, err := s.client.Get(ctx, summaryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var summary model.GameSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Storage) ListRecentSummaries(ctx context.Context, limit int) ([]*model.GameSummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	keys, err := s.client.ZRevRange(ctx, recentSummariesIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.GameSummary{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.GameSummary, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Summary may have expired
		}
		var summary model.GameSummary
		if err := json.Unmarshal([]byte(val.(string)), &summary); err != nil {
			continue // Skip invalid data
		}
		summaries = append(summaries, &summary)
	}

	return summaries, nil
}
