// internal/catalog/redis.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding game id -> JSON-encoded game.
const DefaultRedisKey = "plaza:games"

// Redis stores the catalog in a single Redis hash.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps an existing client. An empty key selects DefaultRedisKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

var (
	_ Catalog    = (*Redis)(nil)
	_ BatchSaver = (*Redis)(nil)
)

func (r *Redis) Save(ctx context.Context, g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", g.ID, err)
	}
	if err := r.client.HSet(ctx, r.key, g.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to HSET game %s into '%s': %w", g.ID, r.key, err)
	}
	return nil
}

// SaveBatch writes all games with a single HSET.
func (r *Redis) SaveBatch(ctx context.Context, games []*models.Game) error {
	if len(games) == 0 {
		return nil
	}
	fields := make([]any, 0, 2*len(games))
	for _, g := range games {
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to marshal game %s: %w", g.ID, err)
		}
		fields = append(fields, g.ID, data)
	}
	if err := r.client.HSet(ctx, r.key, fields...).Err(); err != nil {
		return fmt.Errorf("failed to HSET %d games into '%s': %w", len(games), r.key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*models.Game, error) {
	data, err := r.client.HGet(ctx, r.key, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to HGET game %s: %w", id, err)
	}
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	return &g, nil
}

func (r *Redis) List(ctx context.Context) ([]*models.Game, error) {
	vals, err := r.client.HVals(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to HVALS '%s': %w", r.key, err)
	}
	games := make([]*models.Game, 0, len(vals))
	for _, v := range vals {
		var g models.Game
		if err := json.Unmarshal([]byte(v), &g); err != nil {
			return nil, fmt.Errorf("failed to decode game in '%s': %w", r.key, err)
		}
		games = append(games, &g)
	}
	sortGames(games)
	return games, nil
}

func (r *Redis) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to HLEN '%s': %w", r.key, err)
	}
	return int(n), nil
}
