package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ProgressCache tracks which page every open session is on, for the live
// researcher view.
type ProgressCache interface {
	SetPage(ctx context.Context, sessionID string, page int) error
	Remove(ctx context.Context, sessionID string) error
	MarkCompleted(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context) (*Progress, error)
}

// Progress is the live distribution of open sessions over pages
type Progress struct {
	ActiveByPage map[int]int `json:"activeByPage"`
	Active       int         `json:"active"`
	Completed    int64       `json:"completed"`
}

type progressCache struct {
	client *redis.Client
}

// NewProgressCache creates a new progress cache
func NewProgressCache(client *redis.Client) ProgressCache {
	return &progressCache{
		client: client,
	}
}

const (
	progressKey  = "survey:progress"
	completedKey = "survey:completed"
)

func (c *progressCache) SetPage(ctx context.Context, sessionID string, page int) error {
	return c.client.ZAdd(ctx, progressKey, redis.Z{
		Score:  float64(page),
		Member: sessionID,
	}).Err()
}

func (c *progressCache) Remove(ctx context.Context, sessionID string) error {
	return c.client.ZRem(ctx, progressKey, sessionID).Err()
}

func (c *progressCache) MarkCompleted(ctx context.Context, sessionID string) error {
	pipe := c.client.TxPipeline()
	pipe.ZRem(ctx, progressKey, sessionID)
	pipe.Incr(ctx, completedKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *progressCache) Snapshot(ctx context.Context) (*Progress, error) {
	results, err := c.client.ZRangeWithScores(ctx, progressKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	p := &Progress{ActiveByPage: make(map[int]int)}
	for _, z := range results {
		p.ActiveByPage[int(z.Score)]++
	}
	p.Active = len(results)

	completed, err := c.client.Get(ctx, completedKey).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if completed != "" {
		p.Completed, _ = strconv.ParseInt(completed, 10, 64)
	}
	return p, nil
}
