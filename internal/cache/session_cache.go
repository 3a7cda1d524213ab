package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"aisurvey/internal/survey"
)

var ErrLocked = errors.New("session is busy")

// SessionCache keeps in-flight survey sessions in Redis
type SessionCache interface {
	Set(ctx context.Context, session *survey.Session) error
	Get(ctx context.Context, id string) (*survey.Session, error)
	Delete(ctx context.Context, id string) error
	// Lock takes the per-session action lock. It returns ErrLocked while
	// another action holds it.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

type sessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client, ttl, lockTTL time.Duration) SessionCache {
	return &sessionCache{
		client:  client,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("survey:session:%s", id)
}

func (c *sessionCache) lockKey(id string) string {
	return fmt.Sprintf("survey:session:%s:lock", id)
}

func (c *sessionCache) Set(ctx context.Context, session *survey.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*survey.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session survey.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id), c.lockKey(id)).Err()
}

// unlockScript deletes the lock only while it still carries the holder's
// token, so an expired holder cannot release a lock taken after it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *sessionCache) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.lockKey(id), token, c.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		unlockScript.Run(context.Background(), c.client, []string{c.lockKey(id)}, token)
	}, nil
}
