package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when no cached session exists for a site.
var ErrNoSession = errors.New("no session cached")

// Session is a site login session shared between worker processes.
type Session struct {
	Cookie    string    `json:"cookie"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCache stores site login sessions so workers don't re-login per job.
type SessionCache interface {
	Get(ctx context.Context, site string) (Session, error)
	Set(ctx context.Context, site string, sess Session) error
	Delete(ctx context.Context, site string) error
}

// RedisSessionCache is the production SessionCache. TTL follows the session's
// ExpiresAt.
type RedisSessionCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSessionCache creates a session cache with the default key prefix.
func NewRedisSessionCache(client redis.UniversalClient) *RedisSessionCache {
	return &RedisSessionCache{client: client, prefix: "profilewatch:sessions:"}
}

// Get returns the cached session for a site, or ErrNoSession.
func (c *RedisSessionCache) Get(ctx context.Context, site string) (Session, error) {
	if site == "" {
		return Session{}, ErrNoSession
	}

	data, err := c.client.Get(ctx, c.prefix+site).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// Redis TTL should have expired it already, but the clocks can disagree.
	if time.Now().After(sess.ExpiresAt) {
		if err := c.Delete(ctx, site); err != nil {
			return Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return Session{}, ErrNoSession
	}

	return sess, nil
}

// Set stores a session under the site's key with a TTL matching ExpiresAt.
func (c *RedisSessionCache) Set(ctx context.Context, site string, sess Session) error {
	if site == "" {
		return errors.New("site cannot be empty")
	}
	if sess.Cookie == "" {
		return errors.New("session cookie cannot be empty")
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.client.Set(ctx, c.prefix+site, data, ttl).Err()
}

// Delete removes a site's cached session.
func (c *RedisSessionCache) Delete(ctx context.Context, site string) error {
	if site == "" {
		return nil
	}
	return c.client.Del(ctx, c.prefix+site).Err()
}
