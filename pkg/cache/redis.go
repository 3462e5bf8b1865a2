package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// Config holds the redis connection settings. Prefix namespaces every key so
// several deployments can share one instance.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// Client is a namespaced redis client. It backs the response cache and the
// distributed analysis locks, and exposes the raw connection for the job
// queue.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Dial connects and pings the redis instance.
func Dial(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "zpulse"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb, prefix: cfg.Prefix}, nil
}

// Raw returns the underlying redis connection.
func (c *Client) Raw() *redis.Client { return c.rdb }

// Close closes the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) key(k string) string { return c.prefix + ":" + k }

// Set stores value under key with a TTL. Strings and byte slices are stored
// as-is, anything else as JSON.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		data = b
	}
	return c.rdb.Set(ctx, c.key(key), data, ttl).Err()
}

// Get loads key into dest, which must be a *string, *[]byte, or a JSON
// destination. A missing key yields ErrMiss.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	switch d := dest.(type) {
	case *[]byte:
		*d = data
		return nil
	case *string:
		*d = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Delete removes keys. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = c.key(k)
	}
	return c.rdb.Unlink(ctx, namespaced...).Err()
}

// TryLock takes a best-effort distributed lock. It returns false without
// error when another holder owns the key.
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.key("lock:"+key), "1", ttl).Result()
}

// Unlock releases a lock taken with TryLock.
func (c *Client) Unlock(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key("lock:"+key)).Err()
}
