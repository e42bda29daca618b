// Package rediscache caches resolved source schemas in Redis. Entries hold
// the private export of the resolved root, keyed by a hash of the binding.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reoring/schemaforge"
)

const (
	DefaultPrefix = "schemaforge:source:"
	DefaultTTL    = 10 * time.Minute
)

// Options configures a Cache.
type Options struct {
	// Prefix is prepended to every key. Defaults to DefaultPrefix.
	Prefix string
	// TTL is the entry lifetime. Defaults to DefaultTTL.
	TTL time.Duration
	// Logger receives cache failures. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Cache is a schemaforge.Connector that serves ResolveSchema from Redis and
// delegates everything else to next. Redis failures never fail a call; the
// request goes to next instead.
type Cache struct {
	next schemaforge.Connector
	rdb  redis.UniversalClient
	opt  Options
}

var _ schemaforge.Connector = (*Cache)(nil)

// New wraps next with a cache stored in rdb.
func New(next schemaforge.Connector, rdb redis.UniversalClient, opt Options) *Cache {
	if opt.Prefix == "" {
		opt.Prefix = DefaultPrefix
	}
	if opt.TTL <= 0 {
		opt.TTL = DefaultTTL
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Cache{next: next, rdb: rdb, opt: opt}
}

// Dial connects to the Redis server at url ("redis://host:port/db") and
// checks the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Key returns the cache key for a binding.
func (c *Cache) Key(url, method string, fields map[string]any) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	d := xxhash.New()
	_, _ = d.WriteString(method)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(url)
	_, _ = d.WriteString("|")
	_, _ = d.Write(raw)
	return c.opt.Prefix + strconv.FormatUint(d.Sum64(), 16), nil
}

func (c *Cache) Validate(ctx context.Context, url, method string, fields map[string]any) (schemaforge.Issues, error) {
	return c.next.Validate(ctx, url, method, fields)
}

func (c *Cache) ResolveSchema(ctx context.Context, url, method string, fields map[string]any) (*schemaforge.Node, error) {
	log := c.opt.Logger.With(zap.String("url", url), zap.String("method", method))
	key, err := c.Key(url, method, fields)
	if err != nil {
		log.Warn("cache key failed", zap.Error(err))
		return c.next.ResolveSchema(ctx, url, method, fields)
	}
	log = log.With(zap.String("key", key))

	if n, ok := c.load(ctx, key, log); ok {
		return n, nil
	}

	n, err := c.next.ResolveSchema(ctx, url, method, fields)
	if err != nil || n == nil {
		return n, err
	}
	if n.Kind() != schemaforge.KindObject {
		log.Debug("schema not cached", zap.Stringer("kind", n.Kind()))
		return n, nil
	}
	c.store(ctx, key, n, log)
	return n, nil
}

func (c *Cache) load(ctx context.Context, key string, log *zap.Logger) (*schemaforge.Node, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	var decl map[string]any
	if err := json.Unmarshal(raw, &decl); err != nil {
		log.Warn("cache entry corrupt", zap.Error(err))
		return nil, false
	}
	n, err := schemaforge.Build(decl)
	if err != nil {
		log.Warn("cache entry does not build", zap.Error(err))
		return nil, false
	}
	log.Debug("cache hit")
	return n, true
}

func (c *Cache) store(ctx context.Context, key string, n *schemaforge.Node, log *zap.Logger) {
	raw, err := json.Marshal(n.Export(false))
	if err != nil {
		log.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.opt.TTL).Err(); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
}
