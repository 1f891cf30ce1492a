package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/readcache"
	"revengepos/pkg/logger"
)

// InvalidationChannel is the pub/sub channel peers listen on.
// Payloads look like "product:<id>" or "user:<id>".
const InvalidationChannel = "revengepos:cache:invalidate"

const (
	productKeyPrefix = "product:"
	codeKeyPrefix    = "product:code:"
	userKeyPrefix    = "user:"

	// Generation counters, bumped by every invalidation in any process.
	productGenKey = "revengepos:cache:gen:product"
	userGenKey    = "revengepos:cache:gen:user"
)

// errStaleFill aborts an L2 put whose generation is outdated.
var errStaleFill = errors.New("cache fill is stale")

var _ readcache.Cache = (*Layered)(nil)

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Layered puts a redis L2 behind the in-process L1. Redis failures are
// logged and treated as misses; the database stays the source of truth.
type Layered struct {
	l1  *Memory
	rdb *redis.Client
	ttl time.Duration

	remoteHits          atomic.Int64
	remoteErrors        atomic.Int64
	remoteInvalidations atomic.Int64

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewLayered creates a two-level cache. ttl bounds how long L2 keeps a
// snapshot nobody invalidated; zero means 10 minutes.
func NewLayered(l1 *Memory, rdb *redis.Client, ttl time.Duration) *Layered {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Layered{l1: l1, rdb: rdb, ttl: ttl}
}

// Start subscribes to invalidations published by peers.
func (c *Layered) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return nil
	}

	sub := c.rdb.Subscribe(ctx, InvalidationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.started = true

	c.wg.Add(1)
	go c.listen(listenCtx, sub)
	logger.Info(ctx, "cache invalidation listener started", "channel", InvalidationChannel)
	return nil
}

// Stop ends the listener and waits for it.
func (c *Layered) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	cancel()
	c.wg.Wait()
}

func (c *Layered) listen(ctx context.Context, sub *redis.PubSub) {
	defer c.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.handleInvalidation(ctx, msg.Payload)
		}
	}
}

func (c *Layered) handleInvalidation(ctx context.Context, payload string) {
	kind, raw, ok := strings.Cut(payload, ":")
	if !ok {
		logger.Warn(ctx, "malformed cache invalidation", "payload", payload)
		return
	}
	entityID, err := id.Parse(raw)
	if err != nil {
		logger.Warn(ctx, "malformed cache invalidation", "payload", payload)
		return
	}

	switch kind {
	case "product":
		c.l1.InvalidateProduct(ctx, entityID)
	case "user":
		c.l1.InvalidateUser(ctx, entityID)
	default:
		return
	}
	c.remoteInvalidations.Add(1)
	logger.Debug(ctx, "cache entry invalidated by peer", "kind", kind, "id", entityID)
}

// GetProduct implements product.Cache.
func (c *Layered) GetProduct(ctx context.Context, productID id.ID) (*product.Product, bool) {
	if p, ok := c.l1.GetProduct(ctx, productID); ok {
		return p, true
	}
	gen := c.l1.ProductGeneration(ctx)
	var p product.Product
	if !c.getJSON(ctx, productKeyPrefix+productID.String(), &p) {
		return nil, false
	}
	c.l1.PutProduct(ctx, &p, gen)
	return &p, true
}

// GetProductByCode implements product.Cache.
func (c *Layered) GetProductByCode(ctx context.Context, code string) (*product.Product, bool) {
	if p, ok := c.l1.GetProductByCode(ctx, code); ok {
		return p, true
	}
	raw, err := c.rdb.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		c.noteError(ctx, "get", codeKeyPrefix+code, err)
		return nil, false
	}
	productID, err := id.Parse(raw)
	if err != nil {
		return nil, false
	}
	p, ok := c.GetProduct(ctx, productID)
	if !ok || p.Code != code {
		return nil, false
	}
	return p, true
}

// ProductGeneration implements product.Cache.
func (c *Layered) ProductGeneration(ctx context.Context) types.Generation {
	gen := c.l1.ProductGeneration(ctx)
	gen.Shared = c.sharedGeneration(ctx, productGenKey)
	return gen
}

// PutProduct implements product.Cache. The snapshot goes to L2 only while
// no process has invalidated a product since gen was read; when redis
// cannot tell, only L1 is filled.
func (c *Layered) PutProduct(ctx context.Context, p *product.Product, gen types.Generation) {
	if p == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		logger.Warn(ctx, "encode product snapshot", "id", p.ID, "error", err)
		return
	}
	key := productKeyPrefix + p.ID.String()
	stale := c.putShared(ctx, productGenKey, gen, key, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, data, c.ttl)
		pipe.Set(ctx, codeKeyPrefix+p.Code, p.ID.String(), c.ttl)
	})
	if stale {
		return
	}
	c.l1.PutProduct(ctx, p, gen)
}

// InvalidateProduct implements product.Cache. The code key is left to
// expire; GetProductByCode re-checks the code of the snapshot it resolves.
func (c *Layered) InvalidateProduct(ctx context.Context, productID id.ID) {
	key := productKeyPrefix + productID.String()
	c.invalidateShared(ctx, productGenKey, key)
	c.l1.InvalidateProduct(ctx, productID)
	c.publish(ctx, key)
}

// CachedStock implements ledger.StockCache. Only L1 is consulted.
func (c *Layered) CachedStock(ctx context.Context, productID id.ID) (int64, bool) {
	return c.l1.CachedStock(ctx, productID)
}

// GetUser implements auth.UserCache.
func (c *Layered) GetUser(ctx context.Context, userID id.ID) (*auth.User, bool) {
	if u, ok := c.l1.GetUser(ctx, userID); ok {
		return u, true
	}
	gen := c.l1.UserGeneration(ctx)
	var u auth.User
	if !c.getJSON(ctx, userKeyPrefix+userID.String(), &u) {
		return nil, false
	}
	c.l1.PutUser(ctx, &u, gen)
	return &u, true
}

// UserGeneration implements auth.UserCache.
func (c *Layered) UserGeneration(ctx context.Context) types.Generation {
	gen := c.l1.UserGeneration(ctx)
	gen.Shared = c.sharedGeneration(ctx, userGenKey)
	return gen
}

// PutUser implements auth.UserCache.
func (c *Layered) PutUser(ctx context.Context, u *auth.User, gen types.Generation) {
	if u == nil {
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		logger.Warn(ctx, "encode user snapshot", "id", u.ID, "error", err)
		return
	}
	key := userKeyPrefix + u.ID.String()
	stale := c.putShared(ctx, userGenKey, gen, key, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, data, c.ttl)
	})
	if stale {
		return
	}
	c.l1.PutUser(ctx, u, gen)
}

// InvalidateUser implements auth.UserCache.
func (c *Layered) InvalidateUser(ctx context.Context, userID id.ID) {
	key := userKeyPrefix + userID.String()
	c.invalidateShared(ctx, userGenKey, key)
	c.l1.InvalidateUser(ctx, userID)
	c.publish(ctx, key)
}

// Stats implements readcache.Cache.
func (c *Layered) Stats() readcache.Stats {
	s := c.l1.Stats()
	s.RemoteHits = c.remoteHits.Load()
	s.RemoteErrors = c.remoteErrors.Load()
	s.RemoteInvalidations = c.remoteInvalidations.Load()
	return s
}

// sharedGeneration reads a redis generation counter; a missing key is 0
// and a failed read is -1.
func (c *Layered) sharedGeneration(ctx context.Context, genKey string) int64 {
	v, err := c.rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		c.noteError(ctx, "get", genKey, err)
		return -1
	}
	return v
}

// putShared writes an L2 snapshot under WATCH on genKey and reports whether
// the fill turned out stale. Redis failures are not stale: L1 may still be
// filled under its own generation.
func (c *Layered) putShared(ctx context.Context, genKey string, gen types.Generation, key string, write func(redis.Pipeliner)) bool {
	if gen.Shared < 0 {
		return false
	}
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen.Shared {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		logger.Debug(ctx, "dropped stale cache fill", "key", key)
		return true
	}
	c.noteError(ctx, "set", key, err)
	return false
}

// invalidateShared bumps the generation and deletes the snapshot atomically.
func (c *Layered) invalidateShared(ctx context.Context, genKey, key string) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, key)
		return nil
	})
	c.noteError(ctx, "del", key, err)
}

func (c *Layered) publish(ctx context.Context, key string) {
	err := c.rdb.Publish(ctx, InvalidationChannel, key).Err()
	c.noteError(ctx, "publish", key, err)
}

func (c *Layered) getJSON(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		c.noteError(ctx, "get", key, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn(ctx, "decode cached snapshot", "key", key, "error", err)
		return false
	}
	c.remoteHits.Add(1)
	return true
}

func (c *Layered) noteError(ctx context.Context, op, key string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	c.remoteErrors.Add(1)
	logger.Warn(ctx, "redis cache operation failed", "op", op, "key", key, "error", err)
}
