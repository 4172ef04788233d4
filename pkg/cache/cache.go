package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/taskboard/pkg/async"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/rbac"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

const (
	// StaleChannel carries list invalidations between instances. The payload
	// is the publishing instance ID.
	StaleChannel = "taskboard:todos:stale"

	generationKey = "taskboard:todos:list:gen"
	listKeyPrefix = "taskboard:todos:list:"

	redisTimeout = 2 * time.Second
)

// Config sizes the list cache
type Config struct {
	Size int
	TTL  time.Duration
}

// DefaultConfig returns the cache defaults
func DefaultConfig() Config {
	return Config{Size: 1024, TTL: 30 * time.Second}
}

// ListCache wraps a todos.Store and caches Query results per list filter.
// Other store methods pass through. Entries live in a local LRU and, when a
// Redis client is set, in Redis under a shared generation number.
type ListCache struct {
	todos.Store

	l1         *lru.LRU[string, []todos.Todo]
	redis      *redis.Client
	ttl        time.Duration
	metrics    *observability.Metrics
	instanceID string

	mu         sync.Mutex
	generation uint64 // bumped on every local purge; guarded by mu
}

// New wraps store. client and metrics may be nil.
func New(store todos.Store, client *redis.Client, cfg Config, metrics *observability.Metrics) *ListCache {
	defaults := DefaultConfig()
	if cfg.Size <= 0 {
		cfg.Size = defaults.Size
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}

	return &ListCache{
		Store:      store,
		l1:         lru.NewLRU[string, []todos.Todo](cfg.Size, nil, cfg.TTL),
		redis:      client,
		ttl:        cfg.TTL,
		metrics:    metrics,
		instanceID: uuid.NewString(),
	}
}

// Query returns the cached rows for filter or loads them from the wrapped
// store. Deny-all filters go straight to the store.
func (c *ListCache) Query(ctx context.Context, filter rbac.ListFilter) ([]*todos.Todo, error) {
	filterKey := filter.Key()
	if filterKey == "" {
		return c.Store.Query(ctx, filter)
	}

	remoteGen, err := c.remoteGeneration(ctx)
	if err != nil {
		observability.FromContext(ctx).WithError(err).Warn("list cache bypassed")
		return c.Store.Query(ctx, filter)
	}
	key := listKeyPrefix + strconv.FormatInt(remoteGen, 10) + ":" + filterKey

	c.mu.Lock()
	localGen := c.generation
	c.mu.Unlock()

	if cached, ok := c.l1.Get(key); ok {
		c.metrics.RecordCacheHit("l1")
		return expand(cached), nil
	}

	if cached, ok := c.getRemote(ctx, key); ok {
		c.metrics.RecordCacheHit("l2")
		c.storeLocal(localGen, key, cached)
		return expand(cached), nil
	}

	c.metrics.RecordCacheMiss()
	result, err := c.Store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	snapshot := flatten(result)
	if c.storeLocal(localGen, key, snapshot) {
		c.setRemote(ctx, key, snapshot)
	}
	return result, nil
}

// NotifyListStale drops every cached list. The generation bump in Redis is
// synchronous so the caller's next read misses; the peer broadcast is not.
func (c *ListCache) NotifyListStale(ctx context.Context) {
	c.Purge()
	if c.redis == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	incrCtx, cancel := context.WithTimeout(detached, redisTimeout)
	defer cancel()
	if err := c.redis.Incr(incrCtx, generationKey).Err(); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("failed to bump list cache generation")
	}

	async.SafeGo(detached, redisTimeout, "publish list stale", func(ctx context.Context) error {
		return c.redis.Publish(ctx, StaleChannel, c.instanceID).Err()
	})
}

// Purge empties the local tier. Results loaded before the purge are not
// stored afterwards.
func (c *ListCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.l1.Purge()
}

// Len returns the number of local entries
func (c *ListCache) Len() int {
	return c.l1.Len()
}

// Run purges the local tier whenever another instance publishes on
// StaleChannel. It blocks until ctx is done.
func (c *ListCache) Run(ctx context.Context) error {
	if c.redis == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := c.redis.Subscribe(ctx, StaleChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", StaleChannel, err)
	}

	logger := observability.FromContext(ctx).WithField("channel", StaleChannel)
	logger.Info("list cache subscriber started")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg.Payload == c.instanceID {
				continue
			}
			c.Purge()
			logger.WithField("peer", msg.Payload).Debug("list cache purged by peer")
		}
	}
}

func (c *ListCache) remoteGeneration(ctx context.Context) (int64, error) {
	if c.redis == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read list cache generation: %w", err)
	}
	return gen, nil
}

func (c *ListCache) getRemote(ctx context.Context, key string) ([]todos.Todo, bool) {
	if c.redis == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var cached []todos.Todo
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}

func (c *ListCache) setRemote(ctx context.Context, key string, snapshot []todos.Todo) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("failed to store list in redis")
	}
}

// storeLocal adds snapshot unless a purge happened since gen was read
func (c *ListCache) storeLocal(gen uint64, key string, snapshot []todos.Todo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.l1.Add(key, snapshot)
	return true
}

func flatten(rows []*todos.Todo) []todos.Todo {
	out := make([]todos.Todo, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out
}

// expand copies cached rows so callers never share cache memory
func expand(rows []todos.Todo) []*todos.Todo {
	out := make([]*todos.Todo, len(rows))
	for i := range rows {
		row := rows[i]
		out[i] = &row
	}
	return out
}
