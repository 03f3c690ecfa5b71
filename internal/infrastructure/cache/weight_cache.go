// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumpiah/internal/core/id"
	"lumpiah/internal/domain/forecast"
	"lumpiah/pkg/logger"
)

// WeightCache wraps a forecast.ConfigRepository with an in-memory read cache.
// Entries are dropped when the configured NOTIFY channel carries their branch id,
// so every instance sees a saved configuration without TTL polling.
type WeightCache struct {
	repo    forecast.ConfigRepository
	pool    *pgxpool.Pool
	channel string

	mu      sync.RWMutex
	entries map[id.ID]*forecast.WeightConfig // nil value caches "no stored config"
	// generation advances on every invalidation; a load started under an
	// older generation is returned but not cached.
	generation uint64

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// InvalidationListener is called after a branch entry is invalidated.
// An empty payload means the whole cache was dropped.
type InvalidationListener func(channel string, payload string)

var _ forecast.ConfigRepository = (*WeightCache)(nil)

// NewWeightCache creates a cache over repo. pool may be nil, in which case
// only local writes invalidate entries.
func NewWeightCache(repo forecast.ConfigRepository, pool *pgxpool.Pool, channel string) *WeightCache {
	return &WeightCache{
		repo:    repo,
		pool:    pool,
		channel: channel,
		entries: make(map[id.ID]*forecast.WeightConfig),
		ctx:     context.Background(),
	}
}

// Get returns a cached configuration, loading it on a miss.
func (c *WeightCache) Get(ctx context.Context, branchID id.ID) (*forecast.WeightConfig, error) {
	c.mu.RLock()
	cfg, ok := c.entries[branchID]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return cloneConfig(cfg), nil
	}

	cfg, err := c.repo.Get(ctx, branchID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.entries[branchID] = cloneConfig(cfg)
	}
	c.mu.Unlock()
	return cfg, nil
}

// Save writes through and drops the local entry.
func (c *WeightCache) Save(ctx context.Context, cfg forecast.WeightConfig) error {
	if err := c.repo.Save(ctx, cfg); err != nil {
		return err
	}
	c.invalidate(cfg.BranchID.String())
	return nil
}

// Start begins listening for NOTIFY events.
func (c *WeightCache) Start(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "weight cache started", "channel", c.channel)
	return nil
}

// Stop gracefully stops the listener.
func (c *WeightCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "weight cache stopped")
}

func (c *WeightCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+c.channel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "channel", c.channel, "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Changes made while we were not listening are unknown.
		c.invalidate("")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *WeightCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				return
			}
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)
		c.handleNotification(notification.Channel, notification.Payload)
	}
}

func (c *WeightCache) handleNotification(channel, payload string) {
	if channel != c.channel {
		return
	}
	c.invalidate(payload)
}

// invalidate drops one branch entry, or everything when payload is not a branch id.
func (c *WeightCache) invalidate(payload string) {
	payload = strings.TrimSpace(payload)
	branchID, err := id.Parse(payload)

	c.mu.Lock()
	c.generation++
	if err != nil {
		c.entries = make(map[id.ID]*forecast.WeightConfig)
		payload = ""
	} else {
		delete(c.entries, branchID)
	}
	c.mu.Unlock()

	logCtx := c.logContext()
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(logCtx, "listener panic recovered", "channel", c.channel, "panic", r)
				}
			}()
			l(c.channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

func (c *WeightCache) logContext() context.Context {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.ctx
}

// OnInvalidation registers a callback for invalidation events.
func (c *WeightCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// CacheStats describes the cache contents.
type CacheStats struct {
	Branches int
	Started  bool
}

// GetStats returns current cache statistics.
func (c *WeightCache) GetStats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	c.lifecycleMu.Lock()
	started := c.started
	c.lifecycleMu.Unlock()

	return CacheStats{Branches: n, Started: started}
}

func cloneConfig(cfg *forecast.WeightConfig) *forecast.WeightConfig {
	if cfg == nil {
		return nil
	}
	out := *cfg
	out.Weights = append(cfg.Weights[:0:0], cfg.Weights...)
	if cfg.UpdatedAt != nil {
		t := *cfg.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}
