package feature

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/featureflag/pkg/logger"
)

const (
	DefaultMaximumSize       = 100
	DefaultRefreshAfterWrite = 60 * time.Second
	DefaultExpireAfterAccess = 600 * time.Second
)

// CacheConfig sizes the enablement cache. Zero values select the defaults.
type CacheConfig struct {
	MaximumSize       int           `env:"FEATURE_CACHE_MAX_SIZE" envDefault:"100"`            // MaximumSize bounds the number of cached features.
	RefreshAfterWrite time.Duration `env:"FEATURE_CACHE_REFRESH_AFTER_WRITE" envDefault:"60s"` // RefreshAfterWrite is the age after which an entry is reloaded in the background.
	ExpireAfterAccess time.Duration `env:"FEATURE_CACHE_EXPIRE_AFTER_ACCESS" envDefault:"600s"` // ExpireAfterAccess evicts entries that were not read for this long.
}

func (c CacheConfig) withDefaults() (CacheConfig, error) {
	if c.MaximumSize < 0 || c.RefreshAfterWrite < 0 || c.ExpireAfterAccess < 0 {
		return c, errors.Join(ErrInvalidArgument,
			fmt.Errorf("cache sizing must not be negative: %+v", c))
	}
	if c.MaximumSize == 0 {
		c.MaximumSize = DefaultMaximumSize
	}
	if c.RefreshAfterWrite == 0 {
		c.RefreshAfterWrite = DefaultRefreshAfterWrite
	}
	if c.ExpireAfterAccess == 0 {
		c.ExpireAfterAccess = DefaultExpireAfterAccess
	}
	return c, nil
}

type entry struct {
	key        string
	evaluator  Evaluator
	loadedAt   time.Time
	lastAccess time.Time
	// generation identifies this entry instance; a reload started for one
	// generation is never applied to another.
	generation uint64
	reloading  bool
}

// loadToken tracks one in-flight synchronous load so that an invalidation
// racing with it can veto storing the result.
type loadToken struct {
	invalidated bool
}

// enablementCache maps feature ids to evaluators. Reads of present entries
// never touch the backend: stale entries are served as is while one
// background reload per key runs on the executor.
type enablementCache struct {
	cfg           CacheConfig
	lookup        Lookup
	factory       EvaluatorFactory
	executor      Executor
	logger        *slog.Logger
	onReloadError func(featureID string, err error)
	now           func() time.Time

	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	loading    map[string][]*loadToken
	generation uint64

	group singleflight.Group

	stop     chan struct{}
	stopOnce sync.Once
	sweeper  sync.WaitGroup
}

func newEnablementCache(cfg CacheConfig, lookup Lookup, factory EvaluatorFactory, executor Executor, log *slog.Logger, onReloadError func(string, error), now func() time.Time) *enablementCache {
	return &enablementCache{
		cfg:           cfg,
		lookup:        lookup,
		factory:       factory,
		executor:      executor,
		logger:        log,
		onReloadError: onReloadError,
		now:           now,
		items:         make(map[string]*list.Element),
		order:         list.New(),
		loading:       make(map[string][]*loadToken),
		stop:          make(chan struct{}),
	}
}

// get returns the evaluator for featureID, loading it synchronously when the
// cache holds no entry for it.
func (c *enablementCache) get(ctx context.Context, featureID string) (Evaluator, error) {
	now := c.now()

	c.mu.Lock()
	if elem, ok := c.items[featureID]; ok {
		e := elem.Value.(*entry)
		if now.Sub(e.lastAccess) >= c.cfg.ExpireAfterAccess {
			c.removeElement(elem, "expired")
		} else {
			e.lastAccess = now
			c.order.MoveToFront(elem)
			ev := e.evaluator

			var reload bool
			if !e.reloading && now.Sub(e.loadedAt) >= c.cfg.RefreshAfterWrite {
				e.reloading = true
				reload = true
			}
			generation := e.generation
			c.mu.Unlock()

			if reload {
				c.scheduleReload(ctx, featureID, generation)
			}
			return ev, nil
		}
	}
	c.mu.Unlock()

	return c.loadSync(ctx, featureID)
}

// invalidate removes the entry. In-flight loads for the key keep running but
// their results are discarded.
func (c *enablementCache) invalidate(featureID string) {
	c.mu.Lock()
	if elem, ok := c.items[featureID]; ok {
		c.removeElement(elem, "invalidated")
	}
	for _, tok := range c.loading[featureID] {
		tok.invalidated = true
	}
	c.mu.Unlock()

	// Later callers must not join a load that started before the invalidation.
	c.group.Forget(featureID)
}

func (c *enablementCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// loadSync performs the blocking load for an absent key. Concurrent callers
// for the same key share one backend call. The backend call is detached from
// the first caller's cancellation because its result is shared.
func (c *enablementCache) loadSync(ctx context.Context, featureID string) (Evaluator, error) {
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(featureID, func() (any, error) {
		cached, tok := c.beginLoad(featureID)
		if cached != nil {
			return cached, nil
		}
		ev, err := c.loadRecovered(loadCtx, featureID)
		c.finishLoad(featureID, tok, ev, err)
		return ev, err
	})
	if err != nil {
		return nil, err
	}
	return v.(Evaluator), nil
}

func (c *enablementCache) load(ctx context.Context, featureID string) (Evaluator, error) {
	c.logger.DebugContext(ctx, "loading feature", logger.Component("feature_cache"), logger.Feature(featureID))

	percentage, found, err := c.lookup.LookupPercentage(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if !found {
		return c.factory.DisabledFeature(), nil
	}
	ev, err := c.factory.Generate(featureID, percentage)
	if err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return ev, nil
}

// loadRecovered is load with panics from the lookup or the factory turned
// into ErrLookupPanic, so load bookkeeping always completes.
func (c *enablementCache) loadRecovered(ctx context.Context, featureID string) (ev Evaluator, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev, err = nil, errors.Join(ErrLookupPanic, fmt.Errorf("%v", r))
		}
	}()
	return c.load(ctx, featureID)
}

// beginLoad registers a load token. A caller that missed the cache may reach
// the flight group right after another load stored the key; in that case the
// stored evaluator is returned and no token is registered.
func (c *enablementCache) beginLoad(featureID string) (Evaluator, *loadToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[featureID]; ok {
		return elem.Value.(*entry).evaluator, nil
	}
	tok := &loadToken{}
	c.loading[featureID] = append(c.loading[featureID], tok)
	return nil, tok
}

func (c *enablementCache) finishLoad(featureID string, tok *loadToken, ev Evaluator, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := c.loading[featureID]
	for i, t := range tokens {
		if t == tok {
			tokens = append(tokens[:i], tokens[i+1:]...)
			break
		}
	}
	if len(tokens) == 0 {
		delete(c.loading, featureID)
	} else {
		c.loading[featureID] = tokens
	}

	if err != nil || tok.invalidated {
		return
	}

	now := c.now()
	if elem, ok := c.items[featureID]; ok {
		e := elem.Value.(*entry)
		e.evaluator = ev
		e.loadedAt = now
		e.lastAccess = now
		c.order.MoveToFront(elem)
		return
	}

	c.generation++
	c.items[featureID] = c.order.PushFront(&entry{
		key:        featureID,
		evaluator:  ev,
		loadedAt:   now,
		lastAccess: now,
		generation: c.generation,
	})
	for c.order.Len() > c.cfg.MaximumSize {
		c.removeElement(c.order.Back(), "size")
	}
}

func (c *enablementCache) scheduleReload(ctx context.Context, featureID string, generation uint64) {
	reloadCtx := context.WithoutCancel(ctx)
	err := c.executor.Submit(func() { c.reload(reloadCtx, featureID, generation) })
	if err == nil {
		return
	}

	c.logger.WarnContext(ctx, "feature reload not scheduled, serving stale value",
		logger.Component("feature_cache"),
		logger.Feature(featureID),
		logger.Error(err),
	)
	c.mu.Lock()
	if e := c.entryFor(featureID, generation); e != nil {
		e.reloading = false
	}
	c.mu.Unlock()
}

// reload refreshes a stale entry. The result is dropped when the entry it was
// started for has been invalidated or evicted in the meantime. Failures,
// panics included, clear the reloading marker so a later read retries.
func (c *enablementCache) reload(ctx context.Context, featureID string, generation uint64) {
	ev, err := c.loadRecovered(ctx, featureID)

	c.mu.Lock()
	e := c.entryFor(featureID, generation)
	if e == nil {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding reload of removed feature",
			logger.Component("feature_cache"), logger.Feature(featureID))
		return
	}
	e.reloading = false
	if err == nil {
		e.evaluator = ev
		e.loadedAt = c.now()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.WarnContext(ctx, "feature reload failed, keeping previous value",
			logger.Component("feature_cache"),
			logger.Feature(featureID),
			logger.Error(err),
		)
		if c.onReloadError != nil {
			c.onReloadError(featureID, err)
		}
	}
}

// entryFor must be called with c.mu held.
func (c *enablementCache) entryFor(featureID string, generation uint64) *entry {
	elem, ok := c.items[featureID]
	if !ok {
		return nil
	}
	e := elem.Value.(*entry)
	if e.generation != generation {
		return nil
	}
	return e
}

// removeElement must be called with c.mu held.
func (c *enablementCache) removeElement(elem *list.Element, cause string) {
	c.order.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.logger.Debug("feature removed from cache",
		logger.Component("feature_cache"),
		logger.Feature(e.key),
		slog.String("cause", cause),
	)
}

// evictExpired drops every entry not accessed within ExpireAfterAccess.
func (c *enablementCache) evictExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.Sub(elem.Value.(*entry).lastAccess) >= c.cfg.ExpireAfterAccess {
			c.removeElement(elem, "expired")
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *enablementCache) startSweeper(interval time.Duration) {
	c.sweeper.Add(1)
	go func() {
		defer c.sweeper.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.evictExpired()
			}
		}
	}()
}

func (c *enablementCache) close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.sweeper.Wait()
}
