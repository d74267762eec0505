// Package query is a keyed async cache shared by many consumers.
//
// Entries are addressed by a hash of their key. Entries with at least one
// listener are active and never evicted; inactive entries live in a bounded
// LRU and are dropped once their cache time elapses. Writes always target the
// hash the caller passes, so concurrent writers for different keys never
// touch each other's entries.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fxnlabs/contract-reads/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSize         = 1024
	DefaultCacheTime    = 5 * time.Minute
	DefaultFetchTimeout = 30 * time.Second
)

// Key is the logical identity of a query.
type Key any

// QueryFunc resolves the value for key on a cache miss.
type QueryFunc func(ctx context.Context, key Key) (any, error)

// KeyHashFunc maps a key to the hash its entry is stored under.
type KeyHashFunc func(key Key) (string, error)

// HashKey is the default KeyHashFunc: the JSON encoding of key.
func HashKey(key Key) (string, error) {
	b, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to hash query key: %w", err)
	}
	return string(b), nil
}

// State is a snapshot of one cache entry.
type State struct {
	Data           any
	Err            error
	UpdatedAt      time.Time
	ErrorUpdatedAt time.Time
	Fetching       bool
	// Manual is set when the last data write came from SetQueryData.
	Manual bool
}

// HasData reports whether data was ever written.
func (s State) HasData() bool {
	return !s.UpdatedAt.IsZero()
}

// Listener receives entry snapshots after every change.
type Listener func(State)

type ClientOptions struct {
	// Size bounds the number of inactive entries.
	Size int
	// CacheTime is how long an inactive entry is kept.
	CacheTime time.Duration
	// FetchTimeout bounds a single query function call.
	FetchTimeout time.Duration
}

type entry struct {
	hash      string
	key       Key
	state     State
	listeners map[int]Listener
	cacheTime time.Duration
	gc        *time.Timer
}

type Client struct {
	mu           sync.Mutex
	active       map[string]*entry
	inactive     *lru.Cache[string, *entry]
	flights      singleflight.Group
	cacheTime    time.Duration
	fetchTimeout time.Duration
	nextID       int
	now          func() time.Time
	logger       *zap.Logger
}

func NewClient(opts ClientOptions, logger *zap.Logger) (*Client, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.CacheTime <= 0 {
		opts.CacheTime = DefaultCacheTime
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	inactive, err := lru.NewWithEvict[string, *entry](opts.Size, func(_ string, e *entry) {
		if e.gc != nil {
			e.gc.Stop()
			e.gc = nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &Client{
		active:       make(map[string]*entry),
		inactive:     inactive,
		cacheTime:    opts.CacheTime,
		fetchTimeout: opts.FetchTimeout,
		now:          time.Now,
		logger:       logger.Named("query"),
	}, nil
}

// lookup must be called with c.mu held.
func (c *Client) lookup(hash string) *entry {
	if e, ok := c.active[hash]; ok {
		return e
	}
	if e, ok := c.inactive.Get(hash); ok {
		return e
	}
	return nil
}

// lookupOrCreate must be called with c.mu held. New entries start inactive.
func (c *Client) lookupOrCreate(hash string, key Key) *entry {
	e := c.lookup(hash)
	if e == nil {
		e = &entry{
			hash:      hash,
			listeners: make(map[int]Listener),
			cacheTime: c.cacheTime,
		}
		c.inactive.Add(hash, e)
		c.scheduleGC(e)
	}
	if key != nil {
		e.key = key
	}
	return e
}

// scheduleGC must be called with c.mu held on an inactive entry.
func (c *Client) scheduleGC(e *entry) {
	if e.gc != nil {
		e.gc.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(e.cacheTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.inactive.Peek(e.hash); ok && cur == e && e.gc == timer {
			c.inactive.Remove(e.hash)
			c.logger.Debug("Evicted inactive query", zap.String("hash", e.hash))
			metrics.QueryCacheEntries.Set(float64(c.lenLocked()))
		}
	})
	e.gc = timer
}

// update applies fn to the entry for hash and notifies its listeners
// after releasing the lock.
func (c *Client) update(hash string, key Key, fn func(*State)) State {
	c.mu.Lock()
	e := c.lookupOrCreate(hash, key)
	fn(&e.state)
	st := e.state
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	metrics.QueryCacheEntries.Set(float64(c.lenLocked()))
	c.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return st
}

// Fetch returns fresh data for hash, calling fn when the entry is missing
// or older than staleTime. A negative staleTime never goes stale.
// Concurrent fetches of one hash share a single fn call. The call runs
// detached from ctx and always settles the entry; a caller whose ctx ends
// stops waiting and gets ctx's error.
func (c *Client) Fetch(ctx context.Context, hash string, key Key, fn QueryFunc, staleTime time.Duration) (any, error) {
	if st, ok := c.State(hash); ok && c.isFresh(st, staleTime) {
		metrics.QueryCacheHits.Inc()
		return st.Data, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.QueryCacheMisses.Inc()

	flight := c.flights.DoChan(hash, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		c.update(hash, key, func(s *State) { s.Fetching = true })
		data, err := fn(fctx, key)
		if err != nil {
			c.update(hash, key, func(s *State) {
				s.Fetching = false
				s.Err = err
				s.ErrorUpdatedAt = c.now()
			})
			c.logger.Debug("Query failed", zap.String("hash", hash), zap.Error(err))
			return nil, err
		}
		c.update(hash, key, func(s *State) {
			s.Fetching = false
			s.Data = data
			s.Err = nil
			s.UpdatedAt = c.now()
			s.Manual = false
		})
		metrics.QueryCacheWrites.WithLabelValues(metrics.SourceFetch).Inc()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Shared {
			c.logger.Debug("Joined in-flight query", zap.String("hash", hash))
		}
		return res.Val, res.Err
	}
}

func (c *Client) isFresh(st State, staleTime time.Duration) bool {
	if !st.HasData() || st.Fetching {
		return false
	}
	if st.Err != nil && st.ErrorUpdatedAt.After(st.UpdatedAt) {
		return false
	}
	if staleTime < 0 {
		return true
	}
	return c.now().Sub(st.UpdatedAt) < staleTime
}

// SetQueryData writes value under hash without going through a fetch.
func (c *Client) SetQueryData(hash string, key Key, value any) {
	c.update(hash, key, func(s *State) {
		s.Data = value
		s.Err = nil
		s.UpdatedAt = c.now()
		s.Manual = true
	})
	metrics.QueryCacheWrites.WithLabelValues(metrics.SourceSubscription).Inc()
}

// GetQueryData returns the data stored under hash.
func (c *Client) GetQueryData(hash string) (any, bool) {
	st, ok := c.State(hash)
	if !ok || !st.HasData() {
		return nil, false
	}
	return st.Data, true
}

// State returns the snapshot of the entry for hash.
func (c *Client) State(hash string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.lookup(hash)
	if e == nil {
		return State{}, false
	}
	return e.state, true
}

// Subscribe registers fn for changes of the entry under hash, creating the
// entry if needed. While subscribed the entry is never evicted. cacheTime
// extends how long the entry is kept once the last listener leaves.
func (c *Client) Subscribe(hash string, cacheTime time.Duration, fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	e := c.lookup(hash)
	if e == nil {
		e = &entry{
			hash:      hash,
			listeners: make(map[int]Listener),
			cacheTime: c.cacheTime,
		}
	}
	if _, ok := c.active[hash]; !ok {
		c.inactive.Remove(hash)
		if e.gc != nil {
			e.gc.Stop()
			e.gc = nil
		}
		c.active[hash] = e
	}
	if cacheTime > e.cacheTime {
		e.cacheTime = cacheTime
	}
	id := c.nextID
	c.nextID++
	e.listeners[id] = fn
	metrics.QueryCacheEntries.Set(float64(c.lenLocked()))
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(e.listeners, id)
			if len(e.listeners) > 0 || c.active[hash] != e {
				return
			}
			delete(c.active, hash)
			c.inactive.Add(hash, e)
			c.scheduleGC(e)
		})
	}
}

// Remove drops the entry under hash. An active entry is reset instead and
// its listeners are told it no longer holds data.
func (c *Client) Remove(hash string) {
	c.mu.Lock()
	e, ok := c.active[hash]
	if !ok {
		c.inactive.Remove(hash)
		metrics.QueryCacheEntries.Set(float64(c.lenLocked()))
		c.mu.Unlock()
		return
	}
	key := e.key
	c.mu.Unlock()
	c.update(hash, key, func(s *State) { *s = State{} })
}

// Len returns the number of entries held.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

func (c *Client) lenLocked() int {
	return len(c.active) + c.inactive.Len()
}
