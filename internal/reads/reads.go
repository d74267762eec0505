// Package reads batches contract reads through the shared query cache.
//
// A Handle is the long-lived counterpart of a single read configuration.
// It derives the cache key, decides whether reading is enabled, fetches on
// demand, keeps an optional live subscription writing into the same entry,
// and decodes cached results for the caller.
package reads

import (
	"context"
	"sync"
	"time"

	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
	"go.uber.org/zap"
)

const latestBlockTimeout = 10 * time.Second

// BlockSource reports the chain head.
type BlockSource interface {
	Latest(ctx context.Context) (uint64, error)
	BlockNumber() (uint64, bool)
	SubscribeBlockNumber(fn func(uint64)) (unsubscribe func())
}

// ChainIDSource reports the id of the connected chain. Zero means unknown.
type ChainIDSource interface {
	ChainID() int64
}

// Config describes one batch read. Nil AllowFailure and Enabled default
// to true.
type Config struct {
	Contracts    []contracts.ContractCall
	AllowFailure *bool
	Overrides    *contracts.CallOverrides
	// CacheOnBlock pins the cache entry to the current block number.
	CacheOnBlock bool
	// Watch keeps the entry updated on every new block.
	Watch   bool
	Enabled *bool

	StaleTime        time.Duration
	CacheTime        time.Duration
	KeepPreviousData bool
	Suspense         bool
	Retry            int
	RetryDelay       time.Duration

	// Select runs on the decoded results; its return value becomes Data.
	Select    func([]contracts.Result) any
	OnSuccess func(data any)
	OnError   func(err error)
	OnSettled func(data any, err error)
}

func (c Config) allowFailure() bool {
	return c.AllowFailure == nil || *c.AllowFailure
}

func (c Config) enabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c Config) request() contracts.ReadContractsConfig {
	return contracts.ReadContractsConfig{
		AllowFailure: c.allowFailure(),
		Contracts:    c.Contracts,
		Overrides:    c.Overrides,
	}
}

// Reader creates handles sharing one query cache.
type Reader struct {
	client  *query.Client
	watcher ContractWatcher
	blocks  BlockSource
	chainID ChainIDSource
	fetch   query.QueryFunc
	logger  *zap.Logger
}

// NewReader wires the cache to its contract backends. blocks and chainID
// may be nil; per-block caching then never becomes enabled.
func NewReader(client *query.Client, reader ContractReader, watcher ContractWatcher, blocks BlockSource, chainID ChainIDSource, logger *zap.Logger) *Reader {
	return &Reader{
		client:  client,
		watcher: watcher,
		blocks:  blocks,
		chainID: chainID,
		fetch:   queryFn(reader),
		logger:  logger.Named("reads"),
	}
}

type blockMode int

const (
	blocksOff blockMode = iota
	blocksLatest
	blocksWatch
)

func modeFor(cfg Config) blockMode {
	switch {
	case cfg.Watch:
		return blocksWatch
	case cfg.CacheOnBlock:
		return blocksLatest
	default:
		return blocksOff
	}
}

// Handle follows one read configuration over time.
type Handle struct {
	reader   *Reader
	observer *query.Observer
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	cfg         Config
	closed      bool
	blockNumber *uint64
	mode        blockMode
	// blockGen invalidates block callbacks from a previous mode
	blockGen   int
	blockUnsub func()
	// blockSet is closed and replaced whenever the block number changes
	blockSet chan struct{}
	sub      *subscription
}

// Use starts following cfg. The handle lives until Close or until ctx ends.
func (r *Reader) Use(ctx context.Context, cfg Config) (*Handle, error) {
	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		reader:   r,
		observer: query.NewObserver(r.client, r.logger),
		logger:   r.logger,
		ctx:      hctx,
		cancel:   cancel,
		cfg:      cfg,
		blockSet: make(chan struct{}),
	}

	h.mu.Lock()
	err := h.evaluateLocked()
	h.mu.Unlock()
	if err != nil {
		h.Close()
		return nil, err
	}

	go func() {
		<-hctx.Done()
		h.Close()
	}()
	return h, nil
}

// Update replaces the configuration and re-evaluates the key, the gate and
// the subscription.
func (h *Handle) Update(cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.cfg = cfg
	return h.evaluateLocked()
}

// evaluateLocked must be called with h.mu held.
func (h *Handle) evaluateLocked() error {
	cfg := h.cfg
	h.trackBlocksLocked(modeFor(cfg))

	var kc KeyContext
	if h.reader.chainID != nil {
		if id := h.reader.chainID.ChainID(); id != 0 {
			kc.ChainID = &id
		}
	}
	if cfg.CacheOnBlock && h.blockNumber != nil {
		n := *h.blockNumber
		kc.BlockNumber = &n
	}

	key := NewQueryKey(cfg.request(), kc)
	hash, err := QueryKeyHash(key)
	if err != nil {
		return err
	}
	enabled := IsEnabled(cfg.enabled(), cfg.Contracts, cfg.CacheOnBlock, h.blockNumber)

	err = h.observer.SetOptions(key, h.reader.fetch, query.Options{
		Enabled:          enabled,
		StaleTime:        cfg.StaleTime,
		CacheTime:        cfg.CacheTime,
		KeepPreviousData: cfg.KeepPreviousData,
		KeyHashFn:        QueryKeyHash,
		Select:           selectFn(cfg.Contracts, cfg.Select),
		Suspense:         cfg.Suspense,
		Retry:            cfg.Retry,
		RetryDelay:       cfg.RetryDelay,
		OnSuccess:        cfg.OnSuccess,
		OnError:          cfg.OnError,
		OnSettled:        cfg.OnSettled,
	})
	if err != nil {
		return err
	}

	h.syncSubscriptionLocked(subscriptionDeps{
		hash:         hash,
		enabled:      enabled,
		watch:        cfg.Watch,
		cacheOnBlock: cfg.CacheOnBlock,
	}, key)
	return nil
}

func (h *Handle) syncSubscriptionLocked(deps subscriptionDeps, key []QueryKey) {
	if h.sub != nil && h.sub.deps != deps {
		h.sub.close()
		h.sub = nil
	}
	// a subscription that does not listen to blocks would never push
	if deps.enabled && listenToBlock(deps.watch, deps.cacheOnBlock) && h.sub == nil {
		h.sub = openSubscription(h.reader.client, h.reader.watcher, deps, key, h.logger)
		h.logger.Debug("Opened contract read subscription", zap.String("hash", deps.hash))
	}
}

// trackBlocksLocked follows new heads when watching, or looks the latest
// block up once when only caching per block.
func (h *Handle) trackBlocksLocked(mode blockMode) {
	if mode == h.mode || h.reader.blocks == nil {
		return
	}
	if h.blockUnsub != nil {
		h.blockUnsub()
		h.blockUnsub = nil
	}
	h.mode = mode
	h.blockGen++
	gen := h.blockGen
	blocks := h.reader.blocks

	switch mode {
	case blocksWatch:
		h.blockUnsub = blocks.SubscribeBlockNumber(func(n uint64) {
			h.setBlockNumber(gen, n)
		})
		if n, ok := blocks.BlockNumber(); ok {
			if h.blockNumber == nil || n > *h.blockNumber {
				h.blockNumber = &n
			}
			return
		}
		go h.lookupLatest(gen)
	case blocksLatest:
		go h.lookupLatest(gen)
	}
}

func (h *Handle) lookupLatest(gen int) {
	ctx, cancel := context.WithTimeout(h.ctx, latestBlockTimeout)
	defer cancel()
	n, err := h.reader.blocks.Latest(ctx)
	if err != nil {
		if h.ctx.Err() == nil {
			h.logger.Warn("Failed to fetch latest block number", zap.Error(err))
		}
		return
	}
	h.setBlockNumber(gen, n)
}

func (h *Handle) setBlockNumber(gen int, n uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || gen != h.blockGen {
		return
	}
	if h.blockNumber != nil && n <= *h.blockNumber {
		return
	}
	h.blockNumber = &n
	close(h.blockSet)
	h.blockSet = make(chan struct{})
	if err := h.evaluateLocked(); err != nil {
		h.logger.Warn("Failed to re-evaluate contract reads", zap.Uint64("blockNumber", n), zap.Error(err))
	}
}

// Result returns the current result. In suspense mode it blocks until the
// current key settles or ctx ends, including the wait for a first block
// number when caching per block.
func (h *Handle) Result(ctx context.Context) (query.Result, error) {
	for {
		h.mu.Lock()
		suspense := h.cfg.Suspense
		waiting := h.awaitingBlockLocked()
		blockSet := h.blockSet
		h.mu.Unlock()

		if !suspense || !waiting {
			return h.observer.Read(ctx)
		}
		select {
		case <-ctx.Done():
			return h.observer.Result(), ctx.Err()
		case <-blockSet:
		}
	}
}

// awaitingBlockLocked reports whether only a missing block number keeps
// the read disabled.
func (h *Handle) awaitingBlockLocked() bool {
	cfg := h.cfg
	if h.closed || h.reader.blocks == nil || !cfg.CacheOnBlock || !cfg.enabled() || len(cfg.Contracts) == 0 {
		return false
	}
	return h.blockNumber == nil || *h.blockNumber == 0
}

// Refetch reads the current key again, bypassing staleness.
func (h *Handle) Refetch(ctx context.Context) (query.Result, error) {
	return h.observer.Refetch(ctx)
}

// Subscribe calls fn on every result change.
func (h *Handle) Subscribe(fn func(query.Result)) (unsubscribe func()) {
	return h.observer.Subscribe(fn)
}

// Close stops the subscription and releases the cache entry.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.blockSet)
	sub := h.sub
	h.sub = nil
	blockUnsub := h.blockUnsub
	h.blockUnsub = nil
	h.mu.Unlock()

	if sub != nil {
		sub.close()
	}
	if blockUnsub != nil {
		blockUnsub()
	}
	h.cancel()
	h.observer.Close()
}

func selectFn(calls []contracts.ContractCall, sel func([]contracts.Result) any) func(any) any {
	return func(data any) any {
		raw, _ := data.([]contracts.CallResult)
		results := Normalize(raw, calls)
		if sel != nil {
			return sel(results)
		}
		return results
	}
}
