package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/fxnlabs/contract-reads/internal/metrics"
	"github.com/fxnlabs/contract-reads/pkg/ethclient"
	"go.uber.org/zap"
)

const (
	// resubscribeInterval is the delay before attempting to resubscribe after a connection failure
	resubscribeInterval = 2 * time.Second
	// newHeadersBufferSize is the buffer size for the new headers channel
	newHeadersBufferSize = 1

	defaultPollInterval = 4 * time.Second
	blockNumberTimeout  = 10 * time.Second
)

type BlockWatcherOptions struct {
	// Subscribe listens to new heads over the client connection. Only
	// websocket and IPC endpoints support it.
	Subscribe bool
	// PollInterval is used when Subscribe is false.
	PollInterval time.Duration
}

// BlockWatcher tracks the latest block number and fans it out to listeners.
// Listeners only ever see increasing block numbers.
type BlockWatcher struct {
	client ethclient.EthClient
	opts   BlockWatcherOptions
	logger *zap.Logger

	mu        sync.RWMutex
	latest    uint64
	hasLatest bool
	listeners map[int]func(uint64)
	nextID    int

	runMu   sync.Mutex
	sub     event.Subscription
	quit    chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewBlockWatcher(client ethclient.EthClient, opts BlockWatcherOptions, logger *zap.Logger) *BlockWatcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &BlockWatcher{
		client:    client,
		opts:      opts,
		logger:    logger.Named("blocks"),
		listeners: make(map[int]func(uint64)),
	}
}

// Start begins tracking new blocks. It is a no-op when already running.
func (bw *BlockWatcher) Start() {
	bw.runMu.Lock()
	defer bw.runMu.Unlock()
	if bw.running {
		return
	}
	bw.running = true

	if bw.opts.Subscribe {
		bw.sub = event.ResubscribeErr(resubscribeInterval, bw.resubscribeFn())
		bw.logger.Info("Block watcher started", zap.String("mode", "subscribe"))
		return
	}

	bw.quit = make(chan struct{})
	bw.wg.Add(1)
	go bw.poll(bw.quit)
	bw.logger.Info("Block watcher started", zap.String("mode", "poll"), zap.Duration("interval", bw.opts.PollInterval))
}

// Stop ends tracking and waits for the polling loop to exit.
func (bw *BlockWatcher) Stop() {
	bw.runMu.Lock()
	defer bw.runMu.Unlock()
	if !bw.running {
		return
	}
	bw.running = false

	if bw.sub != nil {
		bw.sub.Unsubscribe()
		bw.sub = nil
	}
	if bw.quit != nil {
		close(bw.quit)
		bw.wg.Wait()
		bw.quit = nil
	}
	bw.logger.Info("Block watcher stopped")
}

// Latest asks the client for the current block number.
func (bw *BlockWatcher) Latest(ctx context.Context) (uint64, error) {
	n, err := bw.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch block number: %w", err)
	}
	bw.observe(n)
	return n, nil
}

// BlockNumber returns the latest observed block number.
func (bw *BlockWatcher) BlockNumber() (uint64, bool) {
	bw.mu.RLock()
	defer bw.mu.RUnlock()
	return bw.latest, bw.hasLatest
}

// SubscribeBlockNumber registers fn for every new block number.
func (bw *BlockWatcher) SubscribeBlockNumber(fn func(uint64)) (unsubscribe func()) {
	bw.mu.Lock()
	id := bw.nextID
	bw.nextID++
	bw.listeners[id] = fn
	bw.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			bw.mu.Lock()
			delete(bw.listeners, id)
			bw.mu.Unlock()
		})
	}
}

// observe records n and notifies listeners outside the lock.
func (bw *BlockWatcher) observe(n uint64) {
	bw.mu.Lock()
	if bw.hasLatest && n <= bw.latest {
		bw.mu.Unlock()
		return
	}
	bw.latest = n
	bw.hasLatest = true
	fns := make([]func(uint64), 0, len(bw.listeners))
	for _, fn := range bw.listeners {
		fns = append(fns, fn)
	}
	bw.mu.Unlock()

	metrics.BlockNumber.Set(float64(n))
	bw.logger.Debug("New block", zap.Uint64("blockNumber", n))
	for _, fn := range fns {
		fn(n)
	}
}

func (bw *BlockWatcher) poll(quit <-chan struct{}) {
	defer bw.wg.Done()
	ticker := time.NewTicker(bw.opts.PollInterval)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), blockNumberTimeout)
		if _, err := bw.Latest(ctx); err != nil {
			bw.logger.Warn("Failed to poll block number", zap.Error(err))
		}
		cancel()

		select {
		case <-quit:
			return
		case <-ticker.C:
		}
	}
}

// receiveHeads subscribes to new block headers and records their numbers.
func (bw *BlockWatcher) receiveHeads(ctx context.Context) (event.Subscription, error) {
	headers := make(chan *types.Header, newHeadersBufferSize)
	sub, err := bw.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return nil, err
	}
	bw.logger.Info("Subscribed to new heads")

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case header := <-headers:
				bw.observe(header.Number.Uint64())
			case <-quit:
				return nil
			case err := <-sub.Err():
				if err != nil {
					bw.logger.Error("New head subscription error", zap.Error(err))
				}
				return err
			}
		}
	}), nil
}

// resubscribeFn returns a function that handles resubscription on connection failures.
func (bw *BlockWatcher) resubscribeFn() event.ResubscribeErrFunc {
	return func(ctx context.Context, err error) (event.Subscription, error) {
		if err != nil {
			bw.logger.Warn("Resubscribing after connection failure", zap.Error(err))
		}
		return bw.receiveHeads(ctx)
	}
}
