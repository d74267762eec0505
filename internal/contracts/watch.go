package contracts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultWatchReadTimeout = 30 * time.Second

// BlockSource notifies listeners of new block numbers.
type BlockSource interface {
	SubscribeBlockNumber(fn func(uint64)) (unsubscribe func())
}

type batchReader interface {
	ReadContracts(ctx context.Context, cfg ReadContractsConfig) ([]CallResult, error)
}

// Watcher re-reads contracts as new blocks arrive.
type Watcher struct {
	reader      batchReader
	blocks      BlockSource
	readTimeout time.Duration
	logger      *zap.Logger
}

func NewWatcher(reader batchReader, blocks BlockSource, logger *zap.Logger) *Watcher {
	return &Watcher{
		reader:      reader,
		blocks:      blocks,
		readTimeout: defaultWatchReadTimeout,
		logger:      logger.Named("watcher"),
	}
}

// WatchReadContracts pushes fresh results to onUpdate after every new block
// while cfg.ListenToBlock is set. Read failures are logged and skipped.
// The returned function stops the watch; it is safe to call more than once.
func (w *Watcher) WatchReadContracts(cfg WatchReadContractsConfig, onUpdate func([]CallResult)) (unwatch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	if !cfg.ListenToBlock {
		return cancel
	}

	// holds at most one pending block, older ones are superseded
	pending := make(chan uint64, 1)
	unsubscribe := w.blocks.SubscribeBlockNumber(func(n uint64) {
		select {
		case pending <- n:
		default:
			select {
			case <-pending:
			default:
			}
			select {
			case pending <- n:
			default:
			}
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-pending:
				w.read(ctx, cfg, n, onUpdate)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			cancel()
		})
	}
}

func (w *Watcher) read(ctx context.Context, cfg WatchReadContractsConfig, blockNumber uint64, onUpdate func([]CallResult)) {
	readCtx, cancel := context.WithTimeout(ctx, w.readTimeout)
	defer cancel()

	results, err := w.reader.ReadContracts(readCtx, ReadContractsConfig{
		AllowFailure: true,
		Contracts:    cfg.Contracts,
		Overrides:    cfg.Overrides,
	})
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("Failed to refresh watched contracts", zap.Uint64("blockNumber", blockNumber), zap.Error(err))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	onUpdate(results)
}
