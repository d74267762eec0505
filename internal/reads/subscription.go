package reads

import (
	"sync"

	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/metrics"
	"github.com/fxnlabs/contract-reads/internal/query"
	"go.uber.org/zap"
)

// ContractWatcher pushes fresh batch results until unwatched.
type ContractWatcher interface {
	WatchReadContracts(cfg contracts.WatchReadContractsConfig, onUpdate func([]contracts.CallResult)) (unwatch func())
}

// subscriptionDeps are the inputs a live subscription is opened for. Any
// change tears it down.
type subscriptionDeps struct {
	hash         string
	enabled      bool
	watch        bool
	cacheOnBlock bool
}

// subscription writes pushed results into the cache entry it was opened
// for. Once closed it never writes again.
type subscription struct {
	deps subscriptionDeps

	mu      sync.Mutex
	closed  bool
	unwatch func()
	once    sync.Once
}

func openSubscription(client *query.Client, watcher ContractWatcher, deps subscriptionDeps, key []QueryKey, logger *zap.Logger) *subscription {
	s := &subscription{deps: deps}
	k := key[0]
	hash := deps.hash

	unwatch := watcher.WatchReadContracts(contracts.WatchReadContractsConfig{
		Contracts:     k.Contracts,
		Overrides:     k.Overrides,
		ListenToBlock: listenToBlock(deps.watch, deps.cacheOnBlock),
	}, func(results []contracts.CallResult) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		client.SetQueryData(hash, key, results)
		logger.Debug("Pushed contract reads", zap.String("hash", hash), zap.Int("results", len(results)))
	})
	s.mu.Lock()
	s.unwatch = unwatch
	s.mu.Unlock()
	metrics.SubscriptionsActive.Inc()
	return s
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	unwatch := s.unwatch
	s.mu.Unlock()

	s.once.Do(func() {
		if unwatch != nil {
			unwatch()
		}
		metrics.SubscriptionsActive.Dec()
	})
}
