package reads

import "github.com/fxnlabs/contract-reads/internal/contracts"

// IsEnabled gates both fetching and live subscriptions. Per-block caching
// waits for a block number; zero counts as none.
func IsEnabled(enabled bool, calls []contracts.ContractCall, cacheOnBlock bool, blockNumber *uint64) bool {
	if !enabled || len(calls) == 0 {
		return false
	}
	if cacheOnBlock {
		return blockNumber != nil && *blockNumber != 0
	}
	return true
}

// listenToBlock reports whether the live subscription re-reads on new
// blocks. With per-block caching the key itself moves with the block.
func listenToBlock(watch, cacheOnBlock bool) bool {
	return watch && !cacheOnBlock
}
