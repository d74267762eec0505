package reads

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddress = common.HexToAddress("0xAAA")
	ownerAddress = common.HexToAddress("0xBBB")
)

func erc20(t *testing.T) *abi.ABI {
	t.Helper()
	parsed, err := contracts.LoadABI("erc20")
	require.NoError(t, err)
	return parsed
}

func packOutput(t *testing.T, a *abi.ABI, method string, values ...any) []byte {
	t.Helper()
	out, err := a.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func tokenCalls(t *testing.T) []contracts.ContractCall {
	token := erc20(t)
	return []contracts.ContractCall{
		{Address: tokenAddress, ABI: token, FunctionName: "totalSupply"},
		{Address: tokenAddress, ABI: token, FunctionName: "decimals"},
	}
}

// fakeReader answers totalSupply with its current supply and decimals with 18.
// With a gate set, reads block until the gate closes; a read whose context
// ends first fails every call with the context error.
type fakeReader struct {
	t       *testing.T
	abi     *abi.ABI
	supply  atomic.Int64
	err     error
	gate    chan struct{}
	started chan struct{}

	mu    sync.Mutex
	calls []contracts.ReadContractsConfig
}

func newFakeReader(t *testing.T) *fakeReader {
	r := &fakeReader{t: t, abi: erc20(t)}
	r.supply.Store(100)
	return r
}

func (f *fakeReader) ReadContracts(ctx context.Context, cfg contracts.ReadContractsConfig) ([]contracts.CallResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			results := make([]contracts.CallResult, len(cfg.Contracts))
			for i := range results {
				results[i].Err = ctx.Err()
			}
			return results, nil
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results(cfg.Contracts, f.supply.Load()), nil
}

func (f *fakeReader) results(calls []contracts.ContractCall, supply int64) []contracts.CallResult {
	results := make([]contracts.CallResult, len(calls))
	for i, call := range calls {
		switch call.FunctionName {
		case "totalSupply":
			results[i].ReturnData = packOutput(f.t, f.abi, "totalSupply", big.NewInt(supply))
		case "decimals":
			results[i].ReturnData = packOutput(f.t, f.abi, "decimals", uint8(18))
		case "balanceOf":
			results[i].ReturnData = packOutput(f.t, f.abi, "balanceOf", big.NewInt(supply/2))
		default:
			results[i].Err = contracts.ErrCallReverted
		}
	}
	return results
}

func (f *fakeReader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeWatch struct {
	cfg       contracts.WatchReadContractsConfig
	onUpdate  func([]contracts.CallResult)
	unwatched atomic.Int32
}

type fakeWatcher struct {
	mu      sync.Mutex
	watches []*fakeWatch
}

func (f *fakeWatcher) WatchReadContracts(cfg contracts.WatchReadContractsConfig, onUpdate func([]contracts.CallResult)) func() {
	w := &fakeWatch{cfg: cfg, onUpdate: onUpdate}
	f.mu.Lock()
	f.watches = append(f.watches, w)
	f.mu.Unlock()
	return func() { w.unwatched.Add(1) }
}

func (f *fakeWatcher) all() []*fakeWatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeWatch(nil), f.watches...)
}

type fakeBlocks struct {
	mu        sync.Mutex
	latest    uint64
	listeners map[int]func(uint64)
	next      int
	lookups   int
}

func newFakeBlocks(latest uint64) *fakeBlocks {
	return &fakeBlocks{latest: latest, listeners: map[int]func(uint64){}}
}

func (f *fakeBlocks) Latest(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.latest, nil
}

func (f *fakeBlocks) BlockNumber() (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.latest != 0
}

func (f *fakeBlocks) SubscribeBlockNumber(fn func(uint64)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeBlocks) emit(n uint64) {
	f.mu.Lock()
	f.latest = n
	fns := make([]func(uint64), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

func (f *fakeBlocks) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func boolPtr(b bool) *bool {
	return &b
}
