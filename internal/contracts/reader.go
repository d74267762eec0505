package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/contract-reads/fixtures"
	"github.com/fxnlabs/contract-reads/internal/metrics"
	"github.com/fxnlabs/contract-reads/pkg/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMulticallAddress is the Multicall3 deployment shared by most EVM chains.
	DefaultMulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
	defaultConcurrency      = 8
)

type ReaderOptions struct {
	// MulticallAddress enables batching through Multicall3 aggregate3.
	// When nil every call is sent as its own eth_call.
	MulticallAddress *common.Address
	// ChainID of the connected client. Calls pinned to another chain fail.
	ChainID int64
	// Concurrency bounds parallel eth_calls.
	Concurrency int
}

// Reader executes batches of contract calls against one chain.
type Reader struct {
	client       ethclient.EthClient
	opts         ReaderOptions
	multicallABI abi.ABI
	logger       *zap.Logger
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type call3Result struct {
	Success    bool
	ReturnData []byte
}

func NewReader(client ethclient.EthClient, opts ReaderOptions, logger *zap.Logger) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(fixtures.Multicall3ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Multicall3 ABI: %w", err)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Reader{
		client:       client,
		opts:         opts,
		multicallABI: parsedABI,
		logger:       logger.Named("contracts"),
	}, nil
}

// ReadContracts calls every contract of cfg and returns one result per call,
// in request order. With AllowFailure a failing call is reported in its
// CallResult; without it the first failure fails the whole batch.
func (r *Reader) ReadContracts(ctx context.Context, cfg ReadContractsConfig) ([]CallResult, error) {
	if len(cfg.Contracts) == 0 {
		return []CallResult{}, nil
	}

	mode := metrics.ModeParallel
	if r.opts.MulticallAddress != nil && len(cfg.Contracts) > 1 {
		mode = metrics.ModeMulticall
	}

	start := time.Now()
	var (
		results []CallResult
		err     error
	)
	if mode == metrics.ModeMulticall {
		results, err = r.multicall(ctx, cfg)
	} else {
		results, err = r.parallel(ctx, cfg)
	}
	metrics.ContractReadDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.ContractReads.WithLabelValues(mode, metrics.StatusError).Inc()
		r.logger.Error("Failed to read contracts", zap.String("mode", mode), zap.Int("count", len(cfg.Contracts)), zap.Error(err))
		return nil, err
	}
	metrics.ContractReads.WithLabelValues(mode, metrics.StatusSuccess).Inc()
	r.logger.Debug("Read contracts", zap.String("mode", mode), zap.Int("count", len(cfg.Contracts)))
	return results, nil
}

// pack encodes the call data for one contract.
func (r *Reader) pack(call ContractCall) ([]byte, error) {
	if call.ChainID != nil && r.opts.ChainID != 0 && *call.ChainID != r.opts.ChainID {
		return nil, fmt.Errorf("%w: %d != %d", ErrChainMismatch, *call.ChainID, r.opts.ChainID)
	}
	if call.ABI == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, call.FunctionName)
	}
	if _, ok := call.ABI.Methods[call.FunctionName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, call.FunctionName)
	}
	data, err := call.ABI.Pack(call.FunctionName, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data for %s: %w", call.FunctionName, err)
	}
	return data, nil
}

func (r *Reader) callMsg(to common.Address, data []byte, overrides *CallOverrides) (ethereum.CallMsg, *big.Int) {
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	if overrides == nil {
		return msg, nil
	}
	if overrides.From != nil {
		msg.From = *overrides.From
	}
	msg.Gas = overrides.Gas
	msg.GasPrice = overrides.GasPrice
	msg.Value = overrides.Value
	return msg, overrides.BlockNumber
}

func (r *Reader) parallel(ctx context.Context, cfg ReadContractsConfig) ([]CallResult, error) {
	results := make([]CallResult, len(cfg.Contracts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, call := range cfg.Contracts {
		g.Go(func() error {
			data, err := r.pack(call)
			if err == nil {
				msg, block := r.callMsg(call.Address, data, cfg.Overrides)
				data, err = r.client.CallContract(gctx, msg, block)
			}
			if err != nil {
				callErr := newCallError(i, call, err)
				if !cfg.AllowFailure {
					return callErr
				}
				r.logger.Debug("Contract call failed", zap.Int("index", i), zap.String("contractAddress", call.Address.Hex()), zap.Error(err))
				results[i] = CallResult{Err: callErr}
				return nil
			}
			results[i] = CallResult{ReturnData: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Reader) multicall(ctx context.Context, cfg ReadContractsConfig) ([]CallResult, error) {
	results := make([]CallResult, len(cfg.Contracts))
	calls := make([]call3, 0, len(cfg.Contracts))
	// index of each packed call in the batch, -1 when packing failed
	slots := make([]int, len(cfg.Contracts))

	for i, call := range cfg.Contracts {
		data, err := r.pack(call)
		if err != nil {
			if !cfg.AllowFailure {
				return nil, newCallError(i, call, err)
			}
			results[i] = CallResult{Err: newCallError(i, call, err)}
			slots[i] = -1
			continue
		}
		slots[i] = len(calls)
		calls = append(calls, call3{Target: call.Address, AllowFailure: cfg.AllowFailure, CallData: data})
	}
	if len(calls) == 0 {
		return results, nil
	}

	callData, err := r.multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data for aggregate3: %w", err)
	}
	msg, block := r.callMsg(*r.opts.MulticallAddress, callData, cfg.Overrides)
	out, err := r.client.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("failed to call aggregate3: %w", err)
	}

	var batch []call3Result
	if err := r.multicallABI.UnpackIntoInterface(&batch, "aggregate3", out); err != nil {
		return nil, fmt.Errorf("failed to unpack aggregate3 result: %w", err)
	}
	if len(batch) != len(calls) {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(batch), len(calls))
	}

	for i, slot := range slots {
		if slot < 0 {
			continue
		}
		res := batch[slot]
		if res.Success {
			results[i] = CallResult{ReturnData: res.ReturnData}
			continue
		}
		results[i] = CallResult{
			ReturnData: res.ReturnData,
			Err:        newCallError(i, cfg.Contracts[i], revertError(res.ReturnData)),
		}
	}
	return results, nil
}

func revertError(data []byte) error {
	if reason, err := abi.UnpackRevert(data); err == nil {
		return fmt.Errorf("%w: %s", ErrCallReverted, reason)
	}
	return ErrCallReverted
}
