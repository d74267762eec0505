package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownFunction = errors.New("function not found in contract interface")
	ErrEmptyReturnData = errors.New("call returned no data")
	ErrCallReverted    = errors.New("call reverted")
	ErrChainMismatch   = errors.New("contract chain does not match client chain")
	ErrNoContracts     = errors.New("no contracts to read")
)

// ContractCall describes one view function call. ABI is the contract
// interface used to encode the call and decode its output.
type ContractCall struct {
	Address      common.Address `json:"address"`
	ABI          *abi.ABI       `json:"-"`
	FunctionName string         `json:"functionName"`
	Args         []any          `json:"args,omitempty"`
	ChainID      *int64         `json:"chainId,omitempty"`
}

// CallOverrides are applied to every call of a batch.
type CallOverrides struct {
	From        *common.Address `json:"from,omitempty"`
	BlockNumber *big.Int        `json:"blockNumber,omitempty"`
	Gas         uint64          `json:"gas,omitempty"`
	GasPrice    *big.Int        `json:"gasPrice,omitempty"`
	Value       *big.Int        `json:"value,omitempty"`
}

type ReadContractsConfig struct {
	AllowFailure bool
	Contracts    []ContractCall
	Overrides    *CallOverrides
}

type WatchReadContractsConfig struct {
	Contracts     []ContractCall
	Overrides     *CallOverrides
	ListenToBlock bool
}

// CallResult is the raw outcome of one call in a batch.
type CallResult struct {
	ReturnData []byte
	Err        error
}

// CallError reports the failure of a single call in a batch.
type CallError struct {
	Index        int
	Address      common.Address
	FunctionName string
	Err          error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %d (%s on %s) failed: %v", e.Index, e.FunctionName, e.Address.Hex(), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func newCallError(i int, call ContractCall, err error) *CallError {
	return &CallError{
		Index:        i,
		Address:      call.Address,
		FunctionName: call.FunctionName,
		Err:          err,
	}
}
