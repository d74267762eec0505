package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Result is a call outcome decoded with the contract interface.
type Result struct {
	Value      any
	Err        error
	ReturnData []byte
	Decoded    bool
}

// ParseResult decodes raw call output with the named function of contractABI.
// A single output is unwrapped, several outputs are returned in ABI order.
func ParseResult(contractABI *abi.ABI, functionName string, raw CallResult) Result {
	res := Result{ReturnData: raw.ReturnData}
	if raw.Err != nil {
		res.Err = raw.Err
		return res
	}
	if contractABI == nil {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownFunction, functionName)
		return res
	}
	method, ok := contractABI.Methods[functionName]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownFunction, functionName)
		return res
	}
	if len(method.Outputs) == 0 {
		res.Decoded = true
		return res
	}
	if len(raw.ReturnData) == 0 {
		res.Err = fmt.Errorf("%w: %s", ErrEmptyReturnData, functionName)
		return res
	}

	values, err := method.Outputs.Unpack(raw.ReturnData)
	if err != nil {
		res.Err = fmt.Errorf("failed to unpack %s result: %w", functionName, err)
		return res
	}
	res.Decoded = true
	if len(values) == 1 {
		res.Value = values[0]
	} else {
		res.Value = values
	}
	return res
}
