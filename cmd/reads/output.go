package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
)

type resultView struct {
	Address  string `json:"address"`
	Function string `json:"function"`
	Value    any    `json:"value,omitempty"`
	Error    string `json:"error,omitempty"`
}

type outputView struct {
	Status      query.Status `json:"status"`
	BlockNumber *uint64      `json:"blockNumber,omitempty"`
	Error       string       `json:"error,omitempty"`
	Results     []resultView `json:"results,omitempty"`
}

func render(res query.Result, calls []contracts.ContractCall, blockNumber *uint64) outputView {
	out := outputView{Status: res.Status, BlockNumber: blockNumber}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	results, _ := res.Data.([]contracts.Result)
	for i, r := range results {
		view := resultView{}
		if i < len(calls) {
			view.Address = calls[i].Address.Hex()
			view.Function = calls[i].FunctionName
		}
		if r.Err != nil {
			view.Error = r.Err.Error()
		} else if r.Decoded {
			view.Value = formatValue(r.Value)
		} else {
			view.Value = hexutil.Encode(r.ReturnData)
		}
		out.Results = append(out.Results, view)
	}
	return out
}

// formatValue makes decoded ABI values readable as JSON. Integers become
// decimal strings so uint256 values keep their precision.
func formatValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *big.Int:
		return val.String()
	case common.Address:
		return val.Hex()
	case []byte:
		return hexutil.Encode(val)
	case string, bool:
		return val
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = formatValue(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", rv.Uint())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int())
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = formatValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func printJSON(w io.Writer, view outputView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
