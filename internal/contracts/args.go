package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseArgs converts string arguments, as found in config files and CLI
// flags, into the Go values go-ethereum packs for method's inputs.
func ParseArgs(method abi.Method, raw []string) ([]any, error) {
	if len(raw) != len(method.Inputs) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method.Name, len(method.Inputs), len(raw))
	}
	args := make([]any, len(raw))
	for i, input := range method.Inputs {
		v, err := parseArg(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s) of %s: %w", i, input.Name, method.Name, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.UintTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok || n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("invalid uint%d %q", t.Size, s)
		}
		return sizedUint(n, t.Size), nil
	case abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if !ok || n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("invalid int%d %q", t.Size, s)
		}
		return sizedInt(n, t.Size), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

func sizedUint(n *big.Int, size int) any {
	switch size {
	case 8:
		return uint8(n.Uint64())
	case 16:
		return uint16(n.Uint64())
	case 32:
		return uint32(n.Uint64())
	case 64:
		return n.Uint64()
	}
	return n
}

func sizedInt(n *big.Int, size int) any {
	switch size {
	case 8:
		return int8(n.Int64())
	case 16:
		return int16(n.Int64())
	case 32:
		return int32(n.Int64())
	case 64:
		return n.Int64()
	}
	return n
}
