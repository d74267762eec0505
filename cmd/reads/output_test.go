package main

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testCases := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "big int", in: new(big.Int).Lsh(big.NewInt(1), 200), want: new(big.Int).Lsh(big.NewInt(1), 200).String()},
		{name: "address", in: addr, want: addr.Hex()},
		{name: "bytes", in: []byte{0xde, 0xad}, want: "0xdead"},
		{name: "fixed bytes", in: [2]byte{0xbe, 0xef}, want: "0xbeef"},
		{name: "uint8", in: uint8(18), want: "18"},
		{name: "int64", in: int64(-5), want: "-5"},
		{name: "string", in: "USDC", want: "USDC"},
		{name: "bool", in: true, want: true},
		{name: "tuple", in: []any{big.NewInt(1), uint32(2)}, want: []any{"1", "2"}},
		{name: "address array", in: []common.Address{addr}, want: []any{addr.Hex()}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatValue(tc.in))
		})
	}
}

func TestRender(t *testing.T) {
	calls := []contracts.ContractCall{
		{Address: common.HexToAddress("0xAAA"), FunctionName: "totalSupply"},
		{Address: common.HexToAddress("0xAAA"), FunctionName: "decimals"},
	}
	block := uint64(42)
	res := query.Result{
		Status: query.StatusSuccess,
		Data: []contracts.Result{
			{Value: big.NewInt(7), Decoded: true},
			{Err: errors.New("reverted")},
			{ReturnData: []byte{0x01}},
		},
	}

	out := render(res, calls, &block)
	assert.Equal(t, query.StatusSuccess, out.Status)
	assert.Equal(t, &block, out.BlockNumber)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "totalSupply", out.Results[0].Function)
	assert.Equal(t, "7", out.Results[0].Value)
	assert.Equal(t, "reverted", out.Results[1].Error)
	assert.Equal(t, "0x01", out.Results[2].Value)
	assert.Empty(t, out.Results[2].Function)

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, out))
	assert.Contains(t, buf.String(), `"blockNumber": 42`)

	failed := render(query.Result{Status: query.StatusError, Err: errors.New("rpc down")}, calls, nil)
	assert.Equal(t, "rpc down", failed.Error)
	assert.Empty(t, failed.Results)
}
