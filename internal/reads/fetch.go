package reads

import (
	"context"
	"fmt"

	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
)

// ContractReader executes a batch of contract calls.
type ContractReader interface {
	ReadContracts(ctx context.Context, cfg contracts.ReadContractsConfig) ([]contracts.CallResult, error)
}

// queryFn reads everything it needs from the key, so any observer of the
// same entry can resolve it.
func queryFn(reader ContractReader) query.QueryFunc {
	return func(ctx context.Context, key query.Key) (any, error) {
		keys, ok := key.([]QueryKey)
		if !ok || len(keys) != 1 {
			return nil, fmt.Errorf("unexpected read key %T", key)
		}
		k := keys[0]
		return reader.ReadContracts(ctx, contracts.ReadContractsConfig{
			AllowFailure: k.AllowFailure,
			Contracts:    k.Contracts,
			Overrides:    k.Overrides,
		})
	}
}
