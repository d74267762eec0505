// Package chain tracks the head of the connected chain and resolves its id.
package chain

import (
	"context"
	"fmt"

	"github.com/fxnlabs/contract-reads/pkg/ethclient"
)

// StaticChainID reports a fixed chain id.
type StaticChainID int64

func (id StaticChainID) ChainID() int64 {
	return int64(id)
}

// ResolveChainID returns configured when set, otherwise asks the client.
func ResolveChainID(ctx context.Context, client ethclient.EthClient, configured int64) (StaticChainID, error) {
	if configured != 0 {
		return StaticChainID(configured), nil
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	return StaticChainID(id.Int64()), nil
}
