package ethclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	goethclient "github.com/ethereum/go-ethereum/ethclient"
)

// EthClient is the subset of the go-ethereum client used for contract reads
// and block tracking.
type EthClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

var _ EthClient = (*goethclient.Client)(nil)

// Dial connects to an RPC provider. Websocket and IPC endpoints support
// new-head subscriptions, HTTP endpoints only support polling.
func Dial(ctx context.Context, rawurl string) (*goethclient.Client, error) {
	return goethclient.DialContext(ctx, rawurl)
}
