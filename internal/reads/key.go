package reads

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
)

const entity = "readContracts"

// KeyContext holds the environment a read is pinned to. BlockNumber is
// only set when results are cached per block.
type KeyContext struct {
	BlockNumber *uint64
	ChainID     *int64
}

// QueryKey identifies one batch read in the query cache.
type QueryKey struct {
	Entity       string                   `json:"entity"`
	AllowFailure bool                     `json:"allowFailure"`
	BlockNumber  *uint64                  `json:"blockNumber,omitempty"`
	ChainID      *int64                   `json:"chainId,omitempty"`
	Contracts    []contracts.ContractCall `json:"contracts"`
	Overrides    *contracts.CallOverrides `json:"overrides,omitempty"`
}

// NewQueryKey builds the cache key for req. The key is a single element
// slice so it can be matched by prefix alongside other read entities.
func NewQueryKey(req contracts.ReadContractsConfig, kc KeyContext) []QueryKey {
	return []QueryKey{{
		Entity:       entity,
		AllowFailure: req.AllowFailure,
		BlockNumber:  kc.BlockNumber,
		ChainID:      kc.ChainID,
		Contracts:    req.Contracts,
		Overrides:    req.Overrides,
	}}
}

// QueryKeyHash hashes a key built by NewQueryKey. Contract ABIs are not
// serialized, so two calls differing only in ABI value share an entry.
func QueryKeyHash(key query.Key) (string, error) {
	b, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to serialize read key: %w", err)
	}
	return crypto.Keccak256Hash(b).Hex(), nil
}
