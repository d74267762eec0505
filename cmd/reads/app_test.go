package main

import (
	"context"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/fxnlabs/contract-reads/fixtures"
	"github.com/fxnlabs/contract-reads/internal/config"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/query"
	"github.com/fxnlabs/contract-reads/internal/reads"
	mocks "github.com/fxnlabs/contract-reads/mocks/ethclient"
	"github.com/fxnlabs/contract-reads/pkg/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestComponents(t *testing.T) {
	cfg, err := config.LoadConfig("../../fixtures/tests/config/minimal_config.yaml")
	require.NoError(t, err)

	token, err := abi.JSON(strings.NewReader(fixtures.ERC20ABI))
	require.NoError(t, err)
	supply, err := token.Methods["totalSupply"].Outputs.Pack(big.NewInt(1_000_000))
	require.NoError(t, err)

	client := mocks.NewMockEthClient(t)
	client.EXPECT().ChainID(mock.Anything).Return(big.NewInt(1), nil).Once()
	client.EXPECT().CallContract(mock.Anything, mock.Anything, mock.Anything).Return(supply, nil).Once()

	var reader *reads.Reader
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		fx.Provide(func() ethclient.EthClient { return client }),
		components(),
		fx.Populate(&reader),
	)
	app.RequireStart()
	defer app.RequireStop()

	readCfg, err := readConfig(cfg)
	require.NoError(t, err)
	readCfg.Suspense = true

	h, err := reader.Use(context.Background(), readCfg)
	require.NoError(t, err)
	defer h.Close()

	res, err := h.Result(context.Background())
	require.NoError(t, err)
	require.Equal(t, query.StatusSuccess, res.Status)

	results, ok := res.Data.([]contracts.Result)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, big.NewInt(1_000_000), results[0].Value)
}

func TestReadConfig(t *testing.T) {
	cfg, err := config.LoadConfig("../../fixtures/tests/config/valid_config.yaml")
	require.NoError(t, err)

	readCfg, err := readConfig(cfg)
	require.NoError(t, err)
	assert.Len(t, readCfg.Contracts, 2)
	require.NotNil(t, readCfg.AllowFailure)
	assert.False(t, *readCfg.AllowFailure)
	assert.True(t, readCfg.CacheOnBlock)
	assert.True(t, readCfg.Watch)
	assert.Equal(t, cfg.Cache.StaleTime, readCfg.StaleTime)

	cfg.Reads.Contracts[0].FunctionName = "mint"
	_, err = readConfig(cfg)
	assert.ErrorIs(t, err, contracts.ErrUnknownFunction)

	cfg.Reads.Contracts = nil
	_, err = readConfig(cfg)
	assert.ErrorIs(t, err, contracts.ErrNoContracts)
}

func TestWriteConfigTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeConfigTemplate(path, false))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.RpcProvider)
	assert.NotEmpty(t, cfg.Reads.Contracts)

	assert.Error(t, writeConfigTemplate(path, false))
	assert.NoError(t, writeConfigTemplate(path, true))
}
