package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fxnlabs/contract-reads/internal/chain"
	"github.com/fxnlabs/contract-reads/internal/config"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"github.com/fxnlabs/contract-reads/internal/metrics"
	"github.com/fxnlabs/contract-reads/internal/query"
	"github.com/fxnlabs/contract-reads/internal/reads"
	"github.com/fxnlabs/contract-reads/pkg/ethclient"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	dialTimeout    = 15 * time.Second
	chainIDTimeout = 10 * time.Second
	metricsPath    = "/metrics"
)

// components provides everything between the RPC client and the reads
// Reader. The client itself is provided separately so tests can mock it.
func components() fx.Option {
	return fx.Provide(
		newChainID,
		newBlockWatcher,
		newContractReader,
		newContractWatcher,
		newQueryClient,
		newReadsReader,
	)
}

func dialEthClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (ethclient.EthClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	client, err := ethclient.Dial(ctx, cfg.RpcProvider)
	if err != nil {
		log.Error("Failed to connect to Ethereum RPC provider", zap.String("provider", cfg.RpcProvider), zap.Error(err))
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func newChainID(cfg *config.Config, client ethclient.EthClient) (chain.StaticChainID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), chainIDTimeout)
	defer cancel()
	return chain.ResolveChainID(ctx, client, cfg.ChainID)
}

func newBlockWatcher(cfg *config.Config, client ethclient.EthClient, log *zap.Logger) *chain.BlockWatcher {
	return chain.NewBlockWatcher(client, chain.BlockWatcherOptions{
		Subscribe:    cfg.Blocks.Subscribe,
		PollInterval: cfg.Blocks.PollInterval,
	}, log)
}

func newContractReader(cfg *config.Config, client ethclient.EthClient, chainID chain.StaticChainID, log *zap.Logger) (*contracts.Reader, error) {
	multicall, err := cfg.MulticallAddress()
	if err != nil {
		return nil, err
	}
	return contracts.NewReader(client, contracts.ReaderOptions{
		MulticallAddress: multicall,
		ChainID:          chainID.ChainID(),
	}, log)
}

func newContractWatcher(reader *contracts.Reader, blocks *chain.BlockWatcher, log *zap.Logger) *contracts.Watcher {
	return contracts.NewWatcher(reader, blocks, log)
}

func newQueryClient(cfg *config.Config, log *zap.Logger) (*query.Client, error) {
	return query.NewClient(query.ClientOptions{
		Size:         cfg.Cache.Size,
		CacheTime:    cfg.Cache.CacheTime,
		FetchTimeout: cfg.Cache.FetchTimeout,
	}, log)
}

func newReadsReader(client *query.Client, reader *contracts.Reader, watcher *contracts.Watcher, blocks *chain.BlockWatcher, chainID chain.StaticChainID, log *zap.Logger) *reads.Reader {
	return reads.NewReader(client, reader, watcher, blocks, chainID, log)
}

// runBlockWatcher ties head tracking to the application lifecycle.
func runBlockWatcher(lc fx.Lifecycle, blocks *chain.BlockWatcher) {
	lc.Append(fx.StartStopHook(blocks.Start, blocks.Stop))
}

// serveMetrics exposes the Prometheus registry while the application runs.
func serveMetrics(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, metrics.Handler(metricsPath))
	server := &http.Server{
		Addr:              cfg.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			log.Info("Serving metrics", zap.String("address", ln.Addr().String()), zap.String("path", metricsPath))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// readConfig turns the reads section into a handle configuration.
func readConfig(cfg *config.Config) (reads.Config, error) {
	calls, err := cfg.ContractCalls()
	if err != nil {
		return reads.Config{}, err
	}
	if len(calls) == 0 {
		return reads.Config{}, contracts.ErrNoContracts
	}
	return reads.Config{
		Contracts:    calls,
		AllowFailure: cfg.Reads.AllowFailure,
		CacheOnBlock: cfg.Reads.CacheOnBlock,
		Watch:        cfg.Reads.Watch,
		StaleTime:    cfg.Cache.StaleTime,
		CacheTime:    cfg.Cache.CacheTime,
	}, nil
}
