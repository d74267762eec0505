package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/contract-reads/internal/chain"
	"github.com/fxnlabs/contract-reads/internal/query"
	"github.com/fxnlabs/contract-reads/internal/reads"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func printBanner(cfg reads.Config) {
	myFigure := figure.NewFigure("Reads", "", true)
	myFigure.Print()
	fmt.Println("")
	fmt.Printf("Contracts: %d\n", len(cfg.Contracts))
	fmt.Printf("Watch: %t  Cache on block: %t\n", cfg.Watch, cfg.CacheOnBlock)
	fmt.Println("-----------------------------------------------")
}

func watchCommand(state *appState) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the configured contracts up to date and print every change",
		Action: func(c *cli.Context) error {
			cfg, err := readConfig(state.cfg)
			if err != nil {
				return err
			}
			cfg.Watch = true
			printBanner(cfg)

			app := fx.New(
				fx.Supply(state.cfg, state.log),
				fx.Provide(dialEthClient),
				components(),
				fx.Invoke(runBlockWatcher, serveMetrics),
				fx.Invoke(func(lc fx.Lifecycle, reader *reads.Reader, blocks *chain.BlockWatcher) {
					registerWatch(lc, reader, blocks, cfg, state.log)
				}),
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: log.Named("fx")}
				}),
			)
			app.Run()
			return app.Err()
		},
	}
}

// registerWatch opens the handle on start and prints every settled result
// until the application stops.
func registerWatch(lc fx.Lifecycle, reader *reads.Reader, blocks *chain.BlockWatcher, cfg reads.Config, log *zap.Logger) {
	var (
		h           *reads.Handle
		unsubscribe func()
		mu          sync.Mutex
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var err error
			h, err = reader.Use(context.Background(), cfg)
			if err != nil {
				return err
			}
			unsubscribe = h.Subscribe(func(res query.Result) {
				if res.Status != query.StatusSuccess && res.Status != query.StatusError {
					return
				}
				if res.IsFetching {
					return
				}
				var blockNumber *uint64
				if n, ok := blocks.BlockNumber(); ok {
					blockNumber = &n
				}
				mu.Lock()
				defer mu.Unlock()
				if err := printJSON(os.Stdout, render(res, cfg.Contracts, blockNumber)); err != nil {
					log.Warn("Failed to print results", zap.Error(err))
				}
			})
			return nil
		},
		OnStop: func(context.Context) error {
			if unsubscribe != nil {
				unsubscribe()
			}
			if h != nil {
				h.Close()
			}
			return nil
		},
	})
}
