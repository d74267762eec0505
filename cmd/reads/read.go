package main

import (
	"context"
	"os"

	"github.com/fxnlabs/contract-reads/internal/chain"
	"github.com/fxnlabs/contract-reads/internal/reads"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func readCommand(state *appState) *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "Read the configured contracts once and print the results",
		Action: func(c *cli.Context) error {
			var reader *reads.Reader
			var blocks *chain.BlockWatcher

			app := fx.New(
				fx.Supply(state.cfg, state.log),
				fx.Provide(dialEthClient),
				components(),
				fx.Populate(&reader, &blocks),
				fx.NopLogger,
			)
			if err := app.Start(c.Context); err != nil {
				return err
			}
			defer func() {
				if err := app.Stop(context.Background()); err != nil {
					state.log.Warn("Failed to stop application", zap.Error(err))
				}
			}()

			cfg, err := readConfig(state.cfg)
			if err != nil {
				return err
			}
			// a one-shot read has nothing to watch
			cfg.Watch = false
			cfg.Suspense = true
			return readOnce(c.Context, reader, blocks, cfg)
		},
	}
}

func readOnce(ctx context.Context, reader *reads.Reader, blocks *chain.BlockWatcher, cfg reads.Config) error {
	h, err := reader.Use(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	res, err := h.Result(ctx)
	if err != nil {
		return err
	}
	var blockNumber *uint64
	if n, ok := blocks.BlockNumber(); ok && cfg.CacheOnBlock {
		blockNumber = &n
	}
	return printJSON(os.Stdout, render(res, cfg.Contracts, blockNumber))
}
