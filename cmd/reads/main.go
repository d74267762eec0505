package main

import (
	"fmt"
	"os"

	"github.com/fxnlabs/contract-reads/internal/config"
	"github.com/fxnlabs/contract-reads/internal/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const defaultConfigPath = "config.yaml"

// appState is filled in by Before and shared with every command.
type appState struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	var configPath string
	state := &appState{}

	app := &cli.App{
		Name:  "reads",
		Usage: "Batch read EVM contract state, once or on every block",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       defaultConfigPath,
				Usage:       "Path to the configuration file",
				EnvVars:     []string{"READS_CONFIG"},
				Destination: &configPath,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Args().First() == "init" {
				return nil
			}
			var err error
			state.cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(state.cfg.Logger.Verbosity, state.cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			state.log = zapLogger.Named("cli")
			return nil
		},
		Commands: []*cli.Command{
			initCommand(&configPath),
			readCommand(state),
			watchCommand(state),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if state.log != nil {
			state.log.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
