package main

import (
	"fmt"
	"os"

	"github.com/fxnlabs/contract-reads/fixtures"
	"github.com/urfave/cli/v2"
)

func initCommand(configPath *string) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter configuration file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			return writeConfigTemplate(*configPath, c.Bool("force"))
		},
	}
}

func writeConfigTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
	}
	if err := os.WriteFile(path, fixtures.ConfigTemplate, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Printf("Config file written to %s\n", path)
	return nil
}
