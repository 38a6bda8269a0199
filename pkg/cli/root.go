/*
Copyright © 2026 the factsd authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the factsd command-line interface.
//
// factsd is a facts-collector plugin: it enumerates its collectors, runs
// them on demand, and hands the results back to an inspection host. The
// CLI exposes the same dispatch boundary over three surfaces:
//
//	factsd serve    # long-running HTTP surface
//	factsd stdio    # one-shot request on stdin, response on stdout
//	factsd list     # print collector descriptors
//	factsd collect  # run one collector (or all) locally
package cli

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/factsd/factsd/pkg/config"
	"github.com/factsd/factsd/pkg/facts"
	"github.com/factsd/factsd/pkg/logging"
	"github.com/factsd/factsd/pkg/registry"
)

// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/factsd/factsd/pkg/cli.version=1.0.0'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// New builds the root command.
func New() *cli.Command {
	return &cli.Command{
		Name:    "factsd",
		Usage:   "facts-collector plugin for fleet inspection hosts",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the runner configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			stdioCmd(),
			listCmd(),
			collectCmd(),
		},
	}
}

// loadConfig reads the configuration named by the global flag and applies
// the logging flags on top.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	logging.SetDefaultStructuredLogger("factsd", version, cfg.LogLevel)
	return cfg, nil
}

// newRegistry builds a registry with every built-in collector registered,
// tuned from the runner configuration. Enumeration failure at this level
// makes the plugin unusable, so the error propagates to the exit code.
func newRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()
	reg.ExecuteTimeout = cfg.ExecuteTimeout.Std()

	err := facts.RegisterBuiltins(reg, facts.Options{
		CPUSampleWindow:   cfg.CPUSampleWindow.Std(),
		LookupTimeout:     cfg.LookupTimeout.Std(),
		ProbeTimeout:      cfg.ProbeTimeout.Std(),
		ProbeAddress:      cfg.ProbeAddress,
		DisableSystemd:    cfg.DisableSystemd,
		DisableKubernetes: cfg.DisableKubernetes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build collector registry: %w", err)
	}
	return reg, nil
}
