/*
Copyright © 2026 the factsd authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/factsd/factsd/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the collector boundary over HTTP",
		Description: `Starts the long-running HTTP surface used by hosts that drive plugins
through a socket:

  GET  /v1/collectors          enumerate collector descriptors
  POST /v1/collectors/{name}   execute one collector
  GET  /v1/extensions/{cat}    enumerate sibling extension categories
  GET  /health, /ready         probes
  GET  /metrics                Prometheus metrics

Collector failures are returned as error documents with status 200;
transport status codes are reserved for the transport itself.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides the config file)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("port") {
				cfg.Port = int(cmd.Int("port"))
			}

			reg, err := newRegistry(cfg)
			if err != nil {
				slog.Error("registry initialization failed", "error", err)
				return err
			}

			slog.Info("starting factsd",
				slog.String("version", version),
				slog.Int("collectors", len(reg.Descriptors())),
			)
			return server.New(cfg, reg).Run(ctx)
		},
	}
}
