/*
Copyright © 2026 the factsd authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/factsd/factsd/pkg/serializer"
	"github.com/factsd/factsd/pkg/snapshot"
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:      "collect",
		Usage:     "Run a collector locally and print its facts document",
		ArgsUsage: "[collector]",
		Description: `Runs one collector through the same dispatch boundary a host would use
and prints the resulting facts document. Collector failures are printed
as error documents, not exit codes.

  factsd collect system_info
  factsd collect system_info --set '{"include_cpu": false}'
  factsd collect network_interfaces --format yaml
  factsd collect --all --output facts.json

With --all, every collector runs in parallel with its defaults and the
documents are bundled into a single snapshot.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "set",
				Usage: "Collector configuration as a JSON object",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Run every registered collector with its defaults",
			},
		}, outputFlags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			var payload any
			switch {
			case cmd.Bool("all"):
				payload = snapshot.Collect(ctx, reg)
			case cmd.Args().Len() == 1:
				name := cmd.Args().First()
				payload = reg.Execute(ctx, name, []byte(cmd.String("set")))
			default:
				return fmt.Errorf("expected exactly one collector name, or --all")
			}

			w, err := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Serialize(ctx, payload)
		},
	}
}
