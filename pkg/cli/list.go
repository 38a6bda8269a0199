/*
Copyright © 2026 the factsd authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/factsd/factsd/pkg/plugin"
	"github.com/factsd/factsd/pkg/serializer"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the collector descriptors",
		Description: `Prints the descriptor of every registered collector: its name and the
schema of the configuration options it accepts. This is the same document
the enumerate_collectors call returns.

  factsd list
  factsd list --format table
  factsd list --extensions tasks`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "extensions",
				Usage: "List a sibling extension category instead (tasks, log_sources, ...)",
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
			if category := cmd.String("extensions"); category != "" {
				payload = reg.Extensions(plugin.Category(category))
			} else {
				payload = reg.Descriptors()
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
