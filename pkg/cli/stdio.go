/*
Copyright © 2026 the factsd authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/factsd/factsd/pkg/stdio"
)

func stdioCmd() *cli.Command {
	return &cli.Command{
		Name:  "stdio",
		Usage: "Handle one request from stdin and write the response to stdout",
		Description: `Runs the exec-style transport: the host writes one JSON request envelope
to stdin and reads one JSON response from stdout. Logs go to stderr.

  echo '{"call":"enumerate_collectors"}' | factsd stdio
  echo '{"call":"execute_collector","name":"system_info","config":{"include_cpu":false}}' | factsd stdio

A non-zero exit means the transport itself failed and the plugin should
be treated as unusable; collector failures are reported inside the
response document.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			return stdio.Run(ctx, reg, os.Stdin, os.Stdout)
		},
	}
}
