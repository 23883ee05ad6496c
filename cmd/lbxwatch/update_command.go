package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"lbxwatch/internal/config"
	"lbxwatch/internal/store"
	"lbxwatch/internal/updater"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Resolve stale or unmapped rows and refresh offer history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				client, err := ctx.catalogClient(cfg)
				if err != nil {
					return err
				}
				runner, err := updater.New(cfg, st, client, logger)
				if err != nil {
					return err
				}

				summary, err := runner.Run(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Selected", "Matched", "Unmatched", "Skipped", "Failed", "Reconciled"},
					[][]string{{
						strconv.Itoa(summary.Selected),
						strconv.Itoa(summary.Matched),
						strconv.Itoa(summary.Unmatched),
						strconv.Itoa(summary.Skipped),
						strconv.Itoa(summary.Failed),
						strconv.Itoa(summary.Reconciled),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
