package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lbxwatch/internal/config"
	"lbxwatch/internal/store"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag string
		limitFlag  int
	)

	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Show mapping state for a source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, _ *slog.Logger, st *store.Store) error {
				source := strings.ToUpper(strings.TrimSpace(sourceFlag))
				if source == "" {
					source = cfg.Update.Source
				}

				staleBefore := time.Now().UTC().AddDate(0, 0, -cfg.Update.StaleDays)
				summary, err := st.Summary(cmd.Context(), source, staleBefore)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderHeading(fmt.Sprintf("Mappings for %s", source), colorize))
				fmt.Fprintln(out, renderTable(
					[]string{"Rows", "Mapped", "Unmatched", "Stale", "Enriched"},
					[][]string{{
						strconv.Itoa(summary.SourceRows),
						strconv.Itoa(summary.Mapped),
						strconv.Itoa(summary.Unmatched),
						strconv.Itoa(summary.Stale),
						strconv.Itoa(summary.Enriched),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))

				mappings, err := st.ListMappings(cmd.Context(), source, limitFlag)
				if err != nil {
					return err
				}
				if len(mappings) == 0 {
					fmt.Fprintln(out, "No mappings yet.")
					return nil
				}

				rows := make([][]string, 0, len(mappings))
				for _, mapping := range mappings {
					year := ""
					if mapping.MatchedYear > 0 {
						year = strconv.Itoa(mapping.MatchedYear)
					}
					rows = append(rows, []string{
						strconv.FormatInt(mapping.SourceRowID, 10),
						mapping.EntryID,
						mapping.MatchedTitle,
						year,
						mapping.MatchedType,
						mapping.MatchedVia,
						strconv.Itoa(mapping.Confidence),
						mapping.LastCheckedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Row", "Entry", "Title", "Year", "Type", "Via", "Conf", "Checked"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source table (WATCHLIST or DIARY, defaults to the configured source)")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum mappings to list")
	return cmd
}
