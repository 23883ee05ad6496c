package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lbxwatch/internal/config"
	"lbxwatch/internal/enrich"
	"lbxwatch/internal/enrich/omdb"
	"lbxwatch/internal/enrich/tmdb"
	"lbxwatch/internal/store"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Backfill film details from TMDb and OMDb",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				if strings.TrimSpace(cfg.Enrich.TMDBAPIKey) == "" {
					return fmt.Errorf("enrichment requires a TMDb key: set tmdb_api_key in the config or export TMDB_API_KEY")
				}
				metadata, err := tmdb.New(cfg.Enrich.TMDBAPIKey, cfg.Enrich.TMDBBaseURL, cfg.Enrich.TMDBLanguage)
				if err != nil {
					return err
				}

				var boxOffice enrich.BoxOfficeSource
				if strings.TrimSpace(cfg.Enrich.OMDBAPIKey) != "" {
					client, err := omdb.New(cfg.Enrich.OMDBAPIKey, cfg.Enrich.OMDBBaseURL)
					if err != nil {
						return err
					}
					boxOffice = client
				}

				enricher, err := enrich.New(cfg, st, metadata, boxOffice, logger)
				if err != nil {
					return err
				}

				summary, err := enricher.Run(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Targets", "Enriched", "No Match", "Skipped", "Failed"},
					[][]string{{
						strconv.Itoa(summary.Targets),
						strconv.Itoa(summary.Enriched),
						strconv.Itoa(summary.NoMatch),
						strconv.Itoa(summary.Skipped),
						strconv.Itoa(summary.Failed),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
