package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lbxwatch/internal/offers"
)

// newOffersCommand shows the normalized offer set for one catalog entry, the
// same view the updater writes into offers_current.
func newOffersCommand(ctx *commandContext) *cobra.Command {
	var countryFlag string

	cmd := &cobra.Command{
		Use:   "offers <entry-id>",
		Short: "Show normalized current offers for a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			country := cfg.Catalog.Country
			if countryFlag != "" {
				country = countryFlag
			}
			client, err := ctx.catalogClient(cfg)
			if err != nil {
				return err
			}

			byCountry, fetchErr := client.Offers(cmd.Context(), args[0], []string{country})
			raw, ok := byCountry[country]
			if !ok {
				return fmt.Errorf("fetch offers for %s: %w", country, fetchErr)
			}

			normalized := offers.Normalize(raw)
			out := cmd.OutOrStdout()
			if len(normalized) == 0 {
				fmt.Fprintln(out, "No offers.")
				return nil
			}

			rows := make([][]string, 0, len(normalized))
			for _, offer := range normalized {
				rows = append(rows, []string{
					strconv.FormatInt(offer.ProviderID, 10),
					offer.ProviderName,
					offer.PresentationType,
					offer.URL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Provider", "Quality", "URL"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&countryFlag, "country", "", "Country code (defaults to the configured country)")
	return cmd
}
