package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lbxwatch/internal/catalog"
)

// newSearchCommand is the manual catalog tester: search a title, pick a
// candidate, and dump its offers with optional filters.
func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		yearFlag      int
		countryFlag   string
		countFlag     int
		bestOnlyFlag  bool
		typeFlag      string
		providerFlags []int
	)

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search the catalog and show offers for the best candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			country := strings.ToUpper(strings.TrimSpace(countryFlag))
			if country == "" {
				country = cfg.Catalog.Country
			}
			client, err := catalog.New(cfg.Catalog.BaseURL, country, cfg.Catalog.Language,
				catalog.WithSearchLimit(countFlag),
				catalog.WithBestOnly(bestOnlyFlag))
			if err != nil {
				return err
			}

			candidates, err := client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}

			chosen := pickCandidate(candidates, yearFlag)
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderHeading(fmt.Sprintf("Using: %s (%d) [%s] entry_id=%s",
				chosen.DisplayTitle(), chosen.Year(), chosen.ObjectType, chosen.EntryID), colorize))

			byCountry, fetchErr := client.Offers(cmd.Context(), chosen.EntryID, []string{country})
			raw, ok := byCountry[country]
			if !ok {
				return fmt.Errorf("fetch offers for %s: %w", country, fetchErr)
			}

			rows := offerRows(raw, typeFlag, providerFlags)
			if len(rows) == 0 {
				fmt.Fprintln(out, "No offers (after filters).")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Monetization", "Quality", "Price", "Provider", "ID", "URL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&yearFlag, "year", 0, "Prefer a candidate with this release year")
	cmd.Flags().StringVar(&countryFlag, "country", "", "Country code (defaults to the configured country)")
	cmd.Flags().IntVar(&countFlag, "count", 10, "Maximum search results")
	cmd.Flags().BoolVar(&bestOnlyFlag, "best-only", true, "Only the best quality per provider and type")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by monetization type (FLATRATE, RENT, BUY, FREE, ADS, CINEMA)")
	cmd.Flags().IntSliceVar(&providerFlags, "provider-id", nil, "Only show these provider IDs (repeatable)")
	return cmd
}

// pickCandidate prefers an exact year hit and otherwise takes the first
// search result.
func pickCandidate(candidates []catalog.Candidate, year int) catalog.Candidate {
	if year > 0 {
		for _, candidate := range candidates {
			if candidate.Year() == year {
				return candidate
			}
		}
	}
	return candidates[0]
}

func offerRows(raw []catalog.RawOffer, monetization string, providerIDs []int) [][]string {
	monetization = strings.ToUpper(strings.TrimSpace(monetization))
	allowed := make(map[int64]bool, len(providerIDs))
	for _, id := range providerIDs {
		allowed[int64(id)] = true
	}

	rows := make([][]string, 0, len(raw))
	for _, rec := range raw {
		kind := strings.ToUpper(rec.String("monetizationType", "monetization_type"))
		if monetization != "" && kind != monetization {
			continue
		}

		var providerID int64
		providerName := "Unknown"
		if pkg := rec.Child("package"); pkg != nil {
			providerID, _ = pkg.Int64("packageId", "package_id", "id")
			if name := pkg.String("clearName", "name"); name != "" {
				providerName = name
			}
		}
		if len(allowed) > 0 && !allowed[providerID] {
			continue
		}

		quality := rec.String("presentationType", "presentation_type")
		if quality == "" {
			quality = "-"
		}
		rows = append(rows, []string{
			kind,
			quality,
			priceOf(rec),
			providerName,
			strconv.FormatInt(providerID, 10),
			rec.String("standardWebURL", "deeplinkURL", "url"),
		})
	}
	return rows
}

func priceOf(rec catalog.RawOffer) string {
	value, ok := rec["retailPriceValue"].(float64)
	if !ok || value <= 0 {
		return ""
	}
	currency := rec.String("currency")
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", value, currency))
}
