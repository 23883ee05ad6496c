package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lbxwatch/internal/config"
	"lbxwatch/internal/store"
)

// newImportCommand loads a Letterboxd-style CSV export (Date, Name, Year,
// Letterboxd URI columns) into source_rows. Row ids follow the file's line
// order, so re-importing the same export is an upsert.
func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <watchlist|diary> <file.csv>",
		Short: "Import an exported watchlist or diary CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := sourceOf(args[0])
			if err != nil {
				return err
			}

			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer file.Close()

			rows, skipped, err := parseExport(source, file)
			if err != nil {
				return err
			}

			return ctx.withStore(func(_ *config.Config, logger *slog.Logger, st *store.Store) error {
				count, err := st.UpsertSourceRows(cmd.Context(), rows, time.Now().UTC())
				if err != nil {
					return err
				}
				logger.Info("import finished",
					slog.String("source", source),
					slog.Int("imported", count),
					slog.Int("skipped", skipped))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into %s (%d skipped)\n", count, source, skipped)
				return nil
			})
		},
	}
}

func sourceOf(arg string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "watchlist":
		return store.SourceWatchlist, nil
	case "diary":
		return store.SourceDiary, nil
	default:
		return "", fmt.Errorf("unknown source %q: expected watchlist or diary", arg)
	}
}

// parseExport reads the CSV, locating the Name and Year columns from the
// header. Rows without a name are skipped, matching how the rest of the
// pipeline treats titleless rows.
func parseExport(source string, r io.Reader) ([]store.SourceRow, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	nameIdx, yearIdx := -1, -1
	for i, column := range header {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case "name":
			nameIdx = i
		case "year":
			yearIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, 0, fmt.Errorf("export has no Name column")
	}

	var (
		rows    []store.SourceRow
		skipped int
		rowID   int64
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		rowID++

		title := ""
		if nameIdx < len(record) {
			title = cleanTitle(record[nameIdx])
		}
		if title == "" {
			skipped++
			continue
		}

		year := 0
		if yearIdx >= 0 && yearIdx < len(record) {
			if parsed, err := strconv.Atoi(strings.TrimSpace(record[yearIdx])); err == nil {
				year = parsed
			}
		}
		rows = append(rows, store.SourceRow{Source: source, RowID: rowID, Title: title, Year: year})
	}
	return rows, skipped, nil
}

// cleanTitle trims the exported name and re-cases single-case titles (all
// upper or all lower exports) into title case; mixed-case names pass through
// untouched.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return ""
	}
	if isSingleCase(title) {
		return cases.Title(language.Und).String(strings.ToLower(title))
	}
	return title
}

func isSingleCase(value string) bool {
	hasUpper, hasLower := false, false
	for _, r := range value {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper != hasLower
}
