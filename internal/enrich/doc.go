// Package enrich backfills film_details for resolved mappings using TMDb
// metadata and optional OMDb box-office figures.
package enrich
