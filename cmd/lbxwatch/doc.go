// Command lbxwatch maintains a personal streaming-availability database:
// import exported watchlist/diary CSVs, map them against the JustWatch
// catalog, track per-provider offer history, and enrich matches with TMDb
// and OMDb details.
package main
