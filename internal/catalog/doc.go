// Package catalog provides the minimal JustWatch GraphQL client used for
// title search and streaming-offer lookups.
//
// Search returns typed candidates with release-year fallback parsing; offer
// lookups return the raw semi-structured nodes per country, leaving canonical
// shaping to the offers package. Per-country offer failures degrade to an
// empty set with the error surfaced for logging, so one bad region never
// poisons a whole batch. Options allow tests to supply custom HTTP clients.
package catalog
