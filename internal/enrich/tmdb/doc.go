// Package tmdb implements a minimal TMDb API client: title search by media
// type and the detail bundle with external ids and credits appended.
package tmdb
