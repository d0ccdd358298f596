// Package tmdb implements a minimal client for The Movie Database API:
// movie/TV title search plus the per-title keyword lookup used for anime
// tagging.
package tmdb
