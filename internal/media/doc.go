// Package media parses structured hints out of release-style media filenames:
// title, year, season/episode markers, and resolution tags. It also knows
// which file extensions count as media files for candidate scanning.
package media
