// Package organize is the manual fallback path: an interactive dialog that
// walks a user through categorizing a file the automatic pipeline could not
// place, and a bulk mode that propagates one confirmed classification to the
// following episodes of the same series.
package organize
