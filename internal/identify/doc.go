// Package identify turns filenames into library classifications. A filename
// is parsed for structural hints, resolved against the metadata provider, and
// scored through a two-threshold confidence gate that decides between
// rejecting the match, keeping the original name, and renaming to the
// provider's canonical title.
package identify
