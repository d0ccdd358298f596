// Package textutil provides text processing utilities for title similarity
// and filename sanitization.
//
// The primary use cases are:
//   - Computing a case-insensitive similarity ratio between a parsed title and
//     a provider title (drives the confidence gate)
//   - Sanitizing filenames and path segments for safe cross-platform use
//
// The similarity ratio follows the classic longest-matching-subsequence
// formula: 2*M / (len(a)+len(b)), where M is the total length of matching
// blocks. Identical strings score 1.0 and strings with no characters in
// common score 0.0.
package textutil
