// Package pipeline is the automatic post-download path: classify the file,
// score the match, and either place it in the library, route it to the
// fallback directory for manual handling, or record the failure.
package pipeline
