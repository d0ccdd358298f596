// Package services holds cross-cutting service plumbing: the error taxonomy
// used to classify stage failures and context carriers for structured log
// enrichment.
package services
