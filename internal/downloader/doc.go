// Package downloader owns the transfer lifecycle: per-transfer task state
// machines and the bounded-concurrency admission scheduler that starts,
// queues, cancels, promotes, and drains them. Progress notifications to the
// requesting chat are rate-limited per size class.
package downloader
