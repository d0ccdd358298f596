// Package stats accumulates transfer outcome counters and periodically
// flushes them to the document store.
package stats
