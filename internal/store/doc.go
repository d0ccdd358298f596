// Package store persists the daemon's documents in SQLite: the requester
// allow-list, immutable placement records, processing-failure context, and
// aggregate stats payloads. It survives process restarts; everything else in
// the system is reconstructable or transient.
package store
