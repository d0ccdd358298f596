// Package session stores transient per-user dialog state with TTL expiry.
// Expiry is checked on access; a read that finds an expired session evicts
// it and reports it absent. Every successful update refreshes the deadline.
package session
