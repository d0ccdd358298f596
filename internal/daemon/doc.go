// Package daemon assembles the long-running service: event intake from the
// chat transport, the admission scheduler and processing pipeline, the
// interactive dialogs, periodic maintenance jobs, and the local control API.
// A lock file enforces a single instance per log directory.
package daemon
