// Package placement turns classifications into library destinations and
// performs the actual file moves. Resolution and moving are split so the
// interactive organizer can reuse the move machinery with its own naming.
package placement
