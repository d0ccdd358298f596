// Package watcher notices media files dropped into the download directory
// by hand, debounced until writes settle.
package watcher
