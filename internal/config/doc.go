// Package config loads, validates, and defaults the TOML configuration used
// by the shelve daemon and CLI. A missing config file is not an error; the
// repository defaults apply and individual keys override them.
package config
