// Package config defines the launcher settings and loads them from an
// optional YAML file.
//
// Without a file the built-in defaults apply: the local versions endpoint,
// the "lilith" data directory and no network timeout.
package config
