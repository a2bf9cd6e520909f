// Package version exposes build metadata for the launcher.
//
// Version, Commit and BuildTime are injected via ldflags. Major feeds the
// default User-Agent sent to the download server.
package version
