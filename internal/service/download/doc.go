// Package download streams a release artifact from the download server into
// the data directory.
//
// Progress is reported as a truncated percentage after every chunk, and on
// Linux and macOS the finished file gets its execute bits.
package download
