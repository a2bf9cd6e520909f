// Package launcher is the launcher's main flow.
//
// It checks the versions endpoint, downloads the artifact when the local
// data directory does not have it yet, and hands over to the launch
// package, which starts the artifact or recovers from a corrupted install.
package launcher
