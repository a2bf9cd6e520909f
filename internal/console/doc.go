// Package console draws what the user sees while the launcher works: the
// banner, "Launcher »" messages, a spinner during the version check and a
// percentage bar during the download.
package console
