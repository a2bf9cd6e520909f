// Package launch starts the downloaded artifact and handles a corrupted
// install.
//
// When the artifact cannot be spawned it is deleted and the launcher runs
// itself again as a child process, so the next attempt starts from a clean
// process with a fresh download. A walk over the parent processes bounds
// how many generations may do this in a row.
package launch
