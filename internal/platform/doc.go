// Package platform resolves which release flavour (windows, linux, macos)
// the launcher works with.
//
// The selector is computed once per run and threaded through the release,
// download and launch steps, so per-platform branching lives here only.
package platform
