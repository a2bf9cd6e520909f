// Package artifact maps releases to files in the launcher's data directory.
//
// An artifact is named after the last segment of its download URL, so a new
// URL means a new file. The same URL serving new content is not detected.
package artifact
