package release

import "github.com/oshokin/lilith-launcher/internal/platform"

// Metadata describes the latest published release.
type Metadata struct {
	// Version is the release version, e.g. "4.2.0".
	Version string `json:"version"`
	// Name is the human-readable release name.
	Name string `json:"name"`
	// Changelog lists the changes shipped with the release.
	Changelog string `json:"changelog"`
	// Download holds the artifact URL per platform.
	Download platform.Triple[string] `json:"download"`
	// Sizes holds the artifact size in bytes per platform.
	Sizes platform.Triple[uint64] `json:"sizes"`
}

// DownloadURL returns the artifact URL for p.
func (m *Metadata) DownloadURL(p platform.Platform) string {
	return platform.Select(p, m.Download)
}

// Size returns the expected artifact size in bytes for p.
func (m *Metadata) Size(p platform.Platform) uint64 {
	return platform.Select(p, m.Sizes)
}
