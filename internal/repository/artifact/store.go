package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/lilith-launcher/internal/platform"
	"github.com/oshokin/lilith-launcher/internal/release"
)

// DirectoryPermissions is the mode of a freshly created data directory.
const DirectoryPermissions os.FileMode = 0o755

var (
	// ErrDirectory marks failures to create or use the data directory.
	ErrDirectory = errors.New("data directory unavailable")
	// ErrInvalidArtifactName is returned when a download URL does not end in a usable file name.
	ErrInvalidArtifactName = errors.New("download url does not name a file")
)

// Store keeps downloaded artifacts in a single directory.
type Store struct {
	// dir is the absolute data directory.
	dir string
}

// DataDir returns the data directory named name under the user's home.
func DataDir(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: locate home directory: %w", ErrDirectory, err)
	}

	return filepath.Join(home, name), nil
}

// NewStore creates a store rooted at dir. The directory is not touched until EnsureDir.
func NewStore(dir string) *Store {
	return &Store{
		dir: filepath.Clean(dir),
	}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the data directory. An existing directory is not an error.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, DirectoryPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	return nil
}

// ResolvePath derives where the artifact of p lives: the data directory
// joined with the last "/" segment of the platform's download URL.
// It does no I/O.
func (s *Store) ResolvePath(metadata *release.Metadata, p platform.Platform) (string, error) {
	name, err := FileName(metadata.DownloadURL(p))
	if err != nil {
		return "", err
	}

	return filepath.Join(s.dir, name), nil
}

// Exists reports whether path is present. Errors other than "not exist" are returned.
func (s *Store) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("check artifact %s: %w", path, err)
}

// Remove deletes the artifact at path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact %s: %w", path, err)
	}

	return nil
}

// FileName returns the final "/"-delimited segment of rawURL.
// Query and fragment are not stripped; release URLs are expected to be plain.
func FileName(rawURL string) (string, error) {
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]

	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%q: %w", rawURL, ErrInvalidArtifactName)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return "", fmt.Errorf("%q: %w", rawURL, ErrInvalidArtifactName)
	}

	return name, nil
}
