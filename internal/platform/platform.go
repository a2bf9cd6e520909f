package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Platform is the platform selector: the release flavour this launcher consumes.
type Platform string

const (
	// Windows selects the Windows build.
	Windows Platform = "windows"
	// Linux selects the Linux build.
	Linux Platform = "linux"
	// MacOS selects the macOS build.
	MacOS Platform = "macos"
)

// Triple holds one value per platform, shaped like the release metadata.
type Triple[T any] struct {
	// Windows is the value for the Windows build.
	Windows T `json:"windows"`
	// Linux is the value for the Linux build.
	Linux T `json:"linux"`
	// MacOS is the value for the macOS build.
	MacOS T `json:"macos"`
}

// Current returns the selector for the running operating system.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to a selector. Anything that is neither
// Windows nor Darwin gets the Linux build.
func FromGOOS(goos string) Platform {
	switch strings.ToLower(goos) {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	default:
		return Linux
	}
}

// Select picks the value of t belonging to p.
func Select[T any](p Platform, t Triple[T]) T {
	switch p {
	case Windows:
		return t.Windows
	case MacOS:
		return t.MacOS
	default:
		return t.Linux
	}
}

// RequiresExecutableMark reports whether a freshly downloaded artifact
// needs its execute bits set before it can be spawned.
func (p Platform) RequiresExecutableMark() bool {
	return p != Windows
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// Describe renders the host for diagnostics, e.g. "ubuntu 24.04 (x86_64)".
// Host detection failures fall back to GOOS/GOARCH.
func Describe(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil || info.Platform == "" {
		return runtime.GOOS + "/" + runtime.GOARCH
	}

	return fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
}
