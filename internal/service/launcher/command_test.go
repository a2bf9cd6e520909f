package launcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lilith-launcher/internal/release"
)

// releaseServer serves release metadata and a shell-script artifact, counting artifact downloads.
func releaseServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var (
		downloads atomic.Int32
		script    = []byte("#!/bin/sh\nexit 0\n")
		mux       = http.NewServeMux()
		ts        = httptest.NewServer(mux)
	)

	mux.HandleFunc("/versions/latest", func(w http.ResponseWriter, _ *http.Request) {
		artifactURL := ts.URL + "/builds/lilith-4.2.0"
		_, _ = fmt.Fprintf(w, `{"version":"4.2.0","name":"Nightfall","changelog":"- faster startup",
			"download":{"windows":%[1]q,"linux":%[1]q,"macos":%[1]q},
			"sizes":{"windows":%[2]d,"linux":%[2]d,"macos":%[2]d}}`, artifactURL, len(script))
	})

	mux.HandleFunc("/builds/lilith-4.2.0", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Lilith Launcher v4" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		downloads.Add(1)

		_, _ = w.Write(script)
	})

	t.Cleanup(ts.Close)

	return ts, &downloads
}

// TestRun_EndToEnd downloads, marks and starts the artifact, then reuses it on the next run.
//
//nolint:paralleltest // Overrides HOME for the data directory.
func TestRun_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the test artifact is a shell script")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)

	ts, downloads := releaseServer(t)

	configPath := filepath.Join(t.TempDir(), "launcher.yaml")
	settings := fmt.Sprintf("versions_url: %s/versions/latest\ntimeout: 10s\n", ts.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0o600))

	opts := &Options{ConfigPath: configPath}

	require.NoError(t, Run(context.Background(), opts))

	path := filepath.Join(home, "lilith", "lilith-4.2.0")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o100, "artifact must be executable")
	require.Equal(t, int32(1), downloads.Load())

	require.NoError(t, Run(context.Background(), opts))
	require.Equal(t, int32(1), downloads.Load())
}

// TestRun_VersionEndpointDown fails without creating an artifact.
//
//nolint:paralleltest // Overrides HOME for the data directory.
func TestRun_VersionEndpointDown(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/versions/latest"
	ts.Close()

	configPath := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("versions_url: "+endpoint+"\n"), 0o600))

	err := Run(context.Background(), &Options{ConfigPath: configPath})
	require.ErrorIs(t, err, release.ErrFetch)
	require.DirExists(t, filepath.Join(home, "lilith"))

	entries, err := os.ReadDir(filepath.Join(home, "lilith"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestRun_BadLogLevel rejects an unknown override before doing any work.
func TestRun_BadLogLevel(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{LogLevel: "chatty"})
	require.Error(t, err)
}
