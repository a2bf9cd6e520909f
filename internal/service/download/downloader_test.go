package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lilith-launcher/internal/platform"
	"github.com/oshokin/lilith-launcher/internal/release"
)

const testUserAgent = "Lilith Launcher v4"

var errChmodDenied = errors.New("operation not permitted")

// artifactServer serves body on every path and records the User-Agent it saw.
func artifactServer(t *testing.T, status int, body []byte) (*httptest.Server, *atomic.Value) {
	t.Helper()

	userAgent := new(atomic.Value)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))

		w.WriteHeader(status)

		flusher, _ := w.(http.Flusher)

		// Send the body in pieces so the client sees several chunks.
		for start := 0; start < len(body); start += 10_000 {
			end := min(start+10_000, len(body))
			_, _ = w.Write(body[start:end])

			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(ts.Close)

	return ts, userAgent
}

// metadataFor points every platform at url with the given size.
func metadataFor(url string, size uint64) *release.Metadata {
	return &release.Metadata{
		Version:  "4.2.0",
		Download: platform.Triple[string]{Windows: url, Linux: url, MacOS: url},
		Sizes:    platform.Triple[uint64]{Windows: size, Linux: size, MacOS: size},
	}
}

// recordingMarker counts calls and returns err.
type recordingMarker struct {
	paths []string
	err   error
}

func (m *recordingMarker) MarkExecutable(_ context.Context, path string) error {
	m.paths = append(m.paths, path)

	return m.err
}

// TestDownload_WritesBodyAndReportsProgress checks content, header, progress and marking.
func TestDownload_WritesBodyAndReportsProgress(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("lilith"), 20_000)
	ts, userAgent := artifactServer(t, http.StatusOK, body)

	var (
		reports     []uint64
		marker      = new(recordingMarker)
		destination = filepath.Join(t.TempDir(), "lilith")
	)

	downloader := New(testUserAgent,
		WithMarker(marker),
		WithProgress(func(percent uint64) {
			reports = append(reports, percent)
		}),
	)

	err := downloader.Download(context.Background(), metadataFor(ts.URL+"/builds/lilith", uint64(len(body))),
		platform.Linux, destination)
	require.NoError(t, err)

	written, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, body, written)
	require.Equal(t, testUserAgent, userAgent.Load())

	require.GreaterOrEqual(t, len(reports), 2)
	require.IsNonDecreasing(t, reports)
	require.Equal(t, uint64(100), reports[len(reports)-1])

	require.Equal(t, []string{destination}, marker.paths)
}

// TestDownload_WindowsSkipsMarking never calls the marker for the Windows build.
func TestDownload_WindowsSkipsMarking(t *testing.T) {
	t.Parallel()

	body := []byte("MZ")
	ts, _ := artifactServer(t, http.StatusOK, body)

	marker := &recordingMarker{err: errChmodDenied}
	destination := filepath.Join(t.TempDir(), "lilith.exe")

	err := New(testUserAgent, WithMarker(marker)).
		Download(context.Background(), metadataFor(ts.URL+"/lilith.exe", 2), platform.Windows, destination)
	require.NoError(t, err)
	require.Empty(t, marker.paths)
}

// TestDownload_DoesNotOverwrite fails on an existing destination and keeps its contents.
func TestDownload_DoesNotOverwrite(t *testing.T) {
	t.Parallel()

	ts, _ := artifactServer(t, http.StatusOK, []byte("new contents"))

	destination := filepath.Join(t.TempDir(), "lilith")
	require.NoError(t, os.WriteFile(destination, []byte("old contents"), 0o600))

	err := New(testUserAgent, WithMarker(new(recordingMarker))).
		Download(context.Background(), metadataFor(ts.URL+"/lilith", 12), platform.Linux, destination)
	require.ErrorIs(t, err, ErrDownload)
	require.ErrorIs(t, err, os.ErrExist)

	contents, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, "old contents", string(contents))
}

// TestDownload_NonSuccessStatus writes nothing and reports the status as a download error.
func TestDownload_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	ts, _ := artifactServer(t, http.StatusNotFound, []byte("not found"))

	var reports []uint64

	destination := filepath.Join(t.TempDir(), "lilith")
	downloader := New(testUserAgent,
		WithMarker(new(recordingMarker)),
		WithProgress(func(percent uint64) {
			reports = append(reports, percent)
		}),
	)

	err := downloader.Download(context.Background(), metadataFor(ts.URL+"/lilith", 9), platform.Linux, destination)
	require.ErrorIs(t, err, ErrDownload)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	require.NoFileExists(t, destination)
	require.Empty(t, reports)
}

// TestDownload_MarkFailure returns ErrExecutableMark with the manual chmod hint.
func TestDownload_MarkFailure(t *testing.T) {
	t.Parallel()

	ts, _ := artifactServer(t, http.StatusOK, []byte("ELF"))

	destination := filepath.Join(t.TempDir(), "lilith")

	err := New(testUserAgent, WithMarker(&recordingMarker{err: errChmodDenied})).
		Download(context.Background(), metadataFor(ts.URL+"/lilith", 3), platform.MacOS, destination)
	require.ErrorIs(t, err, ErrExecutableMark)
	require.ErrorIs(t, err, errChmodDenied)
	require.Contains(t, err.Error(), "chmod +x "+destination)
}

// TestDownload_ConnectionRefused reports network failures as ErrDownload.
func TestDownload_ConnectionRefused(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL + "/lilith"
	ts.Close()

	destination := filepath.Join(t.TempDir(), "lilith")

	err := New(testUserAgent).Download(context.Background(), metadataFor(url, 1), platform.Linux, destination)
	require.ErrorIs(t, err, ErrDownload)
	require.NoFileExists(t, destination)
}

// TestChmodExecutable adds execute bits and keeps the rest of the mode.
func TestChmodExecutable(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("execute bits are not used on Windows")
	}

	path := filepath.Join(t.TempDir(), "lilith")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o640))

	require.NoError(t, ChmodExecutable(context.Background(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o751), info.Mode().Perm())

	require.Error(t, ChmodExecutable(context.Background(), filepath.Join(t.TempDir(), "missing")))
}

// TestPercent floors instead of rounding.
func TestPercent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		downloaded, total, want uint64
	}{
		{0, 200, 0},
		{1, 200, 0},
		{199, 200, 99},
		{200, 200, 100},
		{2, 3, 66},
		{0, 0, 100},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Percent(tc.downloaded, tc.total), "%d/%d", tc.downloaded, tc.total)
	}
}
