package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oshokin/lilith-launcher/internal/logger"
	"github.com/oshokin/lilith-launcher/internal/platform"
	"github.com/oshokin/lilith-launcher/internal/release"
)

const (
	// chunkSize is the size of a single read from the response body.
	chunkSize = 32 * 1024

	// artifactPermissions is the mode a new artifact file is created with.
	artifactPermissions os.FileMode = 0o644
)

var (
	// ErrDownload marks every failure to fetch or store the artifact.
	ErrDownload = errors.New("download artifact")
	// ErrUnexpectedStatus is returned when the download server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// ErrExecutableMark is returned when the artifact cannot be made executable.
	ErrExecutableMark = errors.New("mark artifact executable")
)

// ProgressFunc receives the integer percentage after every written chunk.
type ProgressFunc func(percent uint64)

// HTTPClient is the subset of *http.Client the downloader needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Marker makes a file executable.
type Marker interface {
	MarkExecutable(ctx context.Context, path string) error
}

// MarkerFunc adapts a plain function to Marker.
type MarkerFunc func(ctx context.Context, path string) error

// MarkExecutable calls f.
func (f MarkerFunc) MarkExecutable(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Downloader streams artifacts from the download server to disk.
type Downloader struct {
	// httpClient performs the request.
	httpClient HTTPClient
	// userAgent identifies the launcher to the server.
	userAgent string
	// marker sets execute bits on platforms that need them.
	marker Marker
	// progress is notified after every chunk; may be nil.
	progress ProgressFunc
}

// Option configures the downloader.
type Option func(*Downloader)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(d *Downloader) {
		if httpClient != nil {
			d.httpClient = httpClient
		}
	}
}

// WithMarker replaces the default chmod-based marker.
func WithMarker(marker Marker) Option {
	return func(d *Downloader) {
		if marker != nil {
			d.marker = marker
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(progress ProgressFunc) Option {
	return func(d *Downloader) {
		d.progress = progress
	}
}

// New creates a downloader that identifies itself with userAgent.
func New(userAgent string, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		userAgent:  userAgent,
		marker:     MarkerFunc(ChmodExecutable),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Download fetches the artifact of p into destination.
//
// The destination must not exist; it is never overwritten. A non-2xx
// response writes nothing and returns ErrUnexpectedStatus. A failure in the
// middle of the stream leaves the partial file behind.
func (d *Downloader) Download(
	ctx context.Context,
	metadata *release.Metadata,
	p platform.Platform,
	destination string,
) error {
	var (
		sourceURL = metadata.DownloadURL(p)
		total     = metadata.Size(p)
	)

	logger.DebugKV(ctx, "Downloading artifact",
		"url", sourceURL, "destination", destination, "expected_bytes", total)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	response, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %w: %s, %s", ErrDownload, ErrUnexpectedStatus, sourceURL, response.Status)
	}

	written, err := d.writeNew(ctx, destination, response.Body, total)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	if written != total {
		logger.WarnKV(ctx, "Downloaded size differs from the published size",
			"expected_bytes", total, "written_bytes", written)
	}

	if !p.RequiresExecutableMark() {
		return nil
	}

	if err = d.marker.MarkExecutable(ctx, destination); err != nil {
		return fmt.Errorf("%w: please run chmod +x %s: %w", ErrExecutableMark, destination, err)
	}

	return nil
}

// writeNew creates destination exclusively and copies body into it chunk by chunk.
func (d *Downloader) writeNew(ctx context.Context, destination string, body io.Reader, total uint64) (uint64, error) {
	file, err := os.OpenFile(filepath.Clean(destination), os.O_WRONLY|os.O_CREATE|os.O_EXCL, artifactPermissions)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", destination, err)
	}

	var (
		buffer     = make([]byte, chunkSize)
		downloaded uint64
	)

	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err = file.Write(buffer[:n]); err != nil {
				_ = file.Close()

				return downloaded, fmt.Errorf("write %s: %w", destination, err)
			}

			downloaded += uint64(n)
			d.report(Percent(downloaded, total))
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			_ = file.Close()

			return downloaded, fmt.Errorf("read body: %w", readErr)
		}
	}

	if err = file.Close(); err != nil {
		return downloaded, fmt.Errorf("close %s: %w", destination, err)
	}

	logger.DebugKV(ctx, "Artifact written", "path", destination, "bytes", downloaded)

	return downloaded, nil
}

// report forwards percent to the progress callback, if any.
func (d *Downloader) report(percent uint64) {
	if d.progress != nil {
		d.progress(percent)
	}
}

// Percent returns floor(downloaded*100/total). The result is truncated,
// not rounded; a zero total counts as complete.
func Percent(downloaded, total uint64) uint64 {
	if total == 0 {
		return 100
	}

	return downloaded * 100 / total
}
