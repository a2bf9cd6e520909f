package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/lilith-launcher/internal/console"
	"github.com/oshokin/lilith-launcher/internal/logger"
	"github.com/oshokin/lilith-launcher/internal/platform"
	"github.com/oshokin/lilith-launcher/internal/release"
	"github.com/oshokin/lilith-launcher/internal/service/launch"
)

// errIncomplete is returned when an Orchestrator is missing a collaborator.
var errIncomplete = errors.New("orchestrator is not fully configured")

// VersionFetcher loads the latest release metadata.
type VersionFetcher interface {
	FetchLatest(ctx context.Context) (*release.Metadata, error)
}

// ArtifactStore knows where artifacts live and whether they are present.
type ArtifactStore interface {
	EnsureDir() error
	ResolvePath(metadata *release.Metadata, p platform.Platform) (string, error)
	Exists(path string) (bool, error)
}

// ArtifactDownloader fetches an artifact to a destination that must not exist yet.
type ArtifactDownloader interface {
	Download(ctx context.Context, metadata *release.Metadata, p platform.Platform, destination string) error
}

// ArtifactLauncher runs an artifact.
type ArtifactLauncher interface {
	Launch(ctx context.Context, path string) (*launch.Outcome, error)
}

// Orchestrator sequences one launcher run:
// version check, presence check, optional download, launch.
type Orchestrator struct {
	// Console shows progress to the user.
	Console *console.Console
	// Platform is resolved once per run.
	Platform platform.Platform
	// Fetcher loads release metadata.
	Fetcher VersionFetcher
	// Store resolves and checks artifact paths.
	Store ArtifactStore
	// Downloader fetches missing artifacts.
	Downloader ArtifactDownloader
	// Launcher runs the artifact.
	Launcher ArtifactLauncher

	// bar is the download bar of the current download, if any.
	bar *console.Bar
}

// Run performs the launch sequence and returns the launch outcome.
func (o *Orchestrator) Run(ctx context.Context) (*launch.Outcome, error) {
	if o.Console == nil || o.Fetcher == nil || o.Store == nil || o.Downloader == nil || o.Launcher == nil {
		return nil, errIncomplete
	}

	o.Console.Banner()

	if err := o.Store.EnsureDir(); err != nil {
		return nil, err
	}

	metadata, err := o.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get the latest version: %w", err)
	}

	path, err := o.Store.ResolvePath(metadata, o.Platform)
	if err != nil {
		return nil, err
	}

	found, err := o.Store.Exists(path)
	if err != nil {
		return nil, err
	}

	if found {
		logger.InfoKV(ctx, "Artifact already present, skipping download", "path", path, "version", metadata.Version)
	} else if err = o.download(ctx, metadata, path); err != nil {
		return nil, err
	}

	return o.Launcher.Launch(ctx, path)
}

// Progress forwards download progress to the current download bar.
func (o *Orchestrator) Progress(percent uint64) {
	if o.bar != nil {
		o.bar.Update(percent)
	}
}

// fetch loads metadata behind a spinner.
func (o *Orchestrator) fetch(ctx context.Context) (*release.Metadata, error) {
	spinner := o.Console.Spinner("Checking Lilith version")
	defer spinner.Stop()

	return o.Fetcher.FetchLatest(ctx)
}

// download announces the new release and fetches it behind a progress bar.
func (o *Orchestrator) download(ctx context.Context, metadata *release.Metadata, path string) error {
	o.Console.Say("A new version of Lilith is available: %s", o.Console.Underline(metadata.Name))
	o.Console.Say("This update brings these changes to Lilith:\n%s", metadata.Changelog)

	o.bar = o.Console.DownloadBar(metadata.Version)

	err := o.Downloader.Download(ctx, metadata, o.Platform, path)

	o.bar.Finish()
	o.bar = nil

	if err != nil {
		return err
	}

	o.Console.Say("Downloaded Lilith v%s", metadata.Version)

	return nil
}
