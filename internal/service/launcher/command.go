package launcher

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/oshokin/lilith-launcher/internal/config"
	"github.com/oshokin/lilith-launcher/internal/console"
	"github.com/oshokin/lilith-launcher/internal/logger"
	"github.com/oshokin/lilith-launcher/internal/platform"
	"github.com/oshokin/lilith-launcher/internal/release"
	"github.com/oshokin/lilith-launcher/internal/repository/artifact"
	"github.com/oshokin/lilith-launcher/internal/service/download"
	"github.com/oshokin/lilith-launcher/internal/service/launch"
)

// Options are inputs accepted by the launcher entry point.
type Options struct {
	// ConfigPath is the optional settings file; empty means built-in defaults.
	ConfigPath string
	// LogLevel overrides the level from the settings when not empty.
	LogLevel string
	// Args are handed to the launcher when it relaunches itself.
	Args []string
	// Colors enables the clear-screen banner and ANSI colours.
	Colors bool
}

// Run executes one launcher run and is the public entry point for the CLI.
// A relaunched launcher that exits non-zero yields a *launch.ExitCodeError.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name and run id for tracking.
	ctx = logger.WithName(ctx, "lilith-launcher")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = applyLogLevel(cfg, opts.LogLevel); err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(ctx, cfg, opts)
	if err != nil {
		return err
	}

	outcome, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Launcher finished", "state", outcome.State.String(), "exit_code", outcome.ExitCode)

	if outcome.State == launch.StateRelaunched && outcome.ExitCode != 0 {
		return &launch.ExitCodeError{Code: outcome.ExitCode}
	}

	return nil
}

// applyLogLevel switches the global level to override or to the configured one.
func applyLogLevel(cfg *config.Config, override string) error {
	level := cfg.LogLevel
	if override != "" {
		level = override
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	logger.SetLevel(parsed)

	return nil
}

// newOrchestrator wires the real collaborators from cfg.
func newOrchestrator(ctx context.Context, cfg *config.Config, opts *Options) (*Orchestrator, error) {
	selected := platform.Current()
	logger.DebugKV(ctx, "Platform resolved", "platform", selected.String(), "host", platform.Describe(ctx))

	dataDir, err := artifact.DataDir(cfg.DataDirName)
	if err != nil {
		return nil, err
	}

	// Zero timeout keeps the historical behaviour: wait as long as the server takes.
	httpClient := &http.Client{Timeout: cfg.Timeout}

	client, err := release.NewClient(cfg.VersionsURL, release.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	var (
		store = artifact.NewStore(dataDir)
		con   = console.New(os.Stdout, opts.Colors)
	)

	orchestrator := &Orchestrator{
		Console:  con,
		Platform: selected,
		Fetcher:  client,
		Store:    store,
	}

	orchestrator.Downloader = download.New(cfg.UserAgent,
		download.WithHTTPClient(httpClient),
		download.WithProgress(orchestrator.Progress),
	)

	orchestrator.Launcher = launch.New(store,
		launch.WithArgs(opts.Args),
		launch.WithMaxDepth(cfg.MaxRelaunchDepth),
		launch.WithOnCorrupted(func(string) {
			con.Say("Your Lilith installation is corrupted, relaunching.")
		}),
	)

	return orchestrator, nil
}
