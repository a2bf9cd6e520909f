package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oshokin/lilith-launcher/internal/console"
	"github.com/oshokin/lilith-launcher/internal/service/launch"
	"github.com/oshokin/lilith-launcher/internal/service/launcher"
	"github.com/oshokin/lilith-launcher/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd checks for a new Lilith build, downloads it and starts it.
	rootCmd = &cobra.Command{
		Use:   "lilith-launcher",
		Short: "Keep Lilith up to date and start it.",
		Long: `Checks the versions endpoint for the latest Lilith release, downloads it
into ~/lilith when it is not there yet, and starts it.

If the downloaded build cannot be started it is deleted and the launcher
runs itself again to fetch a fresh copy.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &launcher.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
				Args:       os.Args[1:],
				Colors:     term.IsTerminal(int(os.Stdout.Fd())),
			}

			return launcher.Run(ctx, options)
		},
	}
)

// Execute runs the launcher CLI. Fatal errors are printed to the console and
// exit with status 1; a relaunched launcher's exit code is passed through.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitCodeErr *launch.ExitCodeError
	if errors.As(err, &exitCodeErr) {
		os.Exit(exitCodeErr.Code)
	}

	console.New(os.Stderr, false).Say("%v", err)
	os.Exit(1)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to an optional configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}
