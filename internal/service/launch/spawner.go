package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/oshokin/lilith-launcher/internal/logger"
)

// ExecSpawner runs processes with os/exec, wired to this process's stdio.
type ExecSpawner struct{}

// Spawn starts path with args and waits for it. Only a failure to start
// the process is returned as an error; a non-zero exit becomes the exit code.
//
// The child is not bound to ctx: it shares the terminal and handles
// Ctrl+C itself, and the launcher waits for it to finish.
func (ExecSpawner) Spawn(ctx context.Context, path string, args ...string) (int, error) {
	//nolint:gosec,noctx // Running the downloaded artifact is the whole point.
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	logger.WarnKV(ctx, "Waiting for process failed", "path", path, "error", err)

	return -1, nil
}
