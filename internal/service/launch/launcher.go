package launch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/lilith-launcher/internal/logger"
	"github.com/oshokin/lilith-launcher/internal/platform"
)

// ConfirmationFlag tells the artifact it was started by the launcher,
// so it skips its own first-run confirmation.
const ConfirmationFlag = "--iknowwhatimdoing"

// State is where a launch attempt ended.
type State int

const (
	// StateSuccess means the artifact was spawned and has exited.
	StateSuccess State = iota + 1
	// StateRelaunched means the artifact could not be spawned, was removed,
	// and a fresh launcher process ran to completion.
	StateRelaunched
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateRelaunched:
		return "relaunched"
	default:
		return "unknown"
	}
}

var (
	// ErrRemoveArtifact is returned when a corrupted artifact cannot be deleted.
	ErrRemoveArtifact = errors.New("remove corrupted artifact")
	// ErrRelaunch is returned when the launcher cannot start itself again.
	ErrRelaunch = errors.New("relaunch launcher")
	// ErrRelaunchLimit is returned when too many launcher generations already relaunched.
	ErrRelaunchLimit = errors.New("relaunch limit reached")
)

// Outcome is the result of Launch.
type Outcome struct {
	// State is the terminal state of the attempt.
	State State
	// ExitCode is the exit code of the last process waited for. It is
	// recorded for the caller and never used to decide anything here.
	ExitCode int
}

// Spawner starts a process and waits for it.
// It returns an error only when the process could not be started.
type Spawner interface {
	Spawn(ctx context.Context, path string, args ...string) (int, error)
}

// Remover deletes an artifact; a missing file is not an error.
type Remover interface {
	Remove(path string) error
}

// Launcher runs the artifact and recovers from a corrupted install.
type Launcher struct {
	// spawner starts the artifact and the launcher itself.
	spawner Spawner
	// remover deletes the corrupted artifact.
	remover Remover
	// executable returns the launcher's own executable path.
	executable func() (string, error)
	// depth returns how many ancestors of this process are the launcher itself.
	depth func() (int, error)
	// args are passed to the relaunched launcher.
	args []string
	// maxDepth is the number of launcher generations allowed to relaunch in a row.
	maxDepth int
	// onCorrupted is told about a corrupted artifact before it is removed.
	onCorrupted func(path string)
}

// Option configures the launcher.
type Option func(*Launcher)

// WithSpawner replaces the os/exec spawner.
func WithSpawner(spawner Spawner) Option {
	return func(l *Launcher) {
		if spawner != nil {
			l.spawner = spawner
		}
	}
}

// WithExecutable replaces os.Executable as the source of the relaunch path.
func WithExecutable(executable func() (string, error)) Option {
	return func(l *Launcher) {
		if executable != nil {
			l.executable = executable
		}
	}
}

// WithDepth replaces the process-tree lookup of the relaunch depth.
func WithDepth(depth func() (int, error)) Option {
	return func(l *Launcher) {
		if depth != nil {
			l.depth = depth
		}
	}
}

// WithArgs sets the arguments the relaunched launcher receives.
func WithArgs(args []string) Option {
	return func(l *Launcher) {
		l.args = append([]string(nil), args...)
	}
}

// WithMaxDepth limits consecutive relaunches.
func WithMaxDepth(maxDepth int) Option {
	return func(l *Launcher) {
		if maxDepth >= 0 {
			l.maxDepth = maxDepth
		}
	}
}

// WithOnCorrupted registers a callback run before a corrupted artifact is removed.
func WithOnCorrupted(onCorrupted func(path string)) Option {
	return func(l *Launcher) {
		l.onCorrupted = onCorrupted
	}
}

// New creates a launcher that deletes corrupted artifacts through remover.
func New(remover Remover, opts ...Option) *Launcher {
	l := &Launcher{
		spawner:    ExecSpawner{},
		remover:    remover,
		executable: os.Executable,
		depth:      SelfDepth,
		maxDepth:   defaultMaxDepth,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Launch runs the artifact at path with ConfirmationFlag and waits for it.
//
// If the artifact cannot be spawned the install is treated as corrupted:
// the file is removed, then the launcher re-runs itself as a child process
// and waits for it. The artifact's exit code is never inspected.
// A canceled ctx is never treated as a corrupted install.
func (l *Launcher) Launch(ctx context.Context, path string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", path, err)
	}

	logger.InfoKV(ctx, "Starting artifact", "path", path)

	exitCode, err := l.spawner.Spawn(ctx, path, ConfirmationFlag)
	if err == nil {
		logger.DebugKV(ctx, "Artifact exited", "exit_code", exitCode)

		return &Outcome{State: StateSuccess, ExitCode: exitCode}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("launch %s: %w", path, ctxErr)
	}

	logger.WarnKV(ctx, "Artifact could not be started", "path", path, "error", err)

	return l.recover(ctx, path)
}

// recover removes the corrupted artifact and relaunches the launcher.
func (l *Launcher) recover(ctx context.Context, path string) (*Outcome, error) {
	if l.onCorrupted != nil {
		l.onCorrupted(path)
	}

	if err := l.remover.Remove(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoveArtifact, err)
	}

	depth, err := l.depth()
	if err != nil {
		logger.WarnKV(ctx, "Unable to inspect the process tree", "error", err)
	}

	if depth >= l.maxDepth {
		return nil, fmt.Errorf("%w: %d launcher generations in a row", ErrRelaunchLimit, depth)
	}

	self, err := l.executable()
	if err != nil {
		return nil, fmt.Errorf("%w: locate executable: %w", ErrRelaunch, err)
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelaunch, err)
	}

	logger.WarnKV(ctx, "Relaunching", "executable", self, "depth", depth+1, "host", platform.Describe(ctx))

	exitCode, err := l.spawner.Spawn(ctx, self, l.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelaunch, err)
	}

	return &Outcome{State: StateRelaunched, ExitCode: exitCode}, nil
}

// ExitCodeError carries a non-zero exit code of the relaunched launcher up to main.
type ExitCodeError struct {
	// Code is the exit code to forward.
	Code int
}

// Error implements error.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("relaunched launcher exited with code %d", e.Code)
}
