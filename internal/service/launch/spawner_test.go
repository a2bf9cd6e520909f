package launch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExecSpawner_MissingFile fails to start a path that does not exist.
func TestExecSpawner_MissingFile(t *testing.T) {
	t.Parallel()

	code, err := ExecSpawner{}.Spawn(context.Background(), filepath.Join(t.TempDir(), "lilith"), ConfirmationFlag)
	require.Error(t, err)
	require.Equal(t, -1, code)
}

// TestExecSpawner_NotExecutable fails to start a file without execute bits.
func TestExecSpawner_NotExecutable(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("execute bits are not used on Windows")
	}

	path := filepath.Join(t.TempDir(), "lilith")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o600))

	_, err := ExecSpawner{}.Spawn(context.Background(), path, ConfirmationFlag)
	require.Error(t, err)
}

// TestExecSpawner_ExitCodeIsNotAnError reports a non-zero exit as a code.
func TestExecSpawner_ExitCodeIsNotAnError(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	shell, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	code, err := ExecSpawner{}.Spawn(context.Background(), shell, "-c", "exit 4")
	require.NoError(t, err)
	require.Equal(t, 4, code)
}

// TestExecSpawner_CanceledContextDoesNotKillChild lets the child finish on its own terms.
func TestExecSpawner_CanceledContextDoesNotKillChild(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	shell, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := ExecSpawner{}.Spawn(ctx, shell, "-c", "sleep 0.2; exit 5")
	require.NoError(t, err)
	require.Equal(t, 5, code)
}

// TestLaunch_CanceledContextKeepsValidArtifact does not delete a working install on Ctrl+C.
func TestLaunch_CanceledContextKeepsValidArtifact(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "lilith")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755)) //nolint:gosec // Executable fixture.

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	relaunched := 0

	launcher := New(fileRemover{},
		WithSpawner(spawnerFunc(func(ctx context.Context, p string, args ...string) (int, error) {
			if p == selfPath {
				relaunched++
				return 0, nil
			}

			return ExecSpawner{}.Spawn(ctx, p, args...)
		})),
		WithExecutable(func() (string, error) { return selfPath, nil }),
		WithDepth(func() (int, error) { return 0, nil }),
	)

	outcome, err := launcher.Launch(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, outcome)
	require.Zero(t, relaunched)
	require.FileExists(t, path)
}

// TestLaunch_CorruptedArtifactOnDisk drives a real spawn failure through recovery.
func TestLaunch_CorruptedArtifactOnDisk(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("execute bits are not used on Windows")
	}

	path := filepath.Join(t.TempDir(), "lilith")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	relaunched := 0

	launcher := New(fileRemover{},
		WithSpawner(spawnerFunc(func(ctx context.Context, p string, args ...string) (int, error) {
			if p == selfPath {
				relaunched++
				return 0, nil
			}

			return ExecSpawner{}.Spawn(ctx, p, args...)
		})),
		WithExecutable(func() (string, error) { return selfPath, nil }),
		WithDepth(func() (int, error) { return 0, nil }),
	)

	outcome, err := launcher.Launch(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, StateRelaunched, outcome.State)
	require.Equal(t, 1, relaunched)
	require.NoFileExists(t, path)
}

// spawnerFunc adapts a function to Spawner.
type spawnerFunc func(ctx context.Context, path string, args ...string) (int, error)

func (f spawnerFunc) Spawn(ctx context.Context, path string, args ...string) (int, error) {
	return f(ctx, path, args...)
}

// fileRemover deletes from disk, ignoring missing files.
type fileRemover struct{}

func (fileRemover) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
