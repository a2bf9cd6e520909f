package launch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

const (
	// defaultMaxDepth matches the config default.
	defaultMaxDepth = 3

	// commLength is how much of a process name Linux keeps in /proc/<pid>/stat.
	commLength = 15

	// maxAncestors stops the walk on pathological process trees.
	maxAncestors = 64
)

// processFinder looks a process up by pid; nil, nil means it is gone.
type processFinder func(pid int) (ps.Process, error)

// SelfDepth counts the consecutive ancestors of this process that run the
// same executable, i.e. how many launcher generations relaunched so far.
func SelfDepth() (int, error) {
	self, err := os.Executable()
	if err != nil {
		return 0, err
	}

	return ancestorDepth(ps.FindProcess, filepath.Base(self), os.Getppid(), maxAncestors)
}

// ancestorDepth walks up from pid while processes are named name, stopping at limit.
func ancestorDepth(find processFinder, name string, pid, limit int) (int, error) {
	depth := 0

	for pid > 0 && depth < limit {
		process, err := find(pid)
		if err != nil {
			return depth, err
		}

		if process == nil || !sameExecutable(process.Executable(), name) {
			break
		}

		depth++

		next := process.PPid()
		if next == pid {
			break
		}

		pid = next
	}

	return depth, nil
}

// sameExecutable compares process names, ignoring ".exe", letter case and
// the truncation Linux applies to long names.
func sameExecutable(processName, executable string) bool {
	a := strings.TrimSuffix(strings.ToLower(processName), ".exe")
	b := strings.TrimSuffix(strings.ToLower(executable), ".exe")

	if a == b {
		return true
	}

	return len(a) == commLength && strings.HasPrefix(b, a)
}
