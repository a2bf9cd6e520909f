package download

import (
	"context"
	"fmt"
	"os"
)

// executeBits grants execute permission to owner, group and others.
const executeBits os.FileMode = 0o111

// ChmodExecutable adds the execute bits to path, like chmod +x.
func ChmodExecutable(_ context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if err = os.Chmod(path, info.Mode().Perm()|executeBits); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	return nil
}
