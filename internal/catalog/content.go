package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirContent resolves book texts by trying each candidate directory in
// order and returning the first readable file.
type DirContent struct {
	Dirs []string
}

func (d DirContent) Fetch(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty filename: %w", fs.ErrNotExist)
	}
	// filenames come from catalog data, never use them as paths
	name := filepath.Base(filename)

	var lastErr error
	for _, dir := range d.Dirs {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(b), nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fs.ErrNotExist
	}
	return "", fmt.Errorf("content %s: %w", name, lastErr)
}
