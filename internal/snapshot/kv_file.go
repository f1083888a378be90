package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileKV stores one file per key under a directory. Writes go through a
// temp file and rename, so a crash mid-write never leaves a torn snapshot.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (s *FileKV) path(key string) string {
	// keys are fixed identifiers, but never trust them as paths
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}

func (s *FileKV) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *FileKV) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(key)+"-*")
	if err != nil {
		return err
	}

	_, werr := tmp.Write(value)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		if werr != nil {
			return werr
		}
		return cerr
	}

	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileKV) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}
