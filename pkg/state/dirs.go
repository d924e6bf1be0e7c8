package state

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// EnsureStateDirs creates the layout under dbPath and checks each directory
// is a real, writable directory.
func EnsureStateDirs(dbPath string) error {
	p := PathsFor(dbPath)
	for _, dir := range []string{p.Store, p.Tel, p.Tmp} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureDir(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return errors.Wrapf(err, "cannot create parent for %s", p)
	}
	if fi, err := os.Lstat(p); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return errors.Newf("path is a symlink: %s", p)
		}
		if !fi.IsDir() {
			return errors.Newf("path exists and is not a directory: %s", p)
		}
	}
	if err := os.MkdirAll(p, 0o700); err != nil {
		return errors.Wrapf(err, "cannot create path %s", p)
	}

	tmp, err := os.CreateTemp(p, ".validate-*")
	if err != nil {
		return errors.Wrapf(err, "path not writable: %s", p)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())
	return nil
}

// Init resolves dbPath, creates the layout and returns its paths.
func Init(dbPath string) (Paths, error) {
	path := strings.TrimSpace(dbPath)
	if path == "" {
		return Paths{}, errors.New("empty database path")
	}
	path = filepath.Clean(path)
	if err := EnsureStateDirs(path); err != nil {
		return Paths{}, err
	}
	return PathsFor(path), nil
}
