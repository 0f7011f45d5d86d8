// Package filex provides small filesystem helpers shared by the profile,
// key, and audit stores: restrictive-permission directories and atomic
// file replacement.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeAttempts bounds retries of a failed atomic write. The temp file is
// discarded on every failed attempt so a partial write is never observable
// under the final name.
const writeAttempts = 3

// EnsureDir creates dir (and parents) with owner-only permissions if it
// does not exist yet, and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// AtomicWrite writes data to path by first writing a temp file in the same
// directory and then renaming it over the destination. A reader never sees
// a partially written file. Failed attempts are retried a bounded number
// of times.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	var lastErr error
	for i := 0; i < writeAttempts; i++ {
		if lastErr = writeOnce(path, data, perm); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func writeOnce(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	// On any failure the temp file is removed so no partial artifact stays.
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", tmpName, err))
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(fmt.Errorf("write %s: %w", tmpName, err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
