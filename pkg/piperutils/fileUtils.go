package piperutils

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileUtils defines the file system operations used by steps, mocked in tests
type FileUtils interface {
	FileExists(filename string) (bool, error)
	FileRead(path string) ([]byte, error)
	FileWrite(path string, content []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// Files ...
type Files struct {
}

// FileExists returns true if the file system entry for the given path exists and is not a directory.
func (f Files) FileExists(filename string) (bool, error) {
	info, err := os.Stat(filename)

	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

// FileRead is a wrapper for os.ReadFile().
func (f Files) FileRead(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileWrite writes content to a file, missing parent directories are created.
func (f Files) FileWrite(path string, content []byte, perm os.FileMode) error {
	if err := f.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, perm); err != nil {
		return errors.Wrapf(err, "failed to write file %v", path)
	}
	return nil
}

// MkdirAll is a wrapper for os.MkdirAll().
func (f Files) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return errors.Wrapf(err, "failed to create directory %v", path)
	}
	return nil
}
