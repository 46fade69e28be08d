//go:build !release
// +build !release

package mock

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilesMock implements the functions from piperutils.FileUtils with an in-memory file system.
type FilesMock struct {
	files       map[string][]byte
	dirs        map[string]bool
	writtenMode map[string]os.FileMode
	// FileWriteErrors maps a path to the error returned when it is written
	FileWriteErrors map[string]error
}

func (f *FilesMock) init() {
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	if f.dirs == nil {
		f.dirs = map[string]bool{}
	}
	if f.writtenMode == nil {
		f.writtenMode = map[string]os.FileMode{}
	}
}

// AddFile establishes the existence of a virtual file.
func (f *FilesMock) AddFile(path string, contents []byte) {
	f.init()
	f.files[filepath.Clean(path)] = contents
	f.addParentDirs(path)
}

// HasFile returns true if the virtual file system contains an entry for the given path.
func (f *FilesMock) HasFile(path string) bool {
	_, exists := f.files[filepath.Clean(path)]
	return exists
}

// HasDir returns true if the virtual file system contains the given directory.
func (f *FilesMock) HasDir(path string) bool {
	return f.dirs[filepath.Clean(path)]
}

// FilePaths returns the sorted paths of all files.
func (f *FilesMock) FilePaths() []string {
	paths := make([]string, 0, len(f.files))
	for path := range f.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FileMode returns the permissions a file has been written with.
func (f *FilesMock) FileMode(path string) os.FileMode {
	return f.writtenMode[filepath.Clean(path)]
}

// FileExists returns true if the given path is a file.
func (f *FilesMock) FileExists(filename string) (bool, error) {
	return f.HasFile(filename), nil
}

// FileRead returns the content of a previously added or written file.
func (f *FilesMock) FileRead(path string) ([]byte, error) {
	content, exists := f.files[filepath.Clean(path)]
	if !exists {
		return nil, fmt.Errorf("could not read '%s': %w", path, os.ErrNotExist)
	}
	return content, nil
}

// FileWrite stores the content in the virtual file system.
func (f *FilesMock) FileWrite(path string, content []byte, perm os.FileMode) error {
	if err := f.FileWriteErrors[path]; err != nil {
		return err
	}
	f.AddFile(path, content)
	f.writtenMode[filepath.Clean(path)] = perm
	return nil
}

// MkdirAll creates the directory and all its parents.
func (f *FilesMock) MkdirAll(path string, perm os.FileMode) error {
	f.init()
	f.dirs[filepath.Clean(path)] = true
	f.addParentDirs(filepath.Join(path, "x"))
	return nil
}

func (f *FilesMock) addParentDirs(path string) {
	for dir := filepath.Dir(filepath.Clean(path)); dir != "." && dir != string(os.PathSeparator); dir = filepath.Dir(dir) {
		if strings.HasSuffix(dir, string(os.PathSeparator)) {
			break
		}
		f.dirs[dir] = true
	}
}
