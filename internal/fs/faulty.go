package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by an injected fault.
var ErrInjected = errors.New("injected fault")

// FaultyFS wraps a FileSystem and fails writes to files whose name contains
// a registered pattern. Used to test that cache-write failures stay
// non-fatal.
type FaultyFS struct {
	FS FileSystem

	mu       sync.Mutex
	patterns []string
	err      error
}

// NewFaultyFS wraps fsys (Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{FS: fsys, err: ErrInjected}
}

// FailWrites makes writes fail for any file whose name contains pattern.
func (f *FaultyFS) FailWrites(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
}

func (f *FaultyFS) faultFor(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patterns {
		if strings.Contains(name, p) {
			return f.err
		}
	}
	return nil
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: f.faultFor(name)}, nil
}

func (f *FaultyFS) Remove(name string) error             { return f.FS.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error { return f.FS.Rename(oldpath, newpath) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	fault error
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.fault != nil {
		return 0, f.fault
	}
	return f.File.Write(p)
}
