package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MockFileSystem keeps files in memory. Setting one of the error fields
// makes the matching call fail.
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte

	StatError      error
	ReadFileError  error
	WriteFileError error
	RenameError    error
}

// NewMockFileSystem creates an empty mock file system
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{files: make(map[string][]byte)}
}

type mockFileInfo struct {
	name string
	size int64
}

func (fi mockFileInfo) Name() string       { return fi.name }
func (fi mockFileInfo) Size() int64        { return fi.size }
func (fi mockFileInfo) Mode() fs.FileMode  { return 0644 }
func (fi mockFileInfo) ModTime() time.Time { return time.Time{} }
func (fi mockFileInfo) IsDir() bool        { return false }
func (fi mockFileInfo) Sys() interface{}   { return nil }

func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	if m.StatError != nil {
		return nil, m.StatError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return mockFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

func (m *MockFileSystem) WriteFile(name string, data []byte, _ fs.FileMode) error {
	if m.WriteFileError != nil {
		return m.WriteFileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameError != nil {
		return m.RenameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[oldpath]
	if !ok {
		return os.ErrNotExist
	}
	m.files[newpath] = content
	delete(m.files, oldpath)
	return nil
}

func (m *MockFileSystem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

// FileExists reports whether name was written.
func (m *MockFileSystem) FileExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok
}

// Content returns a copy of a file's bytes.
func (m *MockFileSystem) Content(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	return append([]byte(nil), content...), ok
}

// MockFileLock counts lock and unlock calls.
type MockFileLock struct {
	mu      sync.Mutex
	held    bool
	LockErr error
	Locks   int
	Unlocks int
}

func (l *MockFileLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Locks++
	if l.LockErr != nil {
		return false, l.LockErr
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *MockFileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Unlocks++
	l.held = false
	return nil
}

// Held reports whether the lock is currently taken.
func (l *MockFileLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// MockFileLockFactory returns one MockFileLock per path.
type MockFileLockFactory struct {
	mu      sync.Mutex
	locks   map[string]*MockFileLock
	LockErr error
}

// NewMockFileLockFactory creates a factory with no locks handed out yet
func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{locks: make(map[string]*MockFileLock)}
}

// New implements FileLockFactory.New
func (f *MockFileLockFactory) New(path string) FileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.locks[path]; ok {
		return l
	}
	l := &MockFileLock{LockErr: f.LockErr}
	f.locks[path] = l
	return l
}

// Lock returns the lock handed out for path, if any.
func (f *MockFileLockFactory) Lock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks[path]
}
