// Package lock serializes access to on-disk resources keyed by path.
//
// A lock has two layers. Goroutines of this process coordinate through a
// sync.RWMutex per key; other processes (the CLI running next to the API
// server) coordinate through flock(2) on a sibling marker file named
// "{key}.lock". The marker is never the target itself, so rewriting or
// renaming the target does not drop the lock.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Suffix is appended to a key to name its marker file.
const Suffix = ".lock"

// Manager hands out exclusive and shared locks keyed by resource path.
// The zero value is not usable; use NewManager.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewManager creates an empty lock manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*sync.RWMutex)}
}

func (m *Manager) mutex(key string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &sync.RWMutex{}
		m.locks[key] = l
	}
	return l
}

// Exclusive runs fn while holding the exclusive lock for key. Only one
// holder at a time; shared holders are excluded too.
func (m *Manager) Exclusive(key string, fn func() error) error {
	key = filepath.Clean(key)
	l := m.mutex(key)
	l.Lock()
	defer l.Unlock()

	return withFlock(key, unix.LOCK_EX, fn)
}

// Shared runs fn while holding a shared lock for key. Any number of shared
// holders may run together; an exclusive holder blocks them.
func (m *Manager) Shared(key string, fn func() error) error {
	key = filepath.Clean(key)
	l := m.mutex(key)
	l.RLock()
	defer l.RUnlock()

	return withFlock(key, unix.LOCK_SH, fn)
}

func withFlock(key string, how int, fn func() error) error {
	marker := key + Suffix
	if err := os.MkdirAll(filepath.Dir(marker), 0750); err != nil {
		return fmt.Errorf("failed to create lock directory for %s: %w", marker, err)
	}

	f, err := os.OpenFile(marker, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file %s: %w", marker, err)
	}
	defer f.Close()

	if err := flock(f, how); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", marker, err)
	}
	defer func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }()

	return fn()
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}
