package gitcore

import (
	"fmt"
	"log/slog"
	"os"
)

// lockState is a small state machine (spec §9 "Interior mutability and
// cyclic lifetimes" design note): rather than share a *os.File through
// interior mutability, a Lockfile is threaded by explicit ownership through
// Unlocked -> Held -> Committed|Released.
type lockState int

const (
	lockUnlocked lockState = iota
	lockHeld
	lockDone
)

// Lockfile implements the create-then-rename write discipline spec §4.2
// requires: writes land only in the sidecar "<path>.lock", and become
// visible at path only on Commit's atomic rename.
type Lockfile struct {
	path  string
	lock  string
	file  *os.File
	state lockState
}

// NewLockfile returns a Lockfile for path; it does not touch the filesystem
// until Acquire is called.
func NewLockfile(path string) *Lockfile {
	return &Lockfile{path: path, lock: path + ".lock"}
}

// Acquire creates the sidecar lock file with create-exclusive semantics.
// A second invocation racing for the same path fails with ErrAlreadyLocked —
// the caller must abort rather than retry silently (spec §5).
func (l *Lockfile) Acquire() error {
	if l.state != lockUnlocked {
		return fmt.Errorf("lockfile: %s: %w", l.path, ErrAlreadyLocked)
	}
	f, err := os.OpenFile(l.lock, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("lockfile: %s: %w", l.path, ErrAlreadyLocked)
		}
		return fmt.Errorf("lockfile: %s: %w", l.path, err)
	}
	l.file = f
	l.state = lockHeld
	return nil
}

// Write appends to the held lock file. Writes never touch l.path directly.
func (l *Lockfile) Write(p []byte) (int, error) {
	if l.state != lockHeld {
		return 0, fmt.Errorf("lockfile: %s: write without holding lock", l.path)
	}
	return l.file.Write(p)
}

// Commit closes the lock file and renames it over path, making the write
// visible atomically. Safe to call at most once.
func (l *Lockfile) Commit() error {
	if l.state != lockHeld {
		return fmt.Errorf("lockfile: %s: commit without holding lock", l.path)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("lockfile: %s: %w", l.path, err)
	}
	if err := os.Rename(l.lock, l.path); err != nil {
		return fmt.Errorf("lockfile: %s: %w", l.path, err)
	}
	l.state = lockDone
	slog.Debug("lockfile committed", "path", l.path)
	return nil
}

// Release closes and deletes the lock file without touching path. Index.Save
// and ref updates call it to abandon a write that failed part-way; it is a
// no-op unless the lock is held.
func (l *Lockfile) Release() error {
	if l.state != lockHeld {
		return nil
	}
	closeErr := l.file.Close()
	removeErr := os.Remove(l.lock)
	l.state = lockDone
	if closeErr != nil {
		return fmt.Errorf("lockfile: %s: %w", l.path, closeErr)
	}
	if removeErr != nil {
		return fmt.Errorf("lockfile: %s: %w", l.path, removeErr)
	}
	return nil
}
