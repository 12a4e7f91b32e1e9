package lock

import (
	"errors"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file placed in the target root for the duration of a
// mirroring pass.
const FileName = ".junctionmirror.lock"

var ErrHeld = errors.New("lock is held by another process")

type RunLock struct {
	lock *flock.Flock
}

// Acquire takes the run lock for targetRoot without blocking.
func Acquire(targetRoot string) (*RunLock, error) {
	l := flock.New(filepath.Join(targetRoot, FileName))
	locked, err := l.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrHeld
	}
	return &RunLock{lock: l}, nil
}

func (r *RunLock) Path() string {
	return r.lock.Path()
}

func (r *RunLock) Release() error {
	return r.lock.Unlock()
}
