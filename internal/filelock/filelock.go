// Package filelock serialises writers of a board directory with an advisory
// lock file.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	lockFileMode  = 0o600
	retryInterval = 5 * time.Millisecond
)

// ErrLocked is returned when the lock could not be taken before the context
// was done.
var ErrLocked = errors.New("lock is held by another process")

// Lock takes an exclusive advisory lock on the file at path, creating it if
// needed. It retries until the lock is free or ctx is done. The returned
// function releases the lock.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file inside the board dir
	if err != nil {
		return nil, err
	}

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		case <-time.After(retryInterval):
		}
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
