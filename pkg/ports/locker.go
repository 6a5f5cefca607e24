package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of one session across replicas that
// share a SessionStore.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl; the returned UnlockFunc must still be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
