package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to a form session across replicas, so that two
// instances never reconcile the same tree concurrently.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock expires after
	// ttl if its holder dies. The returned UnlockFunc must always be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
