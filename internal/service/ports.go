package service

import (
	"context"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Lock is an advisory lock held for the duration of a settlement attempt.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory creates advisory locks keyed by name.
type LockFactory interface {
	NewLock(key string) Lock
}
