// Package blob abstracts the durable object storage the index artifact pair
// is published to and loaded from. Objects are addressed by bucket + key.
package blob

import (
	"context"
	"errors"
	"time"
)

// Store is the object storage facade.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// ErrNotFound signals a missing object.
var ErrNotFound = errors.New("blob: object not found")

// Op constants name store operations for error context.
const (
	OpGet    = "get"
	OpPut    = "put"
	OpExists = "exists"
	OpPing   = "ping"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
