package valkey

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/reposcout/internal/blob"
)

// Get retrieves an object.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	cmd := s.b().Get().Key(objectKey(bucket, key)).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, blob.ErrNotFound
		}
		return nil, &blob.Error{Op: blob.OpGet, Err: err}
	}
	return data, nil
}

// Put stores an object, replacing any previous value at the key.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte) error {
	cmd := s.b().Set().Key(objectKey(bucket, key)).Value(rueidis.BinaryString(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &blob.Error{Op: blob.OpPut, Err: err}
	}
	return nil
}

// Exists reports whether an object is present.
func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	cmd := s.b().Exists().Key(objectKey(bucket, key)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &blob.Error{Op: blob.OpExists, Err: err}
	}
	return n > 0, nil
}
