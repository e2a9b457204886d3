package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// Storage is the on-disk blob bucket backing the snapshot cache and the run
// history.
type Storage struct {
	bucket *blob.Bucket
}

func OpenStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		NoTempDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage bucket: %w", err)
	}
	return &Storage{bucket: bucket}, nil
}

// Get returns the blob at key if it exists and is younger than maxAge.
// A non-positive maxAge disables the freshness check. Implements
// snapshot.Cache.
func (s *Storage) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(attrs.ModTime) > maxAge {
		return nil, false
	}
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Storage) Put(ctx context.Context, key string, data []byte) error {
	return s.bucket.WriteAll(ctx, key, data, nil)
}

func (s *Storage) Read(ctx context.Context, key string) ([]byte, error) {
	return s.bucket.ReadAll(ctx, key)
}

// List returns all keys under prefix. Implements history.Store.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *Storage) Close() error {
	return s.bucket.Close()
}
