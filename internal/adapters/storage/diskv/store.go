// Package diskv stores board documents as flat files through peterbourgon/diskv.
package diskv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// cacheSizeMax bounds the in-memory read cache.
const cacheSizeMax = 1024 * 1024

// Store is a key/value store with one file per key under a base directory.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Open returns a store rooted at basePath, creating the directory when missing.
func Open(basePath string) (*Store, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("diskv base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create diskv dir: %w", err)
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: cacheSizeMax,
		}),
		basePath: basePath,
	}, nil
}

// BasePath returns the directory holding the documents.
func (s *Store) BasePath() string {
	return s.basePath
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !s.d.Has(key) {
		return nil, false, nil
	}
	value, err := s.d.Read(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	return value, true, nil
}

// Put overwrites the value stored under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.d.Write(key, value); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key.
func (s *Store) Keys(ctx context.Context) []string {
	out := make([]string, 0)
	for key := range s.d.Keys(ctx.Done()) {
		out = append(out, key)
	}
	return out
}
