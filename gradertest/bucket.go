// Package gradertest provides test utilities for grader.
package gradertest

import (
	"context"
	"crypto/md5" //nolint:gosec // etag only
	"encoding/hex"
	"mime"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/grader"
)

// MemoryBucket is an in-memory grader.BucketProvider for testing.
type MemoryBucket struct {
	data map[string][]byte
	err  error
	gets atomic.Int64
	mu   sync.RWMutex
}

// NewMemoryBucket creates an empty bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		data: make(map[string][]byte),
	}
}

// Put stores a copy of data at key.
func (m *MemoryBucket) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = stored
}

// PutString stores s at key.
func (m *MemoryBucket) PutString(key, s string) {
	m.Put(key, []byte(s))
}

// SetErr makes every subsequent call fail with err. Pass nil to clear.
func (m *MemoryBucket) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Gets returns the number of Get calls made so far.
func (m *MemoryBucket) Gets() int64 {
	return m.gets.Load()
}

// Get returns a copy of the object at key, or grader.ErrNotFound.
func (m *MemoryBucket) Get(_ context.Context, key string) ([]byte, *grader.ObjectInfo, error) {
	m.gets.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, nil, m.err
	}
	data, ok := m.data[key]
	if !ok {
		return nil, nil, grader.ErrNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)
	info := objectInfo(key, data)
	return result, &info, nil
}

// List returns objects under prefix in key order. A limit of 0 or less means no limit.
func (m *MemoryBucket) List(_ context.Context, prefix string, limit int) ([]grader.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	infos := make([]grader.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, objectInfo(k, m.data[k]))
	}
	return infos, nil
}

// Reset removes all objects and clears any configured error.
func (m *MemoryBucket) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)
	m.err = nil
	m.gets.Store(0)
}

func objectInfo(key string, data []byte) grader.ObjectInfo {
	sum := md5.Sum(data) //nolint:gosec // etag only
	return grader.ObjectInfo{
		Key:         key,
		ContentType: mime.TypeByExtension(path.Ext(key)),
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
	}
}

var _ grader.BucketProvider = (*MemoryBucket)(nil)
