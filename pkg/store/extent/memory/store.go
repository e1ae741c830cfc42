// Package memory provides an in-memory extent store. Extents are sharded
// across fixed buckets to keep lock contention low under concurrent uploads.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/extent"
)

const shardCount = 64

type shard struct {
	mu      sync.RWMutex
	extents map[string][]byte
}

// Store is an in-memory implementation of extent.Store.
type Store struct {
	shards [shardCount]shard

	// maxTotalSize caps the total stored bytes; 0 means unlimited.
	maxTotalSize uint64

	totalSize atomic.Uint64
	closed    atomic.Bool
}

var _ extent.Store = (*Store)(nil)

// New creates an in-memory extent store. maxTotalSize of 0 means unlimited.
func New(maxTotalSize uint64) *Store {
	s := &Store{maxTotalSize: maxTotalSize}
	for i := range s.shards {
		s.shards[i].extents = make(map[string][]byte)
	}
	return s
}

// shardFor picks a shard from the first bytes of the extent ID.
func (s *Store) shardFor(id string) *shard {
	var h uint64
	n := len(id)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		h = h*31 + uint64(id[i])
	}
	return &s.shards[h%shardCount]
}

func (s *Store) Write(ctx context.Context, data []byte) (blob.ExtentRef, error) {
	if s.closed.Load() {
		return blob.ExtentRef{}, extent.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return blob.ExtentRef{}, err
	}

	size := uint64(len(data))
	if s.maxTotalSize > 0 && s.totalSize.Load()+size > s.maxTotalSize {
		return blob.ExtentRef{}, bloberror.New(bloberror.RequestBodyTooLarge)
	}

	id := uuid.New().String()
	buf := make([]byte, size)
	copy(buf, data)

	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.extents[id] = buf
	sh.mu.Unlock()

	s.totalSize.Add(size)

	return blob.ExtentRef{ID: id, Offset: 0, Count: size}, nil
}

func (s *Store) Read(ctx context.Context, ref blob.ExtentRef) ([]byte, error) {
	return s.ReadRange(ctx, ref, 0, ref.Count)
}

func (s *Store) ReadRange(ctx context.Context, ref blob.ExtentRef, offset, length uint64) ([]byte, error) {
	if s.closed.Load() {
		return nil, extent.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sh := s.shardFor(ref.ID)
	sh.mu.RLock()
	data, ok := sh.extents[ref.ID]
	sh.mu.RUnlock()
	if !ok {
		return nil, extent.ErrExtentNotFound
	}

	start := ref.Offset + offset
	end := start + length
	if end > uint64(len(data)) || end < start {
		return nil, bloberror.WithMessage(bloberror.InternalError,
			"extent %s: read [%d, %d) beyond size %d", ref.ID, start, end, len(data))
	}

	out := make([]byte, length)
	copy(out, data[start:end])
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if s.closed.Load() {
		return extent.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	data, ok := sh.extents[id]
	if ok {
		delete(sh.extents, id)
	}
	sh.mu.Unlock()

	if ok {
		s.totalSize.Add(^(uint64(len(data)) - 1))
	}
	return nil
}

func (s *Store) TotalSize() uint64 {
	return s.totalSize.Load()
}

func (s *Store) IDs(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, extent.ErrStoreClosed
	}

	var ids []string
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for id := range sh.extents {
			ids = append(ids, id)
		}
		sh.mu.RUnlock()
	}
	return ids, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if s.closed.Load() {
		return extent.ErrStoreClosed
	}
	return nil
}

// Close releases all extents. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.extents = nil
		sh.mu.Unlock()
	}
	s.totalSize.Store(0)
	return nil
}

// ExtentCount returns the number of stored extents. Test helper.
func (s *Store) ExtentCount() int {
	count := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		count += len(sh.extents)
		sh.mu.RUnlock()
	}
	return count
}
