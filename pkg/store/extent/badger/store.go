// Package badger provides a persistent extent store backed by BadgerDB.
// Each extent is a single value keyed extent/<id>; the total size counter is
// rebuilt by scanning the keyspace at open.
package badger

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/extent"
)

const keyPrefix = "extent/"

// Store is a BadgerDB-backed implementation of extent.Store.
type Store struct {
	db *badgerdb.DB

	// maxTotalSize caps the total stored bytes; 0 means unlimited.
	maxTotalSize uint64

	totalSize atomic.Uint64
	closed    atomic.Bool
}

var _ extent.Store = (*Store)(nil)

// Open opens (or creates) a store at dir. maxTotalSize of 0 means unlimited.
func Open(dir string, maxTotalSize uint64) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, maxTotalSize: maxTotalSize}
	if err := s.rebuildSize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) rebuildSize() error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		var total uint64
		for it.Rewind(); it.Valid(); it.Next() {
			total += uint64(it.Item().ValueSize())
		}
		s.totalSize.Store(total)
		return nil
	})
}

func key(id string) []byte { return []byte(keyPrefix + id) }

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
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(id), data)
	})
	if err != nil {
		return blob.ExtentRef{}, err
	}

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

	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(ref.ID))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return extent.ErrExtentNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			start := ref.Offset + offset
			end := start + length
			if end > uint64(len(val)) || end < start {
				return bloberror.WithMessage(bloberror.InternalError,
					"extent %s: read [%d, %d) beyond size %d", ref.ID, start, end, len(val))
			}
			out = make([]byte, length)
			copy(out, val[start:end])
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if s.closed.Load() {
		return extent.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var size uint64
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		size = uint64(item.ValueSize())
		return txn.Delete(key(id))
	})
	if err != nil {
		return err
	}

	if size > 0 {
		s.totalSize.Add(^(size - 1))
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
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(k, keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if s.closed.Load() {
		return extent.ErrStoreClosed
	}
	return s.db.View(func(txn *badgerdb.Txn) error { return nil })
}

// Close flushes and closes the database. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
