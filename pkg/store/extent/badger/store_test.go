package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/store/extent"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWriteReadDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("persistent payload"))
	require.NoError(t, err)
	assert.Equal(t, uint64(18), ref.Count)
	assert.Equal(t, uint64(18), s.TotalSize())

	data, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent payload"), data)

	part, err := s.ReadRange(ctx, ref, 11, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), part)

	require.NoError(t, s.Delete(ctx, ref.ID))
	assert.Equal(t, uint64(0), s.TotalSize())
	_, err = s.Read(ctx, ref)
	assert.ErrorIs(t, err, extent.ErrExtentNotFound)
}

func TestSizeRebuiltOnReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, 0)
	require.NoError(t, err)
	ref, err := s.Write(ctx, []byte("survives restart"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, 0)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint64(16), s.TotalSize())
	data, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("survives restart"), data)

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ref.ID}, ids)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Write(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, extent.ErrStoreClosed)
}
