package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/extent"
)

func TestWriteRead(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("hello world"))
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, uint64(11), ref.Count)

	data, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	assert.Equal(t, uint64(11), s.TotalSize())
	assert.Equal(t, 1, s.ExtentCount())
}

func TestReadRange(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("0123456789"))
	require.NoError(t, err)

	data, err := s.ReadRange(ctx, ref, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("23456"), data)

	// Reads past the end of the extent fail.
	_, err = s.ReadRange(ctx, ref, 8, 5)
	assert.Error(t, err)
}

func TestReadMissingExtent(t *testing.T) {
	s := New(0)
	defer s.Close()

	_, err := s.Read(context.Background(), blob.ExtentRef{ID: "no-such-extent", Count: 4})
	assert.ErrorIs(t, err, extent.ErrExtentNotFound)
}

func TestDelete(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("data"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, ref.ID))
	assert.Equal(t, uint64(0), s.TotalSize())

	_, err = s.Read(ctx, ref)
	assert.ErrorIs(t, err, extent.ErrExtentNotFound)

	// Deleting a missing extent is not an error.
	assert.NoError(t, s.Delete(ctx, ref.ID))
}

func TestSizeLimit(t *testing.T) {
	s := New(10)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Write(ctx, []byte("12345678"))
	require.NoError(t, err)

	_, err = s.Write(ctx, []byte("abc"))
	assert.True(t, bloberror.IsCode(err, bloberror.RequestBodyTooLarge))
}

func TestIDs(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	want := map[string]bool{}
	for i := 0; i < 10; i++ {
		ref, err := s.Write(ctx, []byte(fmt.Sprintf("extent-%d", i)))
		require.NoError(t, err)
		want[ref.ID] = true
	}

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 10)
	for _, id := range ids {
		assert.True(t, want[id])
	}
}

func TestReadReturnsCopy(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("abc"))
	require.NoError(t, err)

	data, err := s.Read(ctx, ref)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestClosedStore(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	ref, err := s.Write(ctx, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Write(ctx, []byte("y"))
	assert.ErrorIs(t, err, extent.ErrStoreClosed)
	_, err = s.Read(ctx, ref)
	assert.ErrorIs(t, err, extent.ErrStoreClosed)
	assert.ErrorIs(t, s.HealthCheck(ctx), extent.ErrStoreClosed)
}

func TestConcurrentWrites(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ref, err := s.Write(ctx, []byte(fmt.Sprintf("w%d-%d", n, j)))
				assert.NoError(t, err)
				_, err = s.Read(ctx, ref)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32*50, s.ExtentCount())
}
