package gc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/blob"
	extentmem "github.com/bloblite/bloblite/pkg/store/extent/memory"
	metadatamem "github.com/bloblite/bloblite/pkg/store/metadata/memory"
)

func TestSweepRequiresTwoPasses(t *testing.T) {
	ctx := context.Background()
	meta := metadatamem.New()
	extents := extentmem.New(0)
	defer meta.Close()
	defer extents.Close()

	_, err := extents.Write(ctx, []byte("orphaned bytes"))
	require.NoError(t, err)

	s := New(meta, extents, nil, time.Minute)

	// First pass only marks the orphan as a candidate.
	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, extents.ExtentCount())

	// Second pass confirms and deletes it.
	removed, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, extents.ExtentCount())
	assert.Equal(t, uint64(0), extents.TotalSize())
}

func TestSweepKeepsReferencedExtents(t *testing.T) {
	ctx := context.Background()
	meta := metadatamem.New()
	extents := extentmem.New(0)
	defer meta.Close()
	defer extents.Close()

	require.NoError(t, meta.CreateContainer(ctx, blob.NewContainer("dev", "data")))

	ref, err := extents.Write(ctx, []byte("live bytes"))
	require.NoError(t, err)

	b := blob.New("dev", "data", "doc", blob.TypeBlock, ref.Count)
	b.Extents = []blob.ExtentRef{ref}
	require.NoError(t, meta.PutBlob(ctx, b))

	_, err = extents.Write(ctx, []byte("orphaned"))
	require.NoError(t, err)

	s := New(meta, extents, nil, time.Minute)
	for i := 0; i < 2; i++ {
		_, err = s.Sweep(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, extents.ExtentCount())
	_, err = extents.Read(ctx, ref)
	assert.NoError(t, err)

	sweeps, removed := s.Stats()
	assert.Equal(t, 2, sweeps)
	assert.Equal(t, 1, removed)
}

func TestSweeperStartStop(t *testing.T) {
	meta := metadatamem.New()
	extents := extentmem.New(0)
	defer meta.Close()
	defer extents.Close()

	s := New(meta, extents, nil, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Start(ctx) // idempotent
	time.Sleep(30 * time.Millisecond)
	s.Stop(time.Second)

	sweeps, _ := s.Stats()
	assert.GreaterOrEqual(t, sweeps, 1)
}
