package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

const account = "devstoreaccount1"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateContainer(t *testing.T, s *Store, name string) {
	t.Helper()
	require.NoError(t, s.CreateContainer(context.Background(), blob.NewContainer(account, name)))
}

func mustPutBlob(t *testing.T, s *Store, container, name string) *blob.Blob {
	t.Helper()
	b := blob.New(account, container, name, blob.TypeBlock, 0)
	require.NoError(t, s.PutBlob(context.Background(), b))
	return b
}

func TestContainerLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "photos")

	err := s.CreateContainer(ctx, blob.NewContainer(account, "photos"))
	assert.True(t, bloberror.IsCode(err, bloberror.ContainerAlreadyExists))

	c, err := s.GetContainer(ctx, account, "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", c.Name)

	c.Metadata["owner"] = "ops"
	require.NoError(t, s.UpdateContainer(ctx, c))
	again, err := s.GetContainer(ctx, account, "photos")
	require.NoError(t, err)
	assert.Equal(t, "ops", again.Metadata["owner"])

	require.NoError(t, s.DeleteContainer(ctx, account, "photos"))
	_, err = s.GetContainer(ctx, account, "photos")
	assert.True(t, bloberror.IsCode(err, bloberror.ContainerNotFound))
}

func TestDeleteContainerRemovesBlobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	mustPutBlob(t, s, "c1", "a")
	mustPutBlob(t, s, "c1", "b")

	require.NoError(t, s.DeleteContainer(ctx, account, "c1"))
	assert.Equal(t, 0, s.BlobCount())
}

func TestGetBlobChecksContainerFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetBlob(ctx, account, "nope", "b", "")
	assert.True(t, bloberror.IsCode(err, bloberror.ContainerNotFound))

	mustCreateContainer(t, s, "c1")
	_, err = s.GetBlob(ctx, account, "c1", "b", "")
	assert.True(t, bloberror.IsCode(err, bloberror.BlobNotFound))
}

func TestPutBlobUpsertsBase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "data.bin")
	b.Props.ContentLength = 100
	require.NoError(t, s.PutBlob(ctx, b))

	got, err := s.GetBlob(ctx, account, "c1", "data.bin", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Props.ContentLength)
	assert.Equal(t, 1, s.BlobCount())
}

func TestSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "data.bin")

	s1 := b.NewSnapshot(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s2 := b.NewSnapshot(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.PutBlob(ctx, s2))
	require.NoError(t, s.PutBlob(ctx, s1))

	// Duplicate snapshot keys are refused.
	err := s.PutBlob(ctx, b.NewSnapshot(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bloberror.IsCode(err, bloberror.ResourceAlreadyExists))

	snaps, err := s.Snapshots(ctx, account, "c1", "data.bin")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, s1.Snapshot, snaps[0].Snapshot)
	assert.Equal(t, s2.Snapshot, snaps[1].Snapshot)

	got, err := s.GetBlob(ctx, account, "c1", "data.bin", s1.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, s1.Snapshot, got.Snapshot)

	// Deleting the base removes the snapshots too.
	require.NoError(t, s.DeleteBlob(ctx, account, "c1", "data.bin", ""))
	assert.Equal(t, 0, s.BlobCount())
}

func TestDeleteSingleSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "data.bin")
	snap := b.NewSnapshot(time.Now())
	require.NoError(t, s.PutBlob(ctx, snap))

	require.NoError(t, s.DeleteBlob(ctx, account, "c1", "data.bin", snap.Snapshot))

	snaps, err := s.Snapshots(ctx, account, "c1", "data.bin")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	_, err = s.GetBlob(ctx, account, "c1", "data.bin", "")
	assert.NoError(t, err)
}

func TestListContainersPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"delta", "alpha", "charlie", "bravo"} {
		mustCreateContainer(t, s, name)
	}

	page, err := s.ListContainers(ctx, account, metadata.ListContainersParams{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "alpha", page.Items[0].Name)
	assert.Equal(t, "bravo", page.Items[1].Name)
	assert.Equal(t, "bravo", page.NextMarker)

	page, err = s.ListContainers(ctx, account, metadata.ListContainersParams{Marker: page.NextMarker})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "charlie", page.Items[0].Name)
	assert.Equal(t, "delta", page.Items[1].Name)
	assert.Empty(t, page.NextMarker)
}

func TestListBlobsOrderingAndMarker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	for _, name := range []string{"zeta", "alpha", "mike"} {
		mustPutBlob(t, s, "c1", name)
	}

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "alpha", page.Items[0].Name)
	assert.Equal(t, "mike", page.Items[1].Name)
	assert.Equal(t, "mike", page.NextMarker)

	page, err = s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{Marker: "mike"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "zeta", page.Items[0].Name)
	assert.Empty(t, page.NextMarker)
}

func TestListBlobsPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	for _, name := range []string{"logs/a", "logs/b", "data/x"} {
		mustPutBlob(t, s, "c1", name)
	}

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{Prefix: "logs/"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "logs/a", page.Items[0].Name)
	assert.Equal(t, "logs/b", page.Items[1].Name)
}

func TestListBlobsDelimiter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	for _, name := range []string{"a/1", "a/2", "b/1", "top"} {
		mustPutBlob(t, s, "c1", name)
	}

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{Delimiter: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/", "b/"}, page.Prefixes)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "top", page.Items[0].Name)
}

func TestListBlobsDelimiterUnderPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	for _, name := range []string{"logs/2025/a", "logs/2025/b", "logs/2026/a", "logs/readme"} {
		mustPutBlob(t, s, "c1", name)
	}

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{Prefix: "logs/", Delimiter: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/2025/", "logs/2026/"}, page.Prefixes)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "logs/readme", page.Items[0].Name)
}

func TestListBlobsSnapshotsFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "data.bin")
	snap := b.NewSnapshot(time.Now())
	require.NoError(t, s.PutBlob(ctx, snap))

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.Items[0].Snapshot)

	page, err = s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{IncludeSnapshots: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, snap.Snapshot, page.Items[0].Snapshot)
	assert.Empty(t, page.Items[1].Snapshot)
}

func TestListBlobsDeletedVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "gone.bin")
	b.Deleted = true
	b.DeletedOn = time.Now()
	require.NoError(t, s.UpdateBlob(ctx, b))

	page, err := s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = s.ListBlobs(ctx, account, "c1", metadata.ListBlobsParams{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Deleted)
}

func TestStagedBlocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")

	stage := func(id string, size uint64) {
		require.NoError(t, s.StageBlock(ctx, &blob.Block{
			Account:   account,
			Container: "c1",
			Blob:      "big.bin",
			ID:        id,
			Size:      size,
			Extent:    blob.ExtentRef{ID: "ext-" + id, Count: size},
			StagedAt:  time.Now(),
		}))
	}
	stage("AAA=", 10)
	stage("BBB=", 20)

	blk, err := s.StagedBlock(ctx, account, "c1", "big.bin", "AAA=")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), blk.Size)

	_, err = s.StagedBlock(ctx, account, "c1", "big.bin", "CCC=")
	assert.True(t, bloberror.IsCode(err, bloberror.InvalidBlockID))

	// Restaging an ID replaces the payload without reordering.
	stage("AAA=", 30)
	blocks, err := s.StagedBlocks(ctx, account, "c1", "big.bin")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "AAA=", blocks[0].ID)
	assert.Equal(t, uint64(30), blocks[0].Size)
	assert.Equal(t, "BBB=", blocks[1].ID)

	require.NoError(t, s.ClearStagedBlocks(ctx, account, "c1", "big.bin"))
	blocks, err = s.StagedBlocks(ctx, account, "c1", "big.bin")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestServiceProperties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	props, err := s.ServiceProperties(ctx, account)
	require.NoError(t, err)
	assert.True(t, props.HourMetrics.Enabled)

	props.Logging.Read = true
	props.DefaultServiceVersion = "2021-10-04"
	require.NoError(t, s.SetServiceProperties(ctx, account, props))

	again, err := s.ServiceProperties(ctx, account)
	require.NoError(t, err)
	assert.True(t, again.Logging.Read)
	assert.Equal(t, "2021-10-04", again.DefaultServiceVersion)
}

func TestReferencedExtents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := blob.New(account, "c1", "data.bin", blob.TypeBlock, 10)
	b.Extents = []blob.ExtentRef{{ID: "ext-1", Count: 10}}
	require.NoError(t, s.PutBlob(ctx, b))

	require.NoError(t, s.StageBlock(ctx, &blob.Block{
		Account: account, Container: "c1", Blob: "other.bin",
		ID: "AA==", Size: 5, Extent: blob.ExtentRef{ID: "ext-2", Count: 5},
	}))

	refs, err := s.ReferencedExtents(ctx)
	require.NoError(t, err)
	assert.Contains(t, refs, "ext-1")
	assert.Contains(t, refs, "ext-2")
	assert.Len(t, refs, 2)
}

func TestCopiesDoNotAlias(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateContainer(t, s, "c1")
	b := mustPutBlob(t, s, "c1", "data.bin")
	b.Metadata["k"] = "v"
	require.NoError(t, s.UpdateBlob(ctx, b))

	got, err := s.GetBlob(ctx, account, "c1", "data.bin", "")
	require.NoError(t, err)
	got.Metadata["k"] = "mutated"

	again, err := s.GetBlob(ctx, account, "c1", "data.bin", "")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestClosedStore(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err := s.CreateContainer(context.Background(), blob.NewContainer(account, "c1"))
	assert.ErrorIs(t, err, metadata.ErrStoreClosed)
}
