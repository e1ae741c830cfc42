package blob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProperties(t *testing.T) {
	p := NewProperties(TypeBlock, 42)

	assert.Equal(t, TypeBlock, p.BlobType)
	assert.Equal(t, uint64(42), p.ContentLength)
	assert.Equal(t, TierHot, p.AccessTier)
	assert.Equal(t, LeaseStateAvailable, p.LeaseState)
	assert.Equal(t, LeaseStatusUnlocked, p.LeaseStatus)
	assert.True(t, p.ServerEncrypted)
	assert.NotEmpty(t, p.ETag)
}

func TestTouchChangesETag(t *testing.T) {
	p := NewProperties(TypeBlock, 0)
	before := p.ETag

	p.Touch()

	assert.NotEqual(t, before, p.ETag)
	assert.False(t, p.LastModified.Before(p.CreatedOn))
}

func TestNewETagFormat(t *testing.T) {
	tag := NewETag()

	require.Len(t, tag, 4+32)
	assert.Equal(t, `"0x`, tag[:3])
	assert.Equal(t, `"`, tag[len(tag)-1:])
	assert.NotEqual(t, tag, NewETag())
}

func TestBlobKey(t *testing.T) {
	b := New("devstoreaccount1", "photos", "cat.jpg", TypeBlock, 0)
	assert.Equal(t, "devstoreaccount1/photos/cat.jpg", b.Key())

	snap := b.NewSnapshot(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "devstoreaccount1/photos/cat.jpg/2025-06-01T12:00:00.0000000Z", snap.Key())
	assert.True(t, snap.IsSnapshot())
	assert.False(t, b.IsSnapshot())
}

func TestNewSnapshotResetsLease(t *testing.T) {
	b := New("devstoreaccount1", "photos", "cat.jpg", TypeBlock, 0)
	b.Props.LeaseState = LeaseStateLeased
	b.Props.LeaseStatus = LeaseStatusLocked
	b.Props.LeaseID = "lease-1"
	b.Metadata["color"] = "black"

	snap := b.NewSnapshot(time.Now())

	assert.Equal(t, LeaseStateAvailable, snap.Props.LeaseState)
	assert.Equal(t, LeaseStatusUnlocked, snap.Props.LeaseStatus)
	assert.Empty(t, snap.Props.LeaseID)
	assert.Equal(t, "black", snap.Metadata["color"])

	// The snapshot must be independent of the base blob.
	snap.Metadata["color"] = "white"
	assert.Equal(t, "black", b.Metadata["color"])
}

func TestCloneIsDeep(t *testing.T) {
	b := New("devstoreaccount1", "c", "b", TypeBlock, 0)
	b.Tags["env"] = "prod"
	b.Extents = []ExtentRef{{ID: "e1", Count: 10}}

	c := b.Clone()
	c.Tags["env"] = "dev"
	c.Extents[0].Count = 99

	assert.Equal(t, "prod", b.Tags["env"])
	assert.Equal(t, uint64(10), b.Extents[0].Count)
}

func TestParseAccessTier(t *testing.T) {
	tier, ok := ParseAccessTier("Hot")
	require.True(t, ok)
	assert.Equal(t, TierHot, tier)

	tier, ok = ParseAccessTier("archive")
	require.True(t, ok)
	assert.Equal(t, TierArchive, tier)

	_, ok = ParseAccessTier("Premium")
	assert.False(t, ok)
}

func TestParsePublicAccess(t *testing.T) {
	assert.Equal(t, PublicAccessContainer, ParsePublicAccess("container"))
	assert.Equal(t, PublicAccessBlob, ParsePublicAccess("blob"))
	assert.Equal(t, PublicAccessNone, ParsePublicAccess(""))
	assert.Equal(t, PublicAccessNone, ParsePublicAccess("private"))
}

func TestParseBlockListScope(t *testing.T) {
	assert.Equal(t, BlockListCommitted, ParseBlockListScope("committed"))
	assert.Equal(t, BlockListUncommitted, ParseBlockListScope("uncommitted"))
	assert.Equal(t, BlockListAll, ParseBlockListScope(""))
	assert.Equal(t, BlockListAll, ParseBlockListScope("bogus"))
}

func TestSnapshotTimeRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589_793_200, time.UTC)
	s := FormatSnapshotTime(at)
	assert.Equal(t, "2025-03-14T09:26:53.5897932Z", s)

	parsed, err := ParseSnapshotTime(s)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))
}
