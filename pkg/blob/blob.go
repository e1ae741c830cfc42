// Package blob defines the data model shared by the metadata store, the
// handlers and the XML codec: containers, blobs, blocks, leases and service
// properties, together with the wire-level constants of the emulated
// protocol.
package blob

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Protocol constants.
const (
	// APIVersion is the service version advertised on every response.
	APIVersion = "2021-10-04"

	// PageSize is the page blob alignment unit. All page ranges and page
	// blob sizes must be multiples of this.
	PageSize = 512

	// MaxPageBlobSize is the maximum size of a page blob (8 TiB).
	MaxPageBlobSize = 8 * 1024 * 1024 * 1024 * 1024

	// MaxPageRangeSize is the maximum size of a single page write (4 MiB).
	MaxPageRangeSize = 4 * 1024 * 1024

	// MaxAppendBlockSize is the maximum size of a single append block (100 MiB).
	MaxAppendBlockSize = 100 * 1024 * 1024

	// MaxAppendBlockCount is the maximum number of blocks in an append blob.
	MaxAppendBlockCount = 50000

	// MaxBlockIDLength is the maximum decoded length of a block ID in bytes.
	MaxBlockIDLength = 64

	// DefaultListMaxResults is the page size used when a list request does
	// not carry a maxresults parameter.
	DefaultListMaxResults = 5000

	// DefaultContentType is assigned to blobs uploaded without a content type.
	DefaultContentType = "application/octet-stream"
)

// SnapshotTimeFormat is the timestamp format used for snapshot identifiers.
// Seven fractional digits, always UTC.
const SnapshotTimeFormat = "2006-01-02T15:04:05.0000000Z"

// ExtentRef references a contiguous run of bytes in the extent store.
type ExtentRef struct {
	// ID identifies the extent.
	ID string
	// Offset is the starting byte within the extent.
	Offset uint64
	// Count is the number of bytes referenced.
	Count uint64
}

// Properties holds the system properties of a blob.
type Properties struct {
	CreatedOn    time.Time
	LastModified time.Time
	ETag         string

	ContentLength      uint64
	ContentType        string
	ContentEncoding    string
	ContentLanguage    string
	ContentMD5         string
	ContentDisposition string
	CacheControl       string

	BlobType   Type
	AccessTier AccessTier

	LeaseState    LeaseState
	LeaseStatus   LeaseStatus
	LeaseID       string
	LeaseDuration LeaseDuration
	LeaseExpiry   time.Time
	LeaseBreakAt  time.Time

	// SequenceNumber is meaningful for page blobs only.
	SequenceNumber uint64

	// CommittedBlockCount and Sealed are meaningful for append blobs only.
	CommittedBlockCount uint32
	Sealed              bool

	ServerEncrypted bool

	CopyID          string
	CopySource      string
	CopyStatus      CopyStatus
	CopyProgress    string
	CopyCompletedOn time.Time
}

// NewProperties returns properties for a freshly created blob of the given
// type and size with a unique ETag.
func NewProperties(blobType Type, contentLength uint64) Properties {
	now := time.Now().UTC()
	p := Properties{
		CreatedOn:       now,
		LastModified:    now,
		ETag:            NewETag(),
		ContentLength:   contentLength,
		ContentType:     DefaultContentType,
		BlobType:        blobType,
		AccessTier:      TierHot,
		LeaseState:      LeaseStateAvailable,
		LeaseStatus:     LeaseStatusUnlocked,
		ServerEncrypted: true,
	}
	switch blobType {
	case TypePage:
		p.SequenceNumber = 0
	case TypeAppend:
		p.CommittedBlockCount = 0
		p.Sealed = false
	}
	return p
}

// Touch refreshes the ETag and last-modified time. Every mutation of a blob
// or container must go through Touch so conditional requests observe it.
func (p *Properties) Touch() {
	p.ETag = NewETag()
	p.LastModified = time.Now().UTC()
}

// NewETag returns a new opaque entity tag in the service's quoted 0x format.
func NewETag() string {
	id := uuid.New()
	return fmt.Sprintf("\"0x%s\"", hex.EncodeToString(id[:]))
}

// Blob is the metadata record of a blob or a blob snapshot.
type Blob struct {
	Account   string
	Container string
	Name      string

	// Snapshot is the snapshot timestamp, or empty for the base blob.
	Snapshot string

	Props    Properties
	Metadata map[string]string
	Tags     map[string]string

	// Extents is the ordered list of content chunks. Concatenated in order
	// they form the blob payload.
	Extents []ExtentRef

	// Blocks is the committed block list, in commit order. Block blobs only.
	Blocks []CommittedBlock

	// PageRanges tracks the written page ranges, sorted and non-overlapping.
	// Page blobs only.
	PageRanges []PageRange

	Deleted   bool
	DeletedOn time.Time
}

// New creates a base blob record with fresh properties.
func New(account, container, name string, blobType Type, contentLength uint64) *Blob {
	return &Blob{
		Account:   account,
		Container: container,
		Name:      name,
		Props:     NewProperties(blobType, contentLength),
		Metadata:  map[string]string{},
		Tags:      map[string]string{},
	}
}

// Key returns the unique store key of this blob record.
func (b *Blob) Key() string {
	if b.Snapshot == "" {
		return b.Account + "/" + b.Container + "/" + b.Name
	}
	return b.Account + "/" + b.Container + "/" + b.Name + "/" + b.Snapshot
}

// IsSnapshot reports whether this record is a snapshot rather than a base blob.
func (b *Blob) IsSnapshot() bool { return b.Snapshot != "" }

// NewSnapshot returns an immutable point-in-time copy of the blob, stamped
// with a snapshot timestamp. Lease state does not carry over to snapshots.
func (b *Blob) NewSnapshot(at time.Time) *Blob {
	snap := b.Clone()
	snap.Snapshot = at.UTC().Format(SnapshotTimeFormat)
	snap.Props.LeaseState = LeaseStateAvailable
	snap.Props.LeaseStatus = LeaseStatusUnlocked
	snap.Props.LeaseID = ""
	snap.Props.LeaseDuration = ""
	return snap
}

// Clone returns a deep copy of the blob record.
func (b *Blob) Clone() *Blob {
	c := *b
	c.Metadata = make(map[string]string, len(b.Metadata))
	for k, v := range b.Metadata {
		c.Metadata[k] = v
	}
	c.Tags = make(map[string]string, len(b.Tags))
	for k, v := range b.Tags {
		c.Tags[k] = v
	}
	c.Extents = append([]ExtentRef(nil), b.Extents...)
	c.Blocks = append([]CommittedBlock(nil), b.Blocks...)
	c.PageRanges = append([]PageRange(nil), b.PageRanges...)
	return &c
}
