// Package metadata defines the control-state store interface: containers,
// blobs, snapshots, staged blocks and per-account service properties.
// Content bytes live in the extent store; this layer only holds references.
package metadata

import (
	"context"
	"errors"

	"github.com/bloblite/bloblite/pkg/blob"
)

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("metadata store is closed")

// ListContainersParams filters and pages a container listing.
type ListContainersParams struct {
	Prefix     string
	Marker     string
	MaxResults int
}

// ListBlobsParams filters and pages a blob listing.
type ListBlobsParams struct {
	Prefix     string
	Marker     string
	Delimiter  string
	MaxResults int

	IncludeSnapshots bool
	IncludeDeleted   bool
}

// ContainerPage is one page of a container listing.
type ContainerPage struct {
	Items      []*blob.Container
	NextMarker string
}

// BlobPage is one page of a blob listing. When a delimiter is in play,
// Prefixes holds the folded virtual-directory entries.
type BlobPage struct {
	Items      []*blob.Blob
	Prefixes   []string
	NextMarker string
}

// Store is the interface for metadata storage backends. Implementations
// return copies of stored records; callers mutate a copy and persist it with
// the corresponding Update method.
type Store interface {
	CreateContainer(ctx context.Context, c *blob.Container) error
	GetContainer(ctx context.Context, account, name string) (*blob.Container, error)
	UpdateContainer(ctx context.Context, c *blob.Container) error
	// DeleteContainer removes the container together with all of its blobs,
	// snapshots and staged blocks.
	DeleteContainer(ctx context.Context, account, name string) error
	ContainerExists(ctx context.Context, account, name string) (bool, error)
	ListContainers(ctx context.Context, account string, params ListContainersParams) (ContainerPage, error)

	// PutBlob upserts a base blob. Snapshots are insert-only; a duplicate
	// snapshot key is refused.
	PutBlob(ctx context.Context, b *blob.Blob) error
	GetBlob(ctx context.Context, account, container, name, snapshot string) (*blob.Blob, error)
	UpdateBlob(ctx context.Context, b *blob.Blob) error
	DeleteBlob(ctx context.Context, account, container, name, snapshot string) error
	BlobExists(ctx context.Context, account, container, name string) (bool, error)
	ListBlobs(ctx context.Context, account, container string, params ListBlobsParams) (BlobPage, error)
	// Snapshots returns the snapshots of a blob ordered oldest first.
	Snapshots(ctx context.Context, account, container, name string) ([]*blob.Blob, error)

	// StageBlock stores an uncommitted block; staging an ID again replaces
	// the previous payload.
	StageBlock(ctx context.Context, blk *blob.Block) error
	StagedBlock(ctx context.Context, account, container, name, id string) (*blob.Block, error)
	// StagedBlocks returns the staged blocks of a blob in staging order.
	StagedBlocks(ctx context.Context, account, container, name string) ([]*blob.Block, error)
	ClearStagedBlocks(ctx context.Context, account, container, name string) error

	ServiceProperties(ctx context.Context, account string) (*blob.ServiceProperties, error)
	SetServiceProperties(ctx context.Context, account string, props *blob.ServiceProperties) error

	// ReferencedExtents returns the IDs of every extent referenced by any
	// blob, snapshot or staged block. Used by the garbage collector.
	ReferencedExtents(ctx context.Context) (map[string]struct{}, error)

	// Stats reports the number of containers and blob records (snapshots
	// included), feeding the store gauges.
	Stats(ctx context.Context) (containers, blobs int, err error)

	HealthCheck(ctx context.Context) error
	Close() error
}
