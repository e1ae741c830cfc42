// Package extent defines the content store interface. Extents are immutable
// chunks of blob payload referenced by the metadata layer; a blob's content
// is the concatenation of its extent references.
package extent

import (
	"context"
	"errors"

	"github.com/bloblite/bloblite/pkg/blob"
)

var (
	// ErrExtentNotFound is returned when the referenced extent does not exist.
	ErrExtentNotFound = errors.New("extent not found")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("extent store is closed")
)

// Store is the interface for extent storage backends.
//
// Write stores a new immutable extent and returns a reference covering the
// whole payload. Extents are never mutated in place; overwrites at the blob
// level produce new extents and the garbage collector reclaims unreferenced
// ones.
type Store interface {
	// Write stores data as a new extent and returns its reference.
	Write(ctx context.Context, data []byte) (blob.ExtentRef, error)

	// Read returns the bytes covered by ref.
	Read(ctx context.Context, ref blob.ExtentRef) ([]byte, error)

	// ReadRange returns length bytes starting at offset within ref.
	ReadRange(ctx context.Context, ref blob.ExtentRef, offset, length uint64) ([]byte, error)

	// Delete removes an extent. Deleting a missing extent is not an error.
	Delete(ctx context.Context, id string) error

	// TotalSize returns the total stored bytes.
	TotalSize() uint64

	// IDs returns the IDs of all stored extents.
	IDs(ctx context.Context) ([]string, error)

	// HealthCheck verifies the store is operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources. Subsequent operations return ErrStoreClosed.
	Close() error
}
