package blob

import "time"

// Block is a staged (uncommitted) block of a block blob. Staged blocks live
// outside the blob record until a Put Block List commits them.
type Block struct {
	Account   string
	Container string
	Blob      string

	// ID is the base64-encoded block identifier as sent by the client.
	ID string

	Size     uint64
	Extent   ExtentRef
	StagedAt time.Time
}

// CommittedBlock is a block that has been committed into a block blob by a
// Put Block List. The store keeps these in commit order so Get Block List
// can reproduce the list.
type CommittedBlock struct {
	ID   string
	Size uint64
}
