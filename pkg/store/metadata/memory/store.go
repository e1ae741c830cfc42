// Package memory provides the in-memory metadata store. All records are
// guarded by a single RWMutex; reads and writes exchange copies so callers
// never alias store-internal state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// Store is an in-memory implementation of metadata.Store.
type Store struct {
	mu sync.RWMutex

	// containers keyed account/name.
	containers map[string]*blob.Container

	// blobs keyed account/container/name(/snapshot).
	blobs map[string]*blob.Blob

	// blobNames indexes base blob names per account/container for ordered
	// listing.
	blobNames map[string]map[string]struct{}

	// snaps holds the snapshot timestamps of each base blob, oldest first.
	snaps map[string][]string

	// blocks holds staged blocks per base blob; blockOrder preserves
	// staging order for deterministic Get Block List output.
	blocks     map[string]map[string]*blob.Block
	blockOrder map[string][]string

	serviceProps map[string]*blob.ServiceProperties

	closed bool
}

var _ metadata.Store = (*Store)(nil)

// New creates an empty in-memory metadata store.
func New() *Store {
	return &Store{
		containers:   make(map[string]*blob.Container),
		blobs:        make(map[string]*blob.Blob),
		blobNames:    make(map[string]map[string]struct{}),
		snaps:        make(map[string][]string),
		blocks:       make(map[string]map[string]*blob.Block),
		blockOrder:   make(map[string][]string),
		serviceProps: make(map[string]*blob.ServiceProperties),
	}
}

func containerKey(account, name string) string { return account + "/" + name }

func blobBaseKey(account, container, name string) string {
	return account + "/" + container + "/" + name
}

func blobKey(account, container, name, snapshot string) string {
	k := blobBaseKey(account, container, name)
	if snapshot != "" {
		k += "/" + snapshot
	}
	return k
}

func (s *Store) CreateContainer(ctx context.Context, c *blob.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	key := c.Key()
	if _, exists := s.containers[key]; exists {
		return bloberror.New(bloberror.ContainerAlreadyExists)
	}
	s.containers[key] = c.Clone()
	return nil
}

func (s *Store) GetContainer(ctx context.Context, account, name string) (*blob.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	c, ok := s.containers[containerKey(account, name)]
	if !ok {
		return nil, bloberror.New(bloberror.ContainerNotFound)
	}
	return c.Clone(), nil
}

func (s *Store) UpdateContainer(ctx context.Context, c *blob.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	key := c.Key()
	if _, ok := s.containers[key]; !ok {
		return bloberror.New(bloberror.ContainerNotFound)
	}
	s.containers[key] = c.Clone()
	return nil
}

func (s *Store) DeleteContainer(ctx context.Context, account, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	ckey := containerKey(account, name)
	if _, ok := s.containers[ckey]; !ok {
		return bloberror.New(bloberror.ContainerNotFound)
	}
	delete(s.containers, ckey)

	for blobName := range s.blobNames[ckey] {
		base := blobBaseKey(account, name, blobName)
		for _, snap := range s.snaps[base] {
			delete(s.blobs, base+"/"+snap)
		}
		delete(s.snaps, base)
		delete(s.blobs, base)
		delete(s.blocks, base)
		delete(s.blockOrder, base)
	}
	delete(s.blobNames, ckey)
	return nil
}

func (s *Store) ContainerExists(ctx context.Context, account, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, metadata.ErrStoreClosed
	}
	_, ok := s.containers[containerKey(account, name)]
	return ok, nil
}

func (s *Store) ListContainers(ctx context.Context, account string, params metadata.ListContainersParams) (metadata.ContainerPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return metadata.ContainerPage{}, metadata.ErrStoreClosed
	}

	prefix := account + "/"
	var names []string
	for key, c := range s.containers {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if params.Prefix != "" && !strings.HasPrefix(c.Name, params.Prefix) {
			continue
		}
		if params.Marker != "" && c.Name <= params.Marker {
			continue
		}
		names = append(names, c.Name)
	}
	sort.Strings(names)

	max := params.MaxResults
	if max <= 0 {
		max = blob.DefaultListMaxResults
	}

	var page metadata.ContainerPage
	for _, name := range names {
		if len(page.Items) == max {
			page.NextMarker = page.Items[len(page.Items)-1].Name
			break
		}
		page.Items = append(page.Items, s.containers[containerKey(account, name)].Clone())
	}
	return page, nil
}

func (s *Store) PutBlob(ctx context.Context, b *blob.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	key := b.Key()
	if b.IsSnapshot() {
		if _, exists := s.blobs[key]; exists {
			return bloberror.New(bloberror.ResourceAlreadyExists)
		}
		base := blobBaseKey(b.Account, b.Container, b.Name)
		s.snaps[base] = insertSorted(s.snaps[base], b.Snapshot)
	}
	s.blobs[key] = b.Clone()

	ckey := containerKey(b.Account, b.Container)
	if s.blobNames[ckey] == nil {
		s.blobNames[ckey] = make(map[string]struct{})
	}
	s.blobNames[ckey][b.Name] = struct{}{}
	return nil
}

func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func (s *Store) GetBlob(ctx context.Context, account, container, name, snapshot string) (*blob.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	if _, ok := s.containers[containerKey(account, container)]; !ok {
		return nil, bloberror.New(bloberror.ContainerNotFound)
	}
	b, ok := s.blobs[blobKey(account, container, name, snapshot)]
	if !ok {
		return nil, bloberror.New(bloberror.BlobNotFound)
	}
	return b.Clone(), nil
}

func (s *Store) UpdateBlob(ctx context.Context, b *blob.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	key := b.Key()
	if _, ok := s.blobs[key]; !ok {
		return bloberror.New(bloberror.BlobNotFound)
	}
	s.blobs[key] = b.Clone()
	return nil
}

func (s *Store) DeleteBlob(ctx context.Context, account, container, name, snapshot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	key := blobKey(account, container, name, snapshot)
	if _, ok := s.blobs[key]; !ok {
		return bloberror.New(bloberror.BlobNotFound)
	}
	delete(s.blobs, key)

	base := blobBaseKey(account, container, name)
	if snapshot != "" {
		s.snaps[base] = removeString(s.snaps[base], snapshot)
		return nil
	}

	// Deleting a base blob takes its snapshots and staged blocks with it.
	for _, snap := range s.snaps[base] {
		delete(s.blobs, base+"/"+snap)
	}
	delete(s.snaps, base)
	delete(s.blocks, base)
	delete(s.blockOrder, base)

	ckey := containerKey(account, container)
	if names, ok := s.blobNames[ckey]; ok {
		delete(names, name)
	}
	return nil
}

func removeString(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (s *Store) BlobExists(ctx context.Context, account, container, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, metadata.ErrStoreClosed
	}
	_, ok := s.blobs[blobBaseKey(account, container, name)]
	return ok, nil
}

func (s *Store) ListBlobs(ctx context.Context, account, container string, params metadata.ListBlobsParams) (metadata.BlobPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return metadata.BlobPage{}, metadata.ErrStoreClosed
	}

	ckey := containerKey(account, container)
	if _, ok := s.containers[ckey]; !ok {
		return metadata.BlobPage{}, bloberror.New(bloberror.ContainerNotFound)
	}

	var names []string
	for name := range s.blobNames[ckey] {
		if params.Prefix != "" && !strings.HasPrefix(name, params.Prefix) {
			continue
		}
		if params.Marker != "" && name <= params.Marker {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	max := params.MaxResults
	if max <= 0 {
		max = blob.DefaultListMaxResults
	}

	var page metadata.BlobPage
	count := 0
	lastName := ""
	lastPrefix := ""

	for _, name := range names {
		if params.Delimiter != "" {
			rest := name[len(params.Prefix):]
			if idx := strings.Index(rest, params.Delimiter); idx >= 0 {
				dir := name[:len(params.Prefix)+idx+len(params.Delimiter)]
				if dir == lastPrefix {
					continue
				}
				if count >= max {
					page.NextMarker = lastName
					return page, nil
				}
				lastPrefix = dir
				lastName = name
				page.Prefixes = append(page.Prefixes, dir)
				count++
				continue
			}
		}

		group := s.blobEntries(account, container, name, params)
		if len(group) == 0 {
			continue
		}
		// Entries of one blob name stay together on a page.
		if count > 0 && count+len(group) > max {
			page.NextMarker = lastName
			return page, nil
		}
		page.Items = append(page.Items, group...)
		count += len(group)
		lastName = name
	}
	return page, nil
}

// blobEntries returns the listing entries for one blob name: snapshots
// oldest first, then the base blob. Caller holds the lock.
func (s *Store) blobEntries(account, container, name string, params metadata.ListBlobsParams) []*blob.Blob {
	base := blobBaseKey(account, container, name)

	var out []*blob.Blob
	if params.IncludeSnapshots {
		for _, snap := range s.snaps[base] {
			if b, ok := s.blobs[base+"/"+snap]; ok {
				out = append(out, b.Clone())
			}
		}
	}
	if b, ok := s.blobs[base]; ok {
		if !b.Deleted || params.IncludeDeleted {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (s *Store) Snapshots(ctx context.Context, account, container, name string) ([]*blob.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	base := blobBaseKey(account, container, name)
	var out []*blob.Blob
	for _, snap := range s.snaps[base] {
		if b, ok := s.blobs[base+"/"+snap]; ok {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (s *Store) StageBlock(ctx context.Context, blk *blob.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	base := blobBaseKey(blk.Account, blk.Container, blk.Blob)
	if s.blocks[base] == nil {
		s.blocks[base] = make(map[string]*blob.Block)
	}
	if _, exists := s.blocks[base][blk.ID]; !exists {
		s.blockOrder[base] = append(s.blockOrder[base], blk.ID)
	}
	cp := *blk
	s.blocks[base][blk.ID] = &cp
	return nil
}

func (s *Store) StagedBlock(ctx context.Context, account, container, name, id string) (*blob.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	blk, ok := s.blocks[blobBaseKey(account, container, name)][id]
	if !ok {
		return nil, bloberror.New(bloberror.InvalidBlockID)
	}
	cp := *blk
	return &cp, nil
}

func (s *Store) StagedBlocks(ctx context.Context, account, container, name string) ([]*blob.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	base := blobBaseKey(account, container, name)
	var out []*blob.Block
	for _, id := range s.blockOrder[base] {
		if blk, ok := s.blocks[base][id]; ok {
			cp := *blk
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ClearStagedBlocks(ctx context.Context, account, container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	base := blobBaseKey(account, container, name)
	delete(s.blocks, base)
	delete(s.blockOrder, base)
	return nil
}

func (s *Store) ServiceProperties(ctx context.Context, account string) (*blob.ServiceProperties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	if props, ok := s.serviceProps[account]; ok {
		cp := *props
		cp.Cors = append([]blob.CorsRule(nil), props.Cors...)
		return &cp, nil
	}
	defaults := blob.DefaultServiceProperties()
	return &defaults, nil
}

func (s *Store) SetServiceProperties(ctx context.Context, account string, props *blob.ServiceProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}

	cp := *props
	cp.Cors = append([]blob.CorsRule(nil), props.Cors...)
	s.serviceProps[account] = &cp
	return nil
}

func (s *Store) ReferencedExtents(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, metadata.ErrStoreClosed
	}

	refs := make(map[string]struct{})
	for _, b := range s.blobs {
		for _, ext := range b.Extents {
			refs[ext.ID] = struct{}{}
		}
	}
	for _, byID := range s.blocks {
		for _, blk := range byID {
			refs[blk.Extent.ID] = struct{}{}
		}
	}
	return refs, nil
}

func (s *Store) Stats(ctx context.Context) (containers, blobs int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, 0, metadata.ErrStoreClosed
	}
	return len(s.containers), len(s.blobs), nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return metadata.ErrStoreClosed
	}
	return nil
}

// Close discards all state. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.containers = nil
	s.blobs = nil
	s.blobNames = nil
	s.snaps = nil
	s.blocks = nil
	s.blockOrder = nil
	s.serviceProps = nil
	return nil
}

// ContainerCount returns the number of containers. Test helper.
func (s *Store) ContainerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.containers)
}

// BlobCount returns the number of blob records including snapshots. Test helper.
func (s *Store) BlobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
