package handlers

import (
	"crypto/md5"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/xmlcodec"
)

// checkContentMD5 validates a client-supplied Content-MD5 against the body.
func checkContentMD5(ctx *api.Context, data []byte) error {
	want := ctx.ContentMD5()
	if want == "" {
		return nil
	}
	sum := md5.Sum(data)
	if base64.StdEncoding.EncodeToString(sum[:]) != want {
		return bloberror.New(bloberror.MD5Mismatch)
	}
	return nil
}

// applyUploadHeaders fills the content properties of a freshly uploaded blob
// from the x-ms-blob-content-* headers, falling back to the request entity
// headers.
func applyUploadHeaders(ctx *api.Context, p *blob.Properties) {
	if v := ctx.Header("x-ms-blob-content-type"); v != "" {
		p.ContentType = v
	} else if v := ctx.ContentType(); v != "" {
		p.ContentType = v
	}
	p.ContentEncoding = ctx.Header("x-ms-blob-content-encoding")
	p.ContentLanguage = ctx.Header("x-ms-blob-content-language")
	p.CacheControl = ctx.Header("x-ms-blob-cache-control")
	p.ContentDisposition = ctx.Header("x-ms-blob-content-disposition")
	if v := ctx.Header("x-ms-blob-content-md5"); v != "" {
		p.ContentMD5 = v
	} else {
		p.ContentMD5 = ctx.ContentMD5()
	}
}

// checkExistingForOverwrite runs lease and conditional checks against the
// blob a write would replace. Returns the extents to release afterwards.
func (h *Handler) checkExistingForOverwrite(ctx *api.Context, r *http.Request) ([]blob.ExtentRef, error) {
	existing, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	if err != nil {
		if bloberror.IsCode(err, bloberror.BlobNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := checkLeaseWrite(existing.Props.LeaseState, existing.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return nil, err
	}
	if err := checkConditions(ctx, existing.Props.ETag, existing.Props.LastModified); err != nil {
		return nil, err
	}
	return existing.Extents, nil
}

// putBlob handles Put Blob for all three blob types. Page and append blob
// creation carry no content; block blobs take the whole payload in one shot.
func (h *Handler) putBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container); err != nil {
		return err
	}

	// A missing or unrecognized x-ms-blob-type is a block blob upload.
	switch blobType, _ := blob.ParseType(ctx.BlobType()); blobType {
	case blob.TypePage:
		return h.createPageBlob(ctx, w, r)
	case blob.TypeAppend:
		return h.createAppendBlob(ctx, w, r)
	}

	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := checkContentMD5(ctx, data); err != nil {
		return err
	}

	oldExtents, err := h.checkExistingForOverwrite(ctx, r)
	if err != nil {
		return err
	}

	b := blob.New(ctx.Account, ctx.Container, ctx.Blob, blob.TypeBlock, uint64(len(data)))
	applyUploadHeaders(ctx, &b.Props)
	b.Metadata = ctx.Metadata()
	if v := ctx.Header("x-ms-access-tier"); v != "" {
		tier, ok := blob.ParseAccessTier(v)
		if !ok {
			return bloberror.New(bloberror.InvalidBlobTier)
		}
		b.Props.AccessTier = tier
	}

	b.Extents, err = h.writeContent(r.Context(), data)
	if err != nil {
		return err
	}

	staged, err := h.stagedExtents(r, ctx)
	if err != nil {
		return err
	}
	if err := h.meta.ClearStagedBlocks(r.Context(), ctx.Account, ctx.Container, ctx.Blob); err != nil {
		return err
	}
	if err := h.meta.PutBlob(r.Context(), b); err != nil {
		return err
	}
	h.dropExtents(r.Context(), append(oldExtents, staged...))

	sum := md5.Sum(data)
	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))
	w.Header().Set("x-ms-request-server-encrypted", "true")
	w.WriteHeader(http.StatusCreated)
	return nil
}

// stagedExtents collects the extent refs held by the blob's staging area.
func (h *Handler) stagedExtents(r *http.Request, ctx *api.Context) ([]blob.ExtentRef, error) {
	staged, err := h.meta.StagedBlocks(r.Context(), ctx.Account, ctx.Container, ctx.Blob)
	if err != nil {
		return nil, err
	}
	refs := make([]blob.ExtentRef, 0, len(staged))
	for _, blk := range staged {
		refs = append(refs, blk.Extent)
	}
	return refs, nil
}

func validateBlockID(id string) error {
	if id == "" {
		return bloberror.New(bloberror.MissingRequiredQueryParameter)
	}
	decoded, err := base64.StdEncoding.DecodeString(id)
	if err != nil || len(decoded) == 0 || len(decoded) > blob.MaxBlockIDLength {
		return bloberror.New(bloberror.InvalidBlockID)
	}
	return nil
}

func (h *Handler) putBlock(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container); err != nil {
		return err
	}

	id := ctx.Query("blockid")
	if err := validateBlockID(id); err != nil {
		return err
	}

	// Staging against an existing blob of another type is refused; a missing
	// base blob is fine, the staging area exists independently.
	existing, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	if err == nil {
		if existing.Props.BlobType != blob.TypeBlock {
			return bloberror.New(bloberror.InvalidBlobType)
		}
		if err := checkLeaseWrite(existing.Props.LeaseState, existing.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
			return err
		}
	} else if !bloberror.IsCode(err, bloberror.BlobNotFound) {
		return err
	}

	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := checkContentMD5(ctx, data); err != nil {
		return err
	}

	var ref blob.ExtentRef
	if len(data) > 0 {
		ref, err = h.extents.Write(r.Context(), data)
		if err != nil {
			return err
		}
	}

	prev, err := h.meta.StagedBlock(r.Context(), ctx.Account, ctx.Container, ctx.Blob, id)
	if err != nil && !bloberror.IsCode(err, bloberror.InvalidBlockID) {
		return err
	}

	blk := &blob.Block{
		Account:   ctx.Account,
		Container: ctx.Container,
		Blob:      ctx.Blob,
		ID:        id,
		Size:      uint64(len(data)),
		Extent:    ref,
		StagedAt:  time.Now().UTC(),
	}
	if err := h.meta.StageBlock(r.Context(), blk); err != nil {
		return err
	}
	if prev != nil {
		h.dropExtents(r.Context(), []blob.ExtentRef{prev.Extent})
	}

	commonHeaders(w, ctx)
	w.Header().Set("x-ms-request-server-encrypted", "true")
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *Handler) putBlockList(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container); err != nil {
		return err
	}

	refs, err := xmlcodec.ParseBlockList(r.Body)
	if err != nil {
		return err
	}
	if len(refs) > blob.MaxAppendBlockCount {
		return bloberror.New(bloberror.BlockCountExceedsLimit)
	}

	existing, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	var oldExtents []blob.ExtentRef
	committed := map[string]int{}
	if err == nil {
		if existing.Props.BlobType != blob.TypeBlock {
			return bloberror.New(bloberror.InvalidBlobType)
		}
		if err := checkLeaseWrite(existing.Props.LeaseState, existing.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
			return err
		}
		if err := checkConditions(ctx, existing.Props.ETag, existing.Props.LastModified); err != nil {
			return err
		}
		oldExtents = existing.Extents
		for i, blk := range existing.Blocks {
			committed[blk.ID] = i
		}
	} else if !bloberror.IsCode(err, bloberror.BlobNotFound) {
		return err
	}

	stagedList, err := h.meta.StagedBlocks(r.Context(), ctx.Account, ctx.Container, ctx.Blob)
	if err != nil {
		return err
	}
	staged := make(map[string]*blob.Block, len(stagedList))
	var stagedRefs []blob.ExtentRef
	for _, blk := range stagedList {
		staged[blk.ID] = blk
		stagedRefs = append(stagedRefs, blk.Extent)
	}

	var (
		extents []blob.ExtentRef
		blocks  []blob.CommittedBlock
		total   uint64
	)
	for _, ref := range refs {
		var (
			size   uint64
			extent blob.ExtentRef
			found  bool
		)
		switch ref.Kind {
		case xmlcodec.BlockRefLatest:
			if blk, ok := staged[ref.ID]; ok {
				size, extent, found = blk.Size, blk.Extent, true
			} else if i, ok := committed[ref.ID]; ok && existing != nil {
				size, extent, found = existing.Blocks[i].Size, existing.Extents[i], true
			}
		case xmlcodec.BlockRefUncommitted:
			if blk, ok := staged[ref.ID]; ok {
				size, extent, found = blk.Size, blk.Extent, true
			}
		case xmlcodec.BlockRefCommitted:
			if i, ok := committed[ref.ID]; ok && existing != nil {
				size, extent, found = existing.Blocks[i].Size, existing.Extents[i], true
			}
		}
		if !found {
			return bloberror.WithMessage(bloberror.InvalidBlockList, "Block %s not found.", ref.ID)
		}
		extents = append(extents, extent)
		blocks = append(blocks, blob.CommittedBlock{ID: ref.ID, Size: size})
		total += size
	}

	b := blob.New(ctx.Account, ctx.Container, ctx.Blob, blob.TypeBlock, total)
	applyUploadHeaders(ctx, &b.Props)
	b.Metadata = ctx.Metadata()
	if v := ctx.Header("x-ms-access-tier"); v != "" {
		tier, ok := blob.ParseAccessTier(v)
		if !ok {
			return bloberror.New(bloberror.InvalidBlobTier)
		}
		b.Props.AccessTier = tier
	}
	b.Extents = extents
	b.Blocks = blocks

	if err := h.meta.ClearStagedBlocks(r.Context(), ctx.Account, ctx.Container, ctx.Blob); err != nil {
		return err
	}
	if err := h.meta.PutBlob(r.Context(), b); err != nil {
		return err
	}
	h.dropExtents(r.Context(), append(oldExtents, stagedRefs...))

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-request-server-encrypted", "true")
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *Handler) getBlockList(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	scope := blob.ParseBlockListScope(ctx.Query("blocklisttype"))

	var (
		committedBlocks []blob.CommittedBlock
		contentLength   uint64
		etag            string
		lastModified    time.Time
	)
	b, err := h.fetchBlob(ctx, r, "")
	switch {
	case err == nil:
		if b.Props.BlobType != blob.TypeBlock {
			return bloberror.New(bloberror.InvalidBlobType)
		}
		committedBlocks = b.Blocks
		contentLength = b.Props.ContentLength
		etag = b.Props.ETag
		lastModified = b.Props.LastModified
	case bloberror.IsCode(err, bloberror.BlobNotFound) && scope != blob.BlockListCommitted:
		// A blob with only staged blocks has no base record yet.
	default:
		return err
	}

	var uncommitted []blob.CommittedBlock
	if scope != blob.BlockListCommitted {
		stagedList, err := h.meta.StagedBlocks(r.Context(), ctx.Account, ctx.Container, ctx.Blob)
		if err != nil {
			return err
		}
		if b == nil && len(stagedList) == 0 {
			return bloberror.New(bloberror.BlobNotFound)
		}
		for _, blk := range stagedList {
			uncommitted = append(uncommitted, blob.CommittedBlock{ID: blk.ID, Size: blk.Size})
		}
	}

	commonHeaders(w, ctx)
	if etag != "" {
		setETagHeaders(w, etag, lastModified)
	}
	w.Header().Set("x-ms-blob-content-length", strconv.FormatUint(contentLength, 10))
	body := xmlcodec.BlockList(scope, committedBlocks, uncommitted)
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
	return nil
}
