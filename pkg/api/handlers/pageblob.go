package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/xmlcodec"
)

func errPageAlignment() error {
	return bloberror.WithMessage(bloberror.InvalidHeaderValue,
		"Page blob size must be aligned to a 512-byte boundary.")
}

func (h *Handler) createPageBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	v := ctx.Header("x-ms-blob-content-length")
	if v == "" {
		return bloberror.New(bloberror.MissingRequiredHeader)
	}
	size, err := strconv.ParseUint(v, 10, 64)
	if err != nil || size > blob.MaxPageBlobSize {
		return bloberror.New(bloberror.InvalidHeaderValue)
	}
	if size%blob.PageSize != 0 {
		return errPageAlignment()
	}

	var seq uint64
	if sv := ctx.Header("x-ms-blob-sequence-number"); sv != "" {
		seq, err = strconv.ParseUint(sv, 10, 64)
		if err != nil {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
	}

	oldExtents, err := h.checkExistingForOverwrite(ctx, r)
	if err != nil {
		return err
	}

	b := blob.New(ctx.Account, ctx.Container, ctx.Blob, blob.TypePage, size)
	b.Props.SequenceNumber = seq
	applyUploadHeaders(ctx, &b.Props)
	b.Metadata = ctx.Metadata()

	// Page blobs are materialized: the payload is always fully backed so
	// range reads never have to synthesize zero pages.
	b.Extents, err = h.writeContent(r.Context(), make([]byte, size))
	if err != nil {
		return err
	}

	if err := h.meta.PutBlob(r.Context(), b); err != nil {
		return err
	}
	h.dropExtents(r.Context(), oldExtents)

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-request-server-encrypted", "true")
	w.WriteHeader(http.StatusCreated)
	return nil
}

// splice rewrites the blob payload with data placed at offset and swaps the
// extent list for a single fresh extent. The returned refs are the replaced
// extents; the caller releases them once the record is persisted.
func (h *Handler) splice(ctx context.Context, b *blob.Blob, offset uint64, data []byte) ([]blob.ExtentRef, error) {
	content, err := h.readContent(ctx, b, 0, b.Props.ContentLength)
	if err != nil {
		return nil, err
	}
	copy(content[offset:], data)

	old := b.Extents
	b.Extents, err = h.writeContent(ctx, content)
	if err != nil {
		return nil, err
	}
	return old, nil
}

func checkSequenceConditions(ctx *api.Context, current uint64) error {
	check := func(header string, ok func(n uint64) bool) error {
		v := ctx.Header(header)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
		if !ok(n) {
			return bloberror.New(bloberror.SequenceNumberConditionNotMet)
		}
		return nil
	}

	if err := check("x-ms-if-sequence-number-le", func(n uint64) bool { return current <= n }); err != nil {
		return err
	}
	if err := check("x-ms-if-sequence-number-lt", func(n uint64) bool { return current < n }); err != nil {
		return err
	}
	return check("x-ms-if-sequence-number-eq", func(n uint64) bool { return current == n })
}

func (h *Handler) putPage(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if b.Props.BlobType != blob.TypePage {
		return bloberror.New(bloberror.InvalidBlobType)
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}
	if err := checkSequenceConditions(ctx, b.Props.SequenceNumber); err != nil {
		return err
	}

	action := strings.ToLower(ctx.Header("x-ms-page-write"))
	if action == "" {
		return bloberror.New(bloberror.MissingRequiredHeader)
	}
	if action != "update" && action != "clear" {
		return bloberror.New(bloberror.InvalidHeaderValue)
	}

	rng, ok := ctx.Range()
	if !ok {
		return bloberror.New(bloberror.MissingRequiredHeader)
	}
	if !rng.HasEnd {
		return bloberror.New(bloberror.InvalidRange)
	}
	if rng.Start%blob.PageSize != 0 || (rng.End+1)%blob.PageSize != 0 || rng.End >= b.Props.ContentLength {
		return bloberror.New(bloberror.InvalidPageRange)
	}
	size := rng.End - rng.Start + 1

	var replaced []blob.ExtentRef
	switch action {
	case "update":
		if size > blob.MaxPageRangeSize {
			return bloberror.New(bloberror.InvalidPageRange)
		}
		data, err := readBody(r)
		if err != nil {
			return err
		}
		if uint64(len(data)) != size {
			return bloberror.WithMessage(bloberror.InvalidHeaderValue,
				"Content-Length must match the page range size.")
		}
		if err := checkContentMD5(ctx, data); err != nil {
			return err
		}
		if replaced, err = h.splice(r.Context(), b, rng.Start, data); err != nil {
			return err
		}
		b.PageRanges = blob.MergeRange(b.PageRanges, blob.PageRange{Start: rng.Start, End: rng.End})

	case "clear":
		var err error
		if replaced, err = h.splice(r.Context(), b, rng.Start, make([]byte, size)); err != nil {
			return err
		}
		b.PageRanges = blob.RemoveRange(b.PageRanges, blob.PageRange{Start: rng.Start, End: rng.End})
	}

	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}
	h.dropExtents(r.Context(), replaced)

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-blob-sequence-number", strconv.FormatUint(b.Props.SequenceNumber, 10))
	w.WriteHeader(http.StatusCreated)
	return nil
}

// resizePageBlob changes the blob length, zero-extending growth and clamping
// the written ranges on shrink. The returned refs are the replaced extents;
// the caller releases them once the record is persisted.
func (h *Handler) resizePageBlob(ctx context.Context, b *blob.Blob, size uint64) ([]blob.ExtentRef, error) {
	if size == b.Props.ContentLength {
		return nil, nil
	}

	content, err := h.readContent(ctx, b, 0, b.Props.ContentLength)
	if err != nil {
		return nil, err
	}
	if size < uint64(len(content)) {
		content = content[:size]
	} else {
		content = append(content, make([]byte, size-uint64(len(content)))...)
	}

	old := b.Extents
	b.Extents, err = h.writeContent(ctx, content)
	if err != nil {
		return nil, err
	}

	b.Props.ContentLength = size
	b.PageRanges = blob.ClampRanges(b.PageRanges, size)
	return old, nil
}

// rangeFilter restricts a page range listing to the requested byte window.
func rangeFilter(ctx *api.Context, set []blob.PageRange, length uint64) []blob.PageRange {
	rng, ok := ctx.Range()
	if !ok || length == 0 {
		return set
	}
	end := length - 1
	if rng.HasEnd && rng.End < end {
		end = rng.End
	}
	var out []blob.PageRange
	for _, cur := range set {
		if cur.End < rng.Start || cur.Start > end {
			continue
		}
		if cur.Start < rng.Start {
			cur.Start = rng.Start
		}
		if cur.End > end {
			cur.End = end
		}
		out = append(out, cur)
	}
	return out
}

func (h *Handler) getPageRanges(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	if b.Props.BlobType != blob.TypePage {
		return bloberror.New(bloberror.InvalidBlobType)
	}

	ranges := rangeFilter(ctx, b.PageRanges, b.Props.ContentLength)

	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-blob-content-length", strconv.FormatUint(b.Props.ContentLength, 10))
	respondXML(w, ctx, http.StatusOK, xmlcodec.PageList(ranges, nil))
	return nil
}

func (h *Handler) getPageRangesDiff(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	prev := ctx.Query("prevsnapshot")
	if prev == "" {
		return bloberror.New(bloberror.MissingRequiredQueryParameter)
	}

	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	if b.Props.BlobType != blob.TypePage {
		return bloberror.New(bloberror.InvalidBlobType)
	}

	base, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, prev)
	if err != nil {
		return bloberror.New(bloberror.PreviousSnapshotNotFound)
	}

	changed := rangeFilter(ctx, blob.SubtractRanges(b.PageRanges, base.PageRanges), b.Props.ContentLength)
	cleared := rangeFilter(ctx, blob.SubtractRanges(base.PageRanges, b.PageRanges), b.Props.ContentLength)

	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-blob-content-length", strconv.FormatUint(b.Props.ContentLength, 10))
	respondXML(w, ctx, http.StatusOK, xmlcodec.PageList(changed, cleared))
	return nil
}
