package handlers

import (
	"net/http"
	"strconv"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

func (h *Handler) createAppendBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	oldExtents, err := h.checkExistingForOverwrite(ctx, r)
	if err != nil {
		return err
	}

	b := blob.New(ctx.Account, ctx.Container, ctx.Blob, blob.TypeAppend, 0)
	applyUploadHeaders(ctx, &b.Props)
	b.Metadata = ctx.Metadata()

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

func (h *Handler) appendBlock(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if b.Props.BlobType != blob.TypeAppend {
		return bloberror.New(bloberror.InvalidBlobType)
	}
	if b.Props.Sealed {
		return bloberror.WithMessage(bloberror.InvalidOperation, "Cannot append to a sealed blob.")
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}
	if b.Props.CommittedBlockCount >= blob.MaxAppendBlockCount {
		return bloberror.New(bloberror.BlockCountExceedsLimit)
	}

	data, err := readBody(r)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return bloberror.New(bloberror.InvalidHeaderValue)
	}
	if len(data) > blob.MaxAppendBlockSize {
		return bloberror.New(bloberror.RequestBodyTooLarge)
	}
	if err := checkContentMD5(ctx, data); err != nil {
		return err
	}

	offset := b.Props.ContentLength
	if v := ctx.Header("x-ms-blob-condition-appendpos"); v != "" {
		pos, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
		if pos != offset {
			return bloberror.New(bloberror.AppendPositionConditionNotMet)
		}
	}
	if v := ctx.Header("x-ms-blob-condition-maxsize"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
		if offset+uint64(len(data)) > limit {
			return bloberror.New(bloberror.MaxBlobSizeConditionNotMet)
		}
	}

	ref, err := h.extents.Write(r.Context(), data)
	if err != nil {
		return err
	}
	b.Extents = append(b.Extents, ref)
	b.Props.ContentLength += uint64(len(data))
	b.Props.CommittedBlockCount++
	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-blob-append-offset", strconv.FormatUint(offset, 10))
	w.Header().Set("x-ms-blob-committed-block-count", strconv.FormatUint(uint64(b.Props.CommittedBlockCount), 10))
	w.Header().Set("x-ms-request-server-encrypted", "true")
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *Handler) sealBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if b.Props.BlobType != blob.TypeAppend {
		return bloberror.New(bloberror.InvalidBlobType)
	}
	if b.Props.Sealed {
		return bloberror.WithMessage(bloberror.InvalidOperation, "Blob is already sealed.")
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	b.Props.Sealed = true
	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-blob-sealed", "true")
	w.WriteHeader(http.StatusOK)
	return nil
}
