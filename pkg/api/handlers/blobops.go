package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/sign"
	"github.com/bloblite/bloblite/pkg/xmlcodec"
)

// fetchBlob loads the blob or snapshot named by the request. Soft-deleted
// records are hidden from everything except undelete.
func (h *Handler) fetchBlob(ctx *api.Context, r *http.Request, snapshot string) (*blob.Blob, error) {
	b, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, snapshot)
	if err != nil {
		return nil, err
	}
	if b.Deleted {
		return nil, bloberror.New(bloberror.BlobNotFound)
	}
	expireLease(&b.Props.LeaseState, &b.Props.LeaseStatus, b.Props.LeaseDuration, b.Props.LeaseExpiry)
	return b, nil
}

// writeBlobHeaders stamps the headers shared by GetBlob and
// GetBlobProperties.
func writeBlobHeaders(w http.ResponseWriter, b *blob.Blob, overrides sign.ResponseOverrides) {
	hdr := w.Header()
	p := b.Props

	contentType := p.ContentType
	if overrides.ContentType != "" {
		contentType = overrides.ContentType
	}
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	setOptHeader(hdr, "Content-Encoding", p.ContentEncoding, overrides.ContentEncoding)
	setOptHeader(hdr, "Content-Language", p.ContentLanguage, overrides.ContentLanguage)
	setOptHeader(hdr, "Cache-Control", p.CacheControl, overrides.CacheControl)
	setOptHeader(hdr, "Content-Disposition", p.ContentDisposition, overrides.ContentDisposition)

	hdr.Set("x-ms-blob-type", p.BlobType.String())
	hdr.Set("x-ms-creation-time", p.CreatedOn.UTC().Format(http.TimeFormat))
	hdr.Set("x-ms-server-encrypted", strconv.FormatBool(p.ServerEncrypted))
	hdr.Set("Accept-Ranges", "bytes")

	switch p.BlobType {
	case blob.TypePage:
		hdr.Set("x-ms-blob-sequence-number", strconv.FormatUint(p.SequenceNumber, 10))
	case blob.TypeAppend:
		hdr.Set("x-ms-blob-committed-block-count", strconv.FormatUint(uint64(p.CommittedBlockCount), 10))
		hdr.Set("x-ms-blob-sealed", strconv.FormatBool(p.Sealed))
	}
}

func setOptHeader(hdr http.Header, name, value, override string) {
	if override != "" {
		value = override
	}
	if value != "" {
		hdr.Set(name, value)
	}
}

func (h *Handler) downloadBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	length := b.Props.ContentLength
	status := http.StatusOK
	start, count := uint64(0), length

	rng, ranged := ctx.Range()
	if ranged {
		if rng.Start >= length {
			return bloberror.New(bloberror.InvalidRange)
		}
		end := length - 1
		if rng.HasEnd && rng.End < end {
			end = rng.End
		}
		start, count = rng.Start, end-rng.Start+1
		status = http.StatusPartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, length))
	}

	data, err := h.readContent(r.Context(), b, start, count)
	if err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	setLeaseHeaders(w, b.Props.LeaseState, b.Props.LeaseStatus)
	setMetadataHeaders(w, b.Metadata)
	writeBlobHeaders(w, b, sign.Overrides(ctx))
	if !ranged && b.Props.ContentMD5 != "" {
		w.Header().Set("Content-MD5", b.Props.ContentMD5)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
	return nil
}

func (h *Handler) getBlobProperties(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	setLeaseHeaders(w, b.Props.LeaseState, b.Props.LeaseStatus)
	setMetadataHeaders(w, b.Metadata)
	writeBlobHeaders(w, b, sign.ResponseOverrides{})

	hdr := w.Header()
	hdr.Set("Content-Length", strconv.FormatUint(b.Props.ContentLength, 10))
	if b.Props.ContentMD5 != "" {
		hdr.Set("Content-MD5", b.Props.ContentMD5)
	}
	hdr.Set("x-ms-access-tier", b.Props.AccessTier.String())
	hdr.Set("x-ms-access-tier-inferred", "true")
	if b.Props.CopyID != "" {
		hdr.Set("x-ms-copy-id", b.Props.CopyID)
		hdr.Set("x-ms-copy-status", b.Props.CopyStatus.String())
		hdr.Set("x-ms-copy-source", b.Props.CopySource)
		hdr.Set("x-ms-copy-progress", b.Props.CopyProgress)
		hdr.Set("x-ms-copy-completion-time", b.Props.CopyCompletedOn.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) deleteBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	snapshot := ctx.Snapshot()
	b, err := h.fetchBlob(ctx, r, snapshot)
	if err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	if snapshot != "" {
		if err := h.meta.DeleteBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, snapshot); err != nil {
			return err
		}
		h.dropExtents(r.Context(), b.Extents)
		respond(w, ctx, http.StatusAccepted)
		return nil
	}

	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}

	snaps, err := h.meta.Snapshots(r.Context(), ctx.Account, ctx.Container, ctx.Blob)
	if err != nil {
		return err
	}

	switch ctx.Header("x-ms-delete-snapshots") {
	case "only":
		var refs []blob.ExtentRef
		for _, s := range snaps {
			if err := h.meta.DeleteBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, s.Snapshot); err != nil {
				return err
			}
			refs = append(refs, s.Extents...)
		}
		h.dropExtents(r.Context(), refs)
		respond(w, ctx, http.StatusAccepted)
		return nil

	case "include":
	default:
		if len(snaps) > 0 {
			return bloberror.New(bloberror.SnapshotsPresent)
		}
	}

	refs := append([]blob.ExtentRef(nil), b.Extents...)
	for _, s := range snaps {
		refs = append(refs, s.Extents...)
	}
	if err := h.meta.DeleteBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, ""); err != nil {
		return err
	}
	h.dropExtents(r.Context(), refs)
	respond(w, ctx, http.StatusAccepted)
	return nil
}

func (h *Handler) setBlobProperties(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	var replaced []blob.ExtentRef
	if v := ctx.Header("x-ms-blob-content-length"); v != "" {
		if b.Props.BlobType != blob.TypePage {
			return bloberror.New(bloberror.InvalidBlobType)
		}
		size, err := strconv.ParseUint(v, 10, 64)
		if err != nil || size%blob.PageSize != 0 {
			return errPageAlignment()
		}
		if replaced, err = h.resizePageBlob(r.Context(), b, size); err != nil {
			return err
		}
	}

	if action := ctx.Header("x-ms-sequence-number-action"); action != "" {
		if b.Props.BlobType != blob.TypePage {
			return bloberror.New(bloberror.InvalidBlobType)
		}
		if err := applySequenceNumberAction(b, action, ctx.Header("x-ms-blob-sequence-number")); err != nil {
			return err
		}
	}

	applyContentHeaders(ctx, &b.Props)

	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}
	h.dropExtents(r.Context(), replaced)

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	if b.Props.BlobType == blob.TypePage {
		w.Header().Set("x-ms-blob-sequence-number", strconv.FormatUint(b.Props.SequenceNumber, 10))
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func applySequenceNumberAction(b *blob.Blob, action, value string) error {
	switch action {
	case "increment":
		if value != "" {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
		b.Props.SequenceNumber++
	case "update", "max":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return bloberror.New(bloberror.InvalidHeaderValue)
		}
		if action == "update" || n > b.Props.SequenceNumber {
			b.Props.SequenceNumber = n
		}
	default:
		return bloberror.New(bloberror.InvalidHeaderValue)
	}
	return nil
}

// applyContentHeaders replaces the stored content properties when any
// x-ms-blob-content-* header is present. The service treats the headers as a
// set: unset members clear the stored value.
func applyContentHeaders(ctx *api.Context, p *blob.Properties) {
	names := []string{
		"x-ms-blob-content-type", "x-ms-blob-content-encoding",
		"x-ms-blob-content-language", "x-ms-blob-content-md5",
		"x-ms-blob-cache-control", "x-ms-blob-content-disposition",
	}
	any := false
	for _, n := range names {
		if ctx.Header(n) != "" {
			any = true
			break
		}
	}
	if !any {
		return
	}
	p.ContentType = ctx.Header("x-ms-blob-content-type")
	if p.ContentType == "" {
		p.ContentType = blob.DefaultContentType
	}
	p.ContentEncoding = ctx.Header("x-ms-blob-content-encoding")
	p.ContentLanguage = ctx.Header("x-ms-blob-content-language")
	p.ContentMD5 = ctx.Header("x-ms-blob-content-md5")
	p.CacheControl = ctx.Header("x-ms-blob-cache-control")
	p.ContentDisposition = ctx.Header("x-ms-blob-content-disposition")
}

func (h *Handler) setBlobMetadata(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	b.Metadata = ctx.Metadata()
	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) snapshotBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if err := checkConditions(ctx, b.Props.ETag, b.Props.LastModified); err != nil {
		return err
	}

	snap := b.NewSnapshot(time.Now())
	if md := ctx.Metadata(); len(md) > 0 {
		snap.Metadata = md
	}
	if err := h.meta.PutBlob(r.Context(), snap); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, b.Props.ETag, b.Props.LastModified)
	w.Header().Set("x-ms-snapshot", snap.Snapshot)
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *Handler) setBlobTier(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	v := ctx.Header("x-ms-access-tier")
	if v == "" {
		return bloberror.New(bloberror.MissingRequiredHeader)
	}
	tier, ok := blob.ParseAccessTier(v)
	if !ok {
		return bloberror.New(bloberror.InvalidBlobTier)
	}

	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}

	// Changing the tier does not touch the ETag.
	b.Props.AccessTier = tier
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}
	respond(w, ctx, http.StatusOK)
	return nil
}

func (h *Handler) getBlobTags(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, ctx.Snapshot())
	if err != nil {
		return err
	}
	respondXML(w, ctx, http.StatusOK, xmlcodec.Tags(b.Tags))
	return nil
}

func (h *Handler) setBlobTags(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.fetchBlob(ctx, r, "")
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(b.Props.LeaseState, b.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
		return err
	}

	tags, err := xmlcodec.ParseTags(r.Body)
	if err != nil {
		return err
	}

	// Tag updates do not touch the ETag.
	b.Tags = tags
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}
	respond(w, ctx, http.StatusNoContent)
	return nil
}

// copySourceRef is a parsed x-ms-copy-source value.
type copySourceRef struct {
	Account   string
	Container string
	Blob      string
	Snapshot  string
}

func parseCopySource(raw string) (copySourceRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return copySourceRef{}, bloberror.New(bloberror.InvalidSourceBlobURL)
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return copySourceRef{}, bloberror.New(bloberror.InvalidSourceBlobURL)
	}
	return copySourceRef{
		Account:   parts[0],
		Container: parts[1],
		Blob:      parts[2],
		Snapshot:  u.Query().Get("snapshot"),
	}, nil
}

// copyBlob performs a synchronous server-side copy. Extents are shared with
// the source; copy-on-write happens when either side is rewritten.
func (h *Handler) copyBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	src, err := parseCopySource(ctx.CopySource())
	if err != nil {
		return err
	}

	source, err := h.meta.GetBlob(r.Context(), src.Account, src.Container, src.Blob, src.Snapshot)
	if err != nil {
		return err
	}
	if source.Deleted {
		return bloberror.New(bloberror.BlobNotFound)
	}

	if _, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container); err != nil {
		return err
	}

	var oldExtents []blob.ExtentRef
	existing, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	if err == nil {
		if err := checkLeaseWrite(existing.Props.LeaseState, existing.Props.LeaseID, ctx.LeaseID(), leaseScopeBlob); err != nil {
			return err
		}
		if err := checkConditions(ctx, existing.Props.ETag, existing.Props.LastModified); err != nil {
			return err
		}
		oldExtents = existing.Extents
	} else if !bloberror.IsCode(err, bloberror.BlobNotFound) {
		return err
	}

	dest := source.Clone()
	dest.Account = ctx.Account
	dest.Container = ctx.Container
	dest.Name = ctx.Blob
	dest.Snapshot = ""
	dest.Deleted = false
	dest.DeletedOn = time.Time{}
	dest.Props.Touch()
	dest.Props.CreatedOn = time.Now().UTC()
	dest.Props.LeaseState = blob.LeaseStateAvailable
	dest.Props.LeaseStatus = blob.LeaseStatusUnlocked
	dest.Props.LeaseID = ""
	dest.Props.LeaseDuration = ""

	if md := ctx.Metadata(); len(md) > 0 {
		dest.Metadata = md
	}
	if v := ctx.Header("x-ms-access-tier"); v != "" {
		tier, ok := blob.ParseAccessTier(v)
		if !ok {
			return bloberror.New(bloberror.InvalidBlobTier)
		}
		dest.Props.AccessTier = tier
	}

	size := strconv.FormatUint(dest.Props.ContentLength, 10)
	dest.Props.CopyID = uuid.New().String()
	dest.Props.CopySource = ctx.CopySource()
	dest.Props.CopyStatus = blob.CopyStatusSuccess
	dest.Props.CopyProgress = size + "/" + size
	dest.Props.CopyCompletedOn = time.Now().UTC()

	if err := h.meta.PutBlob(r.Context(), dest); err != nil {
		return err
	}
	h.dropExtents(r.Context(), oldExtents)

	commonHeaders(w, ctx)
	setETagHeaders(w, dest.Props.ETag, dest.Props.LastModified)
	w.Header().Set("x-ms-copy-id", dest.Props.CopyID)
	w.Header().Set("x-ms-copy-status", blob.CopyStatusSuccess.String())
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// abortCopyBlob always finds the copy finished; copies complete
// synchronously, so there is never a pending operation to abort.
func (h *Handler) abortCopyBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	if ctx.Query("copyid") == "" {
		return bloberror.New(bloberror.MissingRequiredQueryParameter)
	}
	if ctx.Header("x-ms-copy-action") != "abort" {
		return bloberror.New(bloberror.InvalidHeaderValue)
	}
	if _, err := h.fetchBlob(ctx, r, ""); err != nil {
		return err
	}
	return bloberror.New(bloberror.NoPendingCopyOperation)
}

func (h *Handler) undeleteBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	if err != nil {
		return err
	}

	if b.Deleted {
		b.Deleted = false
		b.DeletedOn = time.Time{}
		if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
			return err
		}
	}
	respond(w, ctx, http.StatusOK)
	return nil
}
