package handlers

import (
	"net/http"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/xmlcodec"
)

// validateContainerName enforces the naming rules: 3-63 characters,
// lower-case letters, digits and single hyphens, starting with a letter or
// digit. The special root, logs and web containers are exempt.
func validateContainerName(name string) error {
	switch name {
	case "$root", "$logs", "$web":
		return nil
	}
	if len(name) < 3 || len(name) > 63 {
		return bloberror.New(bloberror.InvalidResourceName)
	}
	prev := byte(0)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || prev == '-' {
				return bloberror.New(bloberror.InvalidResourceName)
			}
		default:
			return bloberror.New(bloberror.InvalidResourceName)
		}
		prev = c
	}
	return nil
}

func (h *Handler) createContainer(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	if err := validateContainerName(ctx.Container); err != nil {
		return err
	}

	c := blob.NewContainer(ctx.Account, ctx.Container)
	c.Props.PublicAccess = blob.ParsePublicAccess(ctx.Header("x-ms-blob-public-access"))
	c.Metadata = ctx.Metadata()

	if err := h.meta.CreateContainer(r.Context(), c); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, c.Props.ETag, c.Props.LastModified)
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (h *Handler) deleteContainer(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(c.Props.LeaseState, c.Props.LeaseID, ctx.LeaseID(), leaseScopeContainer); err != nil {
		return err
	}

	if err := h.meta.DeleteContainer(r.Context(), ctx.Account, ctx.Container); err != nil {
		return err
	}
	respond(w, ctx, http.StatusAccepted)
	return nil
}

func (h *Handler) getContainerProperties(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, c.Props.ETag, c.Props.LastModified)
	setLeaseHeaders(w, c.Props.LeaseState, c.Props.LeaseStatus)
	setMetadataHeaders(w, c.Metadata)
	if c.Props.PublicAccess != blob.PublicAccessNone {
		w.Header().Set("x-ms-blob-public-access", c.Props.PublicAccess.String())
	}
	w.Header().Set("x-ms-has-immutability-policy", "false")
	w.Header().Set("x-ms-has-legal-hold", "false")
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) setContainerMetadata(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(c.Props.LeaseState, c.Props.LeaseID, ctx.LeaseID(), leaseScopeContainer); err != nil {
		return err
	}

	c.Metadata = ctx.Metadata()
	c.Props.Touch()
	if err := h.meta.UpdateContainer(r.Context(), c); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, c.Props.ETag, c.Props.LastModified)
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) getContainerACL(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, c.Props.ETag, c.Props.LastModified)
	if c.Props.PublicAccess != blob.PublicAccessNone {
		w.Header().Set("x-ms-blob-public-access", c.Props.PublicAccess.String())
	}
	body := xmlcodec.SignedIdentifiers(c.ACL)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
	return nil
}

func (h *Handler) setContainerACL(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}
	if err := checkLeaseWrite(c.Props.LeaseState, c.Props.LeaseID, ctx.LeaseID(), leaseScopeContainer); err != nil {
		return err
	}

	ids, err := xmlcodec.ParseSignedIdentifiers(r.Body)
	if err != nil {
		return err
	}

	c.ACL = ids
	if access := ctx.Header("x-ms-blob-public-access"); access != "" {
		c.Props.PublicAccess = blob.ParsePublicAccess(access)
	}
	c.Props.Touch()
	if err := h.meta.UpdateContainer(r.Context(), c); err != nil {
		return err
	}

	commonHeaders(w, ctx)
	setETagHeaders(w, c.Props.ETag, c.Props.LastModified)
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) listBlobs(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	params := ctx.ListBlobsParams()
	page, err := h.meta.ListBlobs(r.Context(), ctx.Account, ctx.Container, params)
	if err != nil {
		return err
	}

	body := xmlcodec.BlobList(serviceEndpoint(r, ctx.Account), ctx.Container, params, page)
	respondXML(w, ctx, http.StatusOK, body)
	return nil
}

// restoreContainer acknowledges a restore request. Soft-deleted containers
// are not retained, so there is nothing to restore.
func (h *Handler) restoreContainer(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	respond(w, ctx, http.StatusOK)
	return nil
}
