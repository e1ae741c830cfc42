package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/xmlcodec"
)

func (h *Handler) listContainers(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	params := ctx.ListContainersParams()
	page, err := h.meta.ListContainers(r.Context(), ctx.Account, params)
	if err != nil {
		return err
	}

	body := xmlcodec.ContainerList(serviceEndpoint(r, ctx.Account), params, page)
	respondXML(w, ctx, http.StatusOK, body)
	return nil
}

func (h *Handler) getServiceProperties(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	props, err := h.meta.ServiceProperties(r.Context(), ctx.Account)
	if err != nil {
		return err
	}
	respondXML(w, ctx, http.StatusOK, xmlcodec.ServiceProperties(props))
	return nil
}

func (h *Handler) setServiceProperties(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	props, err := xmlcodec.ParseServiceProperties(r.Body)
	if err != nil {
		return err
	}
	if err := h.meta.SetServiceProperties(r.Context(), ctx.Account, props); err != nil {
		return err
	}
	respond(w, ctx, http.StatusAccepted)
	return nil
}

func (h *Handler) getServiceStats(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	respondXML(w, ctx, http.StatusOK, xmlcodec.ServiceStats(blob.NewServiceStats()))
	return nil
}

func (h *Handler) getAccountInfo(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	commonHeaders(w, ctx)
	w.Header().Set("x-ms-sku-name", string(blob.SkuStandardLRS))
	w.Header().Set("x-ms-account-kind", string(blob.AccountKindStorageV2))
	w.Header().Set("x-ms-is-hns-enabled", "false")
	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *Handler) getUserDelegationKey(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	start, expiry, err := xmlcodec.ParseUserDelegationKeyRequest(r.Body)
	if err != nil {
		return err
	}

	// The key is random per request; user delegation SAS tokens are not
	// validated against it.
	raw := uuid.New()
	key := blob.UserDelegationKey{
		SignedOID:     uuid.New().String(),
		SignedTID:     uuid.New().String(),
		SignedStart:   start,
		SignedExpiry:  expiry,
		SignedService: "b",
		SignedVersion: blob.APIVersion,
		Value:         base64.StdEncoding.EncodeToString(raw[:]),
	}
	respondXML(w, ctx, http.StatusOK, xmlcodec.UserDelegationKey(key))
	return nil
}

func (h *Handler) filterBlobs(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	// Tag-expression filtering is out of scope; the result set is empty.
	body := xmlcodec.FilterBlobsResult(serviceEndpoint(r, ctx.Account), ctx.Query("where"))
	respondXML(w, ctx, http.StatusOK, body)
	return nil
}

// batch accepts a multipart batch and answers each sub-request with a 202
// part. Sub-requests are not individually executed.
func (h *Handler) batch(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	mediaType, params, err := mime.ParseMediaType(ctx.ContentType())
	if err != nil || mediaType != "multipart/mixed" || params["boundary"] == "" {
		return bloberror.WithMessage(bloberror.InvalidHeaderValue,
			"Content-Type must be multipart/mixed with a boundary.")
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(r.Body, MaxBodySize)); err != nil {
		return bloberror.New(bloberror.InternalError)
	}

	responseBoundary := "batchresponse_" + uuid.New().String()
	var b strings.Builder
	fmt.Fprintf(&b, "--%s\r\n", responseBoundary)
	b.WriteString("Content-Type: application/http\r\n")
	b.WriteString("Content-Transfer-Encoding: binary\r\n")
	b.WriteString("\r\n")
	b.WriteString("HTTP/1.1 202 Accepted\r\n")
	fmt.Fprintf(&b, "x-ms-request-id: %s\r\n", ctx.RequestID)
	fmt.Fprintf(&b, "x-ms-version: %s\r\n", blob.APIVersion)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "--%s--\r\n", responseBoundary)

	commonHeaders(w, ctx)
	w.Header().Set("Content-Type", "multipart/mixed; boundary="+responseBoundary)
	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, b.String())
	return nil
}
