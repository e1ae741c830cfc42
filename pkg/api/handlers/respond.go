package handlers

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// serverHeader mimics the value real emulator deployments advertise so
// client SDK sniffing keeps working.
const serverHeader = "Azurite-Blob/3.31.0"

// commonHeaders stamps the headers every response carries.
func commonHeaders(w http.ResponseWriter, ctx *api.Context) {
	h := w.Header()
	h.Set("x-ms-request-id", ctx.RequestID)
	h.Set("x-ms-version", blob.APIVersion)
	h.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	h.Set("Server", serverHeader)
	if id := ctx.ClientRequestID(); id != "" {
		h.Set("x-ms-client-request-id", id)
	}
}

// respond writes common headers and the status code, with no body.
func respond(w http.ResponseWriter, ctx *api.Context, status int) {
	commonHeaders(w, ctx)
	w.WriteHeader(status)
}

// respondXML writes an XML body with common headers.
func respondXML(w http.ResponseWriter, ctx *api.Context, status int, body string) {
	commonHeaders(w, ctx)
	h := w.Header()
	h.Set("Content-Type", "application/xml")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// readBody drains the request body up to MaxBodySize.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		return nil, bloberror.New(bloberror.InternalError)
	}
	if len(data) > MaxBodySize {
		return nil, bloberror.New(bloberror.RequestBodyTooLarge)
	}
	return data, nil
}

// setETagHeaders writes the ETag and Last-Modified pair.
func setETagHeaders(w http.ResponseWriter, etag string, lastModified time.Time) {
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
}

// setMetadataHeaders writes x-ms-meta-* headers, keys sorted for
// deterministic output.
func setMetadataHeaders(w http.ResponseWriter, md map[string]string) {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Header().Set("x-ms-meta-"+k, md[k])
	}
}

// setLeaseHeaders writes the lease state and status headers.
func setLeaseHeaders(w http.ResponseWriter, state blob.LeaseState, status blob.LeaseStatus) {
	w.Header().Set("x-ms-lease-state", state.String())
	w.Header().Set("x-ms-lease-status", status.String())
}

// serviceEndpoint reconstructs the endpoint URL used in list responses.
func serviceEndpoint(r *http.Request, account string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + account
}
