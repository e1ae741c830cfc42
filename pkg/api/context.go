package api

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// Context carries the parsed pieces of one request through authentication,
// dispatch and the handler.
type Context struct {
	RequestID  string
	Method     string
	URL        *url.URL
	ReceivedAt time.Time

	// Account, Container and Blob come from the path
	// /{account}[/{container}[/{blob}]]; the blob segment may itself
	// contain slashes.
	Account   string
	Container string
	Blob      string

	header http.Header
	query  url.Values
}

// NewContext parses the request into a Context. Query parameter names are
// lower-cased so dispatch is case-insensitive, as the service is.
func NewContext(r *http.Request) *Context {
	c := &Context{
		RequestID:  middleware.GetReqID(r.Context()),
		Method:     r.Method,
		URL:        r.URL,
		ReceivedAt: time.Now().UTC(),
		header:     r.Header,
		query:      make(url.Values, len(r.URL.Query())),
	}

	for name, values := range r.URL.Query() {
		c.query[strings.ToLower(name)] = values
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.SplitN(path, "/", 3)
	if len(parts) > 0 {
		c.Account = parts[0]
	}
	if len(parts) > 1 {
		c.Container = parts[1]
	}
	if len(parts) > 2 {
		c.Blob = parts[2]
	}
	return c
}

// Query returns the first value of a query parameter, name case-insensitive.
func (c *Context) Query(name string) string {
	return c.query.Get(strings.ToLower(name))
}

// HasQuery reports whether the query parameter is present at all.
func (c *Context) HasQuery(name string) bool {
	_, ok := c.query[strings.ToLower(name)]
	return ok
}

// QueryValues returns all values of a query parameter.
func (c *Context) QueryValues(name string) []string {
	return c.query[strings.ToLower(name)]
}

// QueryParams returns the lower-cased parameter names, sorted. Used by
// request signing.
func (c *Context) QueryParams() []string {
	names := make([]string, 0, len(c.query))
	for name := range c.query {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Header returns a request header value, name case-insensitive.
func (c *Context) Header(name string) string {
	return c.header.Get(name)
}

// MSHeaders returns all x-ms-* headers as name:value pairs, names
// lower-cased, values whitespace-collapsed, sorted by name. Used by request
// signing.
func (c *Context) MSHeaders() [][2]string {
	var out [][2]string
	for name, values := range c.header {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "x-ms-") {
			continue
		}
		out = append(out, [2]string{lower, collapseWhitespace(strings.Join(values, ","))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Metadata extracts the x-ms-meta-* headers, keys lower-cased and stripped
// of the prefix.
func (c *Context) Metadata() map[string]string {
	md := map[string]string{}
	for name, values := range c.header {
		lower := strings.ToLower(name)
		if key, ok := strings.CutPrefix(lower, "x-ms-meta-"); ok && len(values) > 0 {
			md[key] = values[0]
		}
	}
	return md
}

// Dispatch accessors.

func (c *Context) Comp() string    { return c.Query("comp") }
func (c *Context) ResType() string { return c.Query("restype") }

func (c *Context) IsServiceRequest() bool   { return c.Container == "" }
func (c *Context) IsContainerRequest() bool { return c.Container != "" && c.Blob == "" }
func (c *Context) IsBlobRequest() bool      { return c.Blob != "" }

// Common headers.

func (c *Context) APIVersion() string      { return c.Header("x-ms-version") }
func (c *Context) ClientRequestID() string { return c.Header("x-ms-client-request-id") }
func (c *Context) LeaseID() string         { return c.Header("x-ms-lease-id") }
func (c *Context) BlobType() string        { return c.Header("x-ms-blob-type") }
func (c *Context) CopySource() string      { return c.Header("x-ms-copy-source") }
func (c *Context) ContentMD5() string      { return c.Header("Content-MD5") }
func (c *Context) ContentType() string     { return c.Header("Content-Type") }
func (c *Context) Snapshot() string        { return c.Query("snapshot") }

// ContentLength returns the parsed Content-Length header, or -1 when absent
// or unparsable.
func (c *Context) ContentLength() int64 {
	v := c.Header("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// RangeSpec is a parsed byte range. End is only meaningful when HasEnd is
// set; an open-ended range covers everything from Start.
type RangeSpec struct {
	Start  uint64
	End    uint64
	HasEnd bool
}

// Range parses the Range or x-ms-range header (x-ms-range wins). The second
// return is false when no range header is present or it is malformed.
func (c *Context) Range() (RangeSpec, bool) {
	raw := c.Header("x-ms-range")
	if raw == "" {
		raw = c.Header("Range")
	}
	return parseRange(raw)
}

func parseRange(raw string) (RangeSpec, bool) {
	rest, ok := strings.CutPrefix(raw, "bytes=")
	if !ok {
		return RangeSpec{}, false
	}
	startStr, endStr, found := strings.Cut(rest, "-")
	if !found {
		return RangeSpec{}, false
	}

	start, err := strconv.ParseUint(startStr, 10, 64)
	if err != nil {
		return RangeSpec{}, false
	}
	spec := RangeSpec{Start: start}
	if endStr != "" {
		end, err := strconv.ParseUint(endStr, 10, 64)
		if err != nil || end < start {
			return RangeSpec{}, false
		}
		spec.End = end
		spec.HasEnd = true
	}
	return spec, true
}

// Conditional request headers.

func (c *Context) IfMatch() string     { return c.Header("If-Match") }
func (c *Context) IfNoneMatch() string { return c.Header("If-None-Match") }

func (c *Context) IfModifiedSince() (time.Time, bool) {
	return c.headerTime("If-Modified-Since")
}

func (c *Context) IfUnmodifiedSince() (time.Time, bool) {
	return c.headerTime("If-Unmodified-Since")
}

func (c *Context) headerTime(name string) (time.Time, bool) {
	v := c.Header(name)
	if v == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListBlobsParams builds blob listing parameters from the query string.
func (c *Context) ListBlobsParams() metadata.ListBlobsParams {
	params := metadata.ListBlobsParams{
		Prefix:     c.Query("prefix"),
		Marker:     c.Query("marker"),
		Delimiter:  c.Query("delimiter"),
		MaxResults: c.maxResults(),
	}
	for _, inc := range strings.Split(c.Query("include"), ",") {
		switch strings.TrimSpace(inc) {
		case "snapshots":
			params.IncludeSnapshots = true
		case "deleted":
			params.IncludeDeleted = true
		}
	}
	return params
}

// ListContainersParams builds container listing parameters from the query.
func (c *Context) ListContainersParams() metadata.ListContainersParams {
	return metadata.ListContainersParams{
		Prefix:     c.Query("prefix"),
		Marker:     c.Query("marker"),
		MaxResults: c.maxResults(),
	}
}

func (c *Context) maxResults() int {
	v := c.Query("maxresults")
	if v == "" {
		return blob.DefaultListMaxResults
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return blob.DefaultListMaxResults
	}
	return n
}
