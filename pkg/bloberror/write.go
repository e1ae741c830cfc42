package bloberror

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bloblite/bloblite/pkg/blob"
)

// Write renders err as the wire-format XML error response. The request ID is
// echoed in both the x-ms-request-id header and the message body.
//
// A ConditionNotMet failure of an If-None-Match read is answered 304 with an
// empty body, as the protocol requires for GET and HEAD.
func Write(w http.ResponseWriter, r *http.Request, err error, requestID string) {
	se := From(err)

	h := w.Header()
	h.Set("x-ms-request-id", requestID)
	h.Set("x-ms-version", blob.APIVersion)
	h.Set("x-ms-error-code", string(se.Code))

	if se.Code == ConditionNotMet && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	status := se.StatusCode()
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	h.Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprint(w, errorBody(se, requestID, time.Now().UTC()))
}

func errorBody(se *StorageError, requestID string, now time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString("\n<Error>\n  <Code>")
	b.WriteString(escapeXML(string(se.Code)))
	b.WriteString("</Code>\n  <Message>")
	b.WriteString(escapeXML(se.Message))
	b.WriteString("\nRequestId:")
	b.WriteString(requestID)
	b.WriteString("\nTime:")
	b.WriteString(now.Format(blob.SnapshotTimeFormat))
	b.WriteString("</Message>\n</Error>")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
