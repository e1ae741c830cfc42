package bloberror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ContainerNotFound, 404},
		{BlobNotFound, 404},
		{ContainerAlreadyExists, 409},
		{LeaseAlreadyPresent, 409},
		{LeaseIDMismatchWithBlobOperation, 409},
		{LeaseIDMismatchWithContainerOperation, 409},
		{LeaseNotPresentWithBlobOperation, 409},
		{LeaseNotPresentWithContainerOperation, 409},
		{LeaseIDMissing, 412},
		{ConditionNotMet, 412},
		{InvalidRange, 416},
		{RequestBodyTooLarge, 413},
		{AuthenticationFailed, 401},
		{AuthorizationPermissionMismatch, 403},
		{InternalError, 500},
		{ServerBusy, 503},
		{InvalidHeaderValue, 400},
		{MissingRequiredHeader, 400},
		{MultipleConditionHeadersNotSupported, 400},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.StatusCode(), "code %s", tt.code)
	}
}

func TestIsCode(t *testing.T) {
	err := New(BlobNotFound)
	assert.True(t, IsCode(err, BlobNotFound))
	assert.False(t, IsCode(err, ContainerNotFound))

	wrapped := fmt.Errorf("lookup: %w", err)
	assert.True(t, IsCode(wrapped, BlobNotFound))

	assert.False(t, IsCode(errors.New("plain"), BlobNotFound))
}

func TestFromMapsUnknownToInternalError(t *testing.T) {
	se := From(errors.New("disk on fire"))
	assert.Equal(t, InternalError, se.Code)
	assert.Equal(t, 500, se.StatusCode())

	se = From(WithMessage(InvalidBlockList, "Block %s not found", "abc"))
	assert.Equal(t, InvalidBlockList, se.Code)
	assert.Equal(t, "Block abc not found", se.Message)
}

func TestWriteRendersXMLBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/devstoreaccount1/missing", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, New(ContainerNotFound), "req-123")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("x-ms-request-id"))
	assert.Equal(t, "2021-10-04", rec.Header().Get("x-ms-version"))
	assert.Equal(t, "ContainerNotFound", rec.Header().Get("x-ms-error-code"))
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, body, "<Code>ContainerNotFound</Code>")
	assert.Contains(t, body, "The specified container does not exist.")
	assert.Contains(t, body, "\nRequestId:req-123\n")
	assert.Contains(t, body, "\nTime:")
}

func TestWriteConditionNotMetOnReadIs304(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/devstoreaccount1/c/b", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, New(ConditionNotMet), "req-1")

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "ConditionNotMet", rec.Header().Get("x-ms-error-code"))
}

func TestWriteConditionNotMetOnWriteIs412(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/devstoreaccount1/c/b", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, New(ConditionNotMet), "req-1")

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Code>ConditionNotMet</Code>")
}

func TestWriteHeadOmitsBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodHead, "/devstoreaccount1/c/b", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, New(BlobNotFound), "req-1")

	assert.Equal(t, 404, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestEscapeXML(t *testing.T) {
	require.Equal(t, "a&amp;b&lt;c&gt;d&quot;e&apos;f", escapeXML(`a&b<c>d"e'f`))
}

func TestEveryCodeHasMessage(t *testing.T) {
	for code := range defaultMessages {
		assert.NotEmpty(t, code.Message())
	}
	// Unknown codes fall back to a generic message instead of empty.
	assert.NotEmpty(t, Code("Nonexistent").Message())
}
