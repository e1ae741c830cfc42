package handlers

import (
	"time"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// checkConditions evaluates the conditional request headers against the
// blob's ETag and modification time. The dispatcher turns ConditionNotMet
// into 304 for reads and 412 for writes.
func checkConditions(ctx *api.Context, etag string, lastModified time.Time) error {
	if ctx.IfMatch() != "" && ctx.IfNoneMatch() != "" {
		return bloberror.New(bloberror.MultipleConditionHeadersNotSupported)
	}
	if _, modOK := ctx.IfModifiedSince(); modOK {
		if _, unmodOK := ctx.IfUnmodifiedSince(); unmodOK {
			return bloberror.New(bloberror.MultipleConditionHeadersNotSupported)
		}
	}
	if m := ctx.IfMatch(); m != "" && m != "*" && m != etag {
		return bloberror.New(bloberror.ConditionNotMet)
	}
	if nm := ctx.IfNoneMatch(); nm != "" && (nm == "*" || nm == etag) {
		return bloberror.New(bloberror.ConditionNotMet)
	}
	if since, ok := ctx.IfModifiedSince(); ok && !lastModified.Truncate(time.Second).After(since) {
		return bloberror.New(bloberror.ConditionNotMet)
	}
	if since, ok := ctx.IfUnmodifiedSince(); ok && lastModified.Truncate(time.Second).After(since) {
		return bloberror.New(bloberror.ConditionNotMet)
	}
	return nil
}

// leaseScope distinguishes the mismatch error codes, which name the
// resource kind on the wire.
type leaseScope int

const (
	leaseScopeContainer leaseScope = iota
	leaseScopeBlob
)

// checkLeaseWrite enforces lease exclusion for a write-style operation:
// a leased resource requires the matching lease ID.
func checkLeaseWrite(state blob.LeaseState, holderID, requestID string, scope leaseScope) error {
	if state != blob.LeaseStateLeased {
		return nil
	}
	if requestID == "" {
		return bloberror.New(bloberror.LeaseIDMissing)
	}
	if requestID != holderID {
		if scope == leaseScopeContainer {
			return bloberror.New(bloberror.LeaseIDMismatchWithContainerOperation)
		}
		return bloberror.New(bloberror.LeaseIDMismatchWithBlobOperation)
	}
	return nil
}

// expireLease folds an elapsed fixed-duration lease back to available.
// Callers check this before consulting lease state.
func expireLease(state *blob.LeaseState, status *blob.LeaseStatus, duration blob.LeaseDuration, expiry time.Time) {
	if *state == blob.LeaseStateLeased && duration == blob.LeaseDurationFixed && !expiry.IsZero() && time.Now().After(expiry) {
		*state = blob.LeaseStateExpired
		*status = blob.LeaseStatusUnlocked
	}
}
