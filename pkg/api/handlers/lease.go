package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// leaseFields points at the lease state of a container or blob record so
// both share one state machine.
type leaseFields struct {
	State    *blob.LeaseState
	Status   *blob.LeaseStatus
	ID       *string
	Duration *blob.LeaseDuration
	Expiry   *time.Time
	BreakAt  *time.Time
}

func containerLease(c *blob.Container) leaseFields {
	return leaseFields{
		State:    &c.Props.LeaseState,
		Status:   &c.Props.LeaseStatus,
		ID:       &c.Props.LeaseID,
		Duration: &c.Props.LeaseDuration,
		Expiry:   &c.Props.LeaseExpiry,
		BreakAt:  &c.Props.LeaseBreakAt,
	}
}

func blobLease(b *blob.Blob) leaseFields {
	return leaseFields{
		State:    &b.Props.LeaseState,
		Status:   &b.Props.LeaseStatus,
		ID:       &b.Props.LeaseID,
		Duration: &b.Props.LeaseDuration,
		Expiry:   &b.Props.LeaseExpiry,
		BreakAt:  &b.Props.LeaseBreakAt,
	}
}

// leaseResult carries what the response needs back from the state machine.
type leaseResult struct {
	status    int
	leaseID   string
	leaseTime int
	hasTime   bool
}

func mismatchCode(scope leaseScope) bloberror.Code {
	if scope == leaseScopeContainer {
		return bloberror.LeaseIDMismatchWithContainerOperation
	}
	return bloberror.LeaseIDMismatchWithBlobOperation
}

func notPresentCode(scope leaseScope) bloberror.Code {
	if scope == leaseScopeContainer {
		return bloberror.LeaseNotPresentWithContainerOperation
	}
	return bloberror.LeaseNotPresentWithBlobOperation
}

// renewDuration is the term a fixed lease gets on renewal.
const renewDuration = 60 * time.Second

func applyLeaseAction(ctx *api.Context, l leaseFields, scope leaseScope) (leaseResult, error) {
	expireLease(l.State, l.Status, *l.Duration, *l.Expiry)

	switch ctx.Header("x-ms-lease-action") {
	case "acquire":
		return acquireLease(ctx, l)
	case "release":
		if err := requireLeaseMatch(ctx, l, scope); err != nil {
			return leaseResult{}, err
		}
		*l.State = blob.LeaseStateAvailable
		*l.Status = blob.LeaseStatusUnlocked
		*l.ID = ""
		*l.Duration = ""
		*l.Expiry = time.Time{}
		return leaseResult{status: http.StatusOK}, nil

	case "renew":
		if *l.State == blob.LeaseStateBroken || *l.State == blob.LeaseStateAvailable {
			return leaseResult{}, bloberror.New(bloberror.LeaseIsBrokenAndCannotBeRenewed)
		}
		if err := requireLeaseMatch(ctx, l, scope); err != nil {
			return leaseResult{}, err
		}
		if *l.Duration == blob.LeaseDurationFixed {
			*l.Expiry = time.Now().Add(renewDuration)
		}
		*l.State = blob.LeaseStateLeased
		*l.Status = blob.LeaseStatusLocked
		return leaseResult{status: http.StatusOK, leaseID: *l.ID}, nil

	case "break":
		if *l.State == blob.LeaseStateAvailable {
			return leaseResult{}, bloberror.New(notPresentCode(scope))
		}
		period := 0
		if v := ctx.Header("x-ms-lease-break-period"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 60 {
				return leaseResult{}, bloberror.New(bloberror.InvalidHeaderValue)
			}
			period = n
		}
		if period == 0 {
			*l.State = blob.LeaseStateBroken
			*l.Status = blob.LeaseStatusUnlocked
			return leaseResult{status: http.StatusAccepted, leaseTime: 0, hasTime: true}, nil
		}
		*l.State = blob.LeaseStateBreaking
		*l.BreakAt = time.Now().Add(time.Duration(period) * time.Second)
		return leaseResult{status: http.StatusAccepted, leaseTime: period, hasTime: true}, nil

	case "change":
		proposed := ctx.Header("x-ms-proposed-lease-id")
		if proposed == "" {
			return leaseResult{}, bloberror.New(bloberror.MissingRequiredHeader)
		}
		if err := requireLeaseMatch(ctx, l, scope); err != nil {
			return leaseResult{}, err
		}
		*l.ID = proposed
		return leaseResult{status: http.StatusOK, leaseID: proposed}, nil

	default:
		return leaseResult{}, bloberror.New(bloberror.InvalidHeaderValue)
	}
}

func acquireLease(ctx *api.Context, l leaseFields) (leaseResult, error) {
	if *l.State == blob.LeaseStateLeased {
		return leaseResult{}, bloberror.New(bloberror.LeaseAlreadyPresent)
	}
	if *l.State == blob.LeaseStateBreaking {
		return leaseResult{}, bloberror.New(bloberror.LeaseIsBreakingAndCannotBeAcquired)
	}

	duration := -1
	if v := ctx.Header("x-ms-lease-duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return leaseResult{}, bloberror.New(bloberror.InvalidHeaderValue)
		}
		duration = n
	}
	if duration != -1 && (duration < 15 || duration > 60) {
		return leaseResult{}, bloberror.New(bloberror.InvalidHeaderValue)
	}

	id := ctx.Header("x-ms-proposed-lease-id")
	if id == "" {
		id = uuid.New().String()
	}

	*l.State = blob.LeaseStateLeased
	*l.Status = blob.LeaseStatusLocked
	*l.ID = id
	if duration == -1 {
		*l.Duration = blob.LeaseDurationInfinite
		*l.Expiry = time.Time{}
	} else {
		*l.Duration = blob.LeaseDurationFixed
		*l.Expiry = time.Now().Add(time.Duration(duration) * time.Second)
	}
	return leaseResult{status: http.StatusCreated, leaseID: id}, nil
}

// requireLeaseMatch validates the x-ms-lease-id header against the holder.
func requireLeaseMatch(ctx *api.Context, l leaseFields, scope leaseScope) error {
	id := ctx.LeaseID()
	if id == "" {
		return bloberror.New(bloberror.LeaseIDMissing)
	}
	if *l.ID == "" {
		return bloberror.New(notPresentCode(scope))
	}
	if id != *l.ID {
		return bloberror.New(mismatchCode(scope))
	}
	return nil
}

func writeLeaseResult(w http.ResponseWriter, ctx *api.Context, res leaseResult, etag string, lastModified time.Time) {
	commonHeaders(w, ctx)
	setETagHeaders(w, etag, lastModified)
	if res.leaseID != "" {
		w.Header().Set("x-ms-lease-id", res.leaseID)
	}
	if res.hasTime {
		w.Header().Set("x-ms-lease-time", strconv.Itoa(res.leaseTime))
	}
	w.WriteHeader(res.status)
}

func (h *Handler) leaseContainer(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := h.meta.GetContainer(r.Context(), ctx.Account, ctx.Container)
	if err != nil {
		return err
	}

	res, err := applyLeaseAction(ctx, containerLease(c), leaseScopeContainer)
	if err != nil {
		return err
	}
	c.Props.Touch()
	if err := h.meta.UpdateContainer(r.Context(), c); err != nil {
		return err
	}

	writeLeaseResult(w, ctx, res, c.Props.ETag, c.Props.LastModified)
	return nil
}

func (h *Handler) leaseBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.meta.GetBlob(r.Context(), ctx.Account, ctx.Container, ctx.Blob, "")
	if err != nil {
		return err
	}

	res, err := applyLeaseAction(ctx, blobLease(b), leaseScopeBlob)
	if err != nil {
		return err
	}
	b.Props.Touch()
	if err := h.meta.UpdateBlob(r.Context(), b); err != nil {
		return err
	}

	writeLeaseResult(w, ctx, res, b.Props.ETag, b.Props.LastModified)
	return nil
}
