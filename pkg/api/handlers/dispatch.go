package handlers

import (
	"net/http"

	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// errUnsupported is the catch-all for unknown (method, restype, comp)
// combinations.
func errUnsupported() error {
	return bloberror.New(bloberror.UnsupportedHTTPVerb)
}

func (h *Handler) dispatch(ctx *api.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	switch {
	case ctx.IsServiceRequest():
		return h.dispatchService(ctx, w, r)
	case ctx.IsContainerRequest():
		return h.dispatchContainer(ctx, w, r)
	default:
		return h.dispatchBlob(ctx, w, r)
	}
}

func (h *Handler) dispatchService(ctx *api.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	comp, restype := ctx.Comp(), ctx.ResType()

	switch {
	case r.Method == http.MethodGet && comp == "list":
		return "ListContainers", h.listContainers(ctx, w, r)
	case restype == "service" && comp == "properties" && r.Method == http.MethodGet:
		return "GetServiceProperties", h.getServiceProperties(ctx, w, r)
	case restype == "service" && comp == "properties" && r.Method == http.MethodPut:
		return "SetServiceProperties", h.setServiceProperties(ctx, w, r)
	case r.Method == http.MethodGet && comp == "stats":
		return "GetServiceStats", h.getServiceStats(ctx, w, r)
	case restype == "account" && comp == "properties" && (r.Method == http.MethodGet || r.Method == http.MethodHead):
		return "GetAccountInfo", h.getAccountInfo(ctx, w, r)
	case restype == "service" && comp == "userdelegationkey" && r.Method == http.MethodPost:
		return "GetUserDelegationKey", h.getUserDelegationKey(ctx, w, r)
	case r.Method == http.MethodGet && comp == "blobs":
		return "FilterBlobs", h.filterBlobs(ctx, w, r)
	case r.Method == http.MethodPost && comp == "batch":
		return "Batch", h.batch(ctx, w, r)
	}
	return "UnknownService", errUnsupported()
}

func (h *Handler) dispatchContainer(ctx *api.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	comp := ctx.Comp()
	if ctx.ResType() != "container" {
		return "UnknownContainer", errUnsupported()
	}

	switch r.Method {
	case http.MethodPut:
		switch comp {
		case "":
			return "CreateContainer", h.createContainer(ctx, w, r)
		case "metadata":
			return "SetContainerMetadata", h.setContainerMetadata(ctx, w, r)
		case "acl":
			return "SetContainerACL", h.setContainerACL(ctx, w, r)
		case "lease":
			return "LeaseContainer", h.leaseContainer(ctx, w, r)
		case "undelete":
			return "RestoreContainer", h.restoreContainer(ctx, w, r)
		}
	case http.MethodGet, http.MethodHead:
		switch comp {
		case "":
			return "GetContainerProperties", h.getContainerProperties(ctx, w, r)
		case "acl":
			return "GetContainerACL", h.getContainerACL(ctx, w, r)
		case "list":
			if r.Method == http.MethodGet {
				return "ListBlobs", h.listBlobs(ctx, w, r)
			}
		}
	case http.MethodDelete:
		if comp == "" {
			return "DeleteContainer", h.deleteContainer(ctx, w, r)
		}
	}
	return "UnknownContainer", errUnsupported()
}

func (h *Handler) dispatchBlob(ctx *api.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	comp := ctx.Comp()

	switch r.Method {
	case http.MethodGet:
		switch comp {
		case "":
			return "GetBlob", h.downloadBlob(ctx, w, r)
		case "blocklist":
			return "GetBlockList", h.getBlockList(ctx, w, r)
		case "pagelist":
			if ctx.HasQuery("prevsnapshot") {
				return "GetPageRangesDiff", h.getPageRangesDiff(ctx, w, r)
			}
			return "GetPageRanges", h.getPageRanges(ctx, w, r)
		case "tags":
			return "GetBlobTags", h.getBlobTags(ctx, w, r)
		}
	case http.MethodHead:
		if comp == "" {
			return "GetBlobProperties", h.getBlobProperties(ctx, w, r)
		}
	case http.MethodDelete:
		if comp == "" {
			return "DeleteBlob", h.deleteBlob(ctx, w, r)
		}
	case http.MethodPut:
		switch comp {
		case "":
			if ctx.CopySource() != "" {
				return "CopyBlob", h.copyBlob(ctx, w, r)
			}
			return "PutBlob", h.putBlob(ctx, w, r)
		case "block":
			return "PutBlock", h.putBlock(ctx, w, r)
		case "blocklist":
			return "PutBlockList", h.putBlockList(ctx, w, r)
		case "page":
			return "PutPage", h.putPage(ctx, w, r)
		case "pagelist":
			break
		case "properties":
			return "SetBlobProperties", h.setBlobProperties(ctx, w, r)
		case "metadata":
			return "SetBlobMetadata", h.setBlobMetadata(ctx, w, r)
		case "lease":
			return "LeaseBlob", h.leaseBlob(ctx, w, r)
		case "snapshot":
			return "SnapshotBlob", h.snapshotBlob(ctx, w, r)
		case "tier":
			return "SetBlobTier", h.setBlobTier(ctx, w, r)
		case "tags":
			return "SetBlobTags", h.setBlobTags(ctx, w, r)
		case "copy":
			return "AbortCopyBlob", h.abortCopyBlob(ctx, w, r)
		case "undelete":
			return "UndeleteBlob", h.undeleteBlob(ctx, w, r)
		case "appendblock":
			return "AppendBlock", h.appendBlock(ctx, w, r)
		case "seal":
			return "SealBlob", h.sealBlob(ctx, w, r)
		case "incrementalcopy":
			return "IncrementalCopyBlob", bloberror.WithMessage(bloberror.InvalidOperation,
				"Incremental copy is not supported.")
		}
	}
	return "UnknownBlob", errUnsupported()
}
