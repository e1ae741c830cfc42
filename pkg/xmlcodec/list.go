package xmlcodec

import (
	"net/http"
	"sort"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// ContainerList renders the response of the List Containers operation.
func ContainerList(serviceEndpoint string, params metadata.ListContainersParams, page metadata.ContainerPage) string {
	w := newWriter()
	w.openAttr("EnumerationResults", [2]string{"ServiceEndpoint", serviceEndpoint})

	w.elemOpt("Prefix", params.Prefix)
	w.elemOpt("Marker", params.Marker)
	if params.MaxResults > 0 {
		w.elemInt("MaxResults", params.MaxResults)
	}

	w.open("Containers")
	for _, c := range page.Items {
		writeContainer(w, c)
	}
	w.close("Containers")

	w.elemOpt("NextMarker", page.NextMarker)
	w.close("EnumerationResults")
	return w.String()
}

func writeContainer(w *writer, c *blob.Container) {
	w.open("Container")
	w.elem("Name", c.Name)

	w.open("Properties")
	w.elemTime("Last-Modified", c.Props.LastModified, http.TimeFormat)
	w.elem("Etag", c.Props.ETag)
	w.elem("LeaseStatus", c.Props.LeaseStatus.String())
	w.elem("LeaseState", c.Props.LeaseState.String())
	w.elemOpt("PublicAccess", c.Props.PublicAccess.String())
	w.elemBool("HasImmutabilityPolicy", c.Props.HasImmutabilityPolicy)
	w.elemBool("HasLegalHold", c.Props.HasLegalHold)
	w.close("Properties")

	writeMetadata(w, c.Metadata)
	w.close("Container")
}

// BlobList renders the response of the List Blobs operation.
func BlobList(serviceEndpoint, containerName string, params metadata.ListBlobsParams, page metadata.BlobPage) string {
	w := newWriter()
	w.openAttr("EnumerationResults",
		[2]string{"ServiceEndpoint", serviceEndpoint},
		[2]string{"ContainerName", containerName})

	w.elemOpt("Prefix", params.Prefix)
	w.elemOpt("Marker", params.Marker)
	if params.MaxResults > 0 {
		w.elemInt("MaxResults", params.MaxResults)
	}
	w.elemOpt("Delimiter", params.Delimiter)

	w.open("Blobs")
	for _, b := range page.Items {
		writeBlob(w, b)
	}
	for _, prefix := range page.Prefixes {
		w.open("BlobPrefix")
		w.elem("Name", prefix)
		w.close("BlobPrefix")
	}
	w.close("Blobs")

	w.elemOpt("NextMarker", page.NextMarker)
	w.close("EnumerationResults")
	return w.String()
}

func writeBlob(w *writer, b *blob.Blob) {
	w.open("Blob")
	w.elem("Name", b.Name)
	w.elemOpt("Snapshot", b.Snapshot)
	if b.Deleted {
		w.elemBool("Deleted", true)
		w.elemTime("DeletedTime", b.DeletedOn, http.TimeFormat)
	}

	w.open("Properties")
	w.elemTime("Creation-Time", b.Props.CreatedOn, http.TimeFormat)
	w.elemTime("Last-Modified", b.Props.LastModified, http.TimeFormat)
	w.elem("Etag", b.Props.ETag)
	w.elemUint("Content-Length", b.Props.ContentLength)
	w.elemOpt("Content-Type", b.Props.ContentType)
	w.elemOpt("Content-Encoding", b.Props.ContentEncoding)
	w.elemOpt("Content-Language", b.Props.ContentLanguage)
	w.elemOpt("Content-MD5", b.Props.ContentMD5)
	w.elemOpt("Content-Disposition", b.Props.ContentDisposition)
	w.elemOpt("Cache-Control", b.Props.CacheControl)
	if b.Props.BlobType == blob.TypePage {
		w.elemUint("x-ms-blob-sequence-number", b.Props.SequenceNumber)
	}
	w.elem("BlobType", b.Props.BlobType.String())
	w.elem("AccessTier", b.Props.AccessTier.String())
	w.elemBool("AccessTierInferred", true)
	w.elem("LeaseStatus", b.Props.LeaseStatus.String())
	w.elem("LeaseState", b.Props.LeaseState.String())
	w.elemBool("ServerEncrypted", b.Props.ServerEncrypted)
	if b.Props.BlobType == blob.TypeAppend {
		w.elemBool("Sealed", b.Props.Sealed)
	}
	w.close("Properties")

	writeMetadata(w, b.Metadata)
	if len(b.Tags) > 0 {
		writeTagSet(w, b.Tags)
	}
	w.close("Blob")
}

func writeMetadata(w *writer, md map[string]string) {
	if len(md) == 0 {
		return
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.open("Metadata")
	for _, k := range keys {
		w.elem(k, md[k])
	}
	w.close("Metadata")
}

// FilterBlobsResult renders the (always empty) response of Filter Blobs.
func FilterBlobsResult(serviceEndpoint, where string) string {
	w := newWriter()
	w.openAttr("EnumerationResults", [2]string{"ServiceEndpoint", serviceEndpoint})
	w.elemOpt("Where", where)
	w.open("Blobs")
	w.close("Blobs")
	w.close("EnumerationResults")
	return w.String()
}
