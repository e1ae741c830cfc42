package xmlcodec

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// SignedIdentifiers renders the response of the Get Container ACL operation.
func SignedIdentifiers(ids []blob.SignedIdentifier) string {
	w := newWriter()
	w.open("SignedIdentifiers")
	for _, id := range ids {
		w.open("SignedIdentifier")
		w.elem("Id", id.ID)
		w.open("AccessPolicy")
		w.elemTime("Start", id.Policy.Start, AccessPolicyTimeFormat)
		w.elemTime("Expiry", id.Policy.Expiry, AccessPolicyTimeFormat)
		w.elem("Permission", id.Policy.Permission)
		w.close("AccessPolicy")
		w.close("SignedIdentifier")
	}
	w.close("SignedIdentifiers")
	return w.String()
}

// ParseSignedIdentifiers parses a Set Container ACL request body. An empty
// body yields an empty list, which clears the ACL.
func ParseSignedIdentifiers(r io.Reader) ([]blob.SignedIdentifier, error) {
	var doc struct {
		XMLName     xml.Name `xml:"SignedIdentifiers"`
		Identifiers []struct {
			ID           string `xml:"Id"`
			AccessPolicy struct {
				Start      string `xml:"Start"`
				Expiry     string `xml:"Expiry"`
				Permission string `xml:"Permission"`
			} `xml:"AccessPolicy"`
		} `xml:"SignedIdentifier"`
	}
	err := xml.NewDecoder(r).Decode(&doc)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, bloberror.New(bloberror.InvalidXMLDocument)
	}

	ids := make([]blob.SignedIdentifier, 0, len(doc.Identifiers))
	for _, si := range doc.Identifiers {
		id := blob.SignedIdentifier{ID: si.ID}
		id.Policy.Permission = si.AccessPolicy.Permission
		if si.AccessPolicy.Start != "" {
			t, err := parsePolicyTime(si.AccessPolicy.Start)
			if err != nil {
				return nil, bloberror.New(bloberror.InvalidXMLDocument)
			}
			id.Policy.Start = t
		}
		if si.AccessPolicy.Expiry != "" {
			t, err := parsePolicyTime(si.AccessPolicy.Expiry)
			if err != nil {
				return nil, bloberror.New(bloberror.InvalidXMLDocument)
			}
			id.Policy.Expiry = t
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parsePolicyTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(AccessPolicyTimeFormat, s)
}
