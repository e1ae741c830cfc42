package xmlcodec

import (
	"encoding/xml"
	"io"
	"sort"

	"github.com/bloblite/bloblite/pkg/bloberror"
)

// Tags renders the response of the Get Blob Tags operation, keys sorted.
func Tags(tags map[string]string) string {
	w := newWriter()
	writeTagSet(w, tags)
	return w.String()
}

func writeTagSet(w *writer, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.open("Tags")
	w.open("TagSet")
	for _, k := range keys {
		w.open("Tag")
		w.elem("Key", k)
		w.elem("Value", tags[k])
		w.close("Tag")
	}
	w.close("TagSet")
	w.close("Tags")
}

// ParseTags parses a Set Blob Tags request body.
func ParseTags(r io.Reader) (map[string]string, error) {
	var doc struct {
		XMLName xml.Name `xml:"Tags"`
		TagSet  struct {
			Tags []struct {
				Key   string `xml:"Key"`
				Value string `xml:"Value"`
			} `xml:"Tag"`
		} `xml:"TagSet"`
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, bloberror.New(bloberror.InvalidXMLDocument)
	}

	tags := make(map[string]string, len(doc.TagSet.Tags))
	for _, t := range doc.TagSet.Tags {
		tags[t.Key] = t.Value
	}
	return tags, nil
}
