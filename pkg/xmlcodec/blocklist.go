package xmlcodec

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// BlockList renders the response of the Get Block List operation. The scope
// controls which sections appear.
func BlockList(scope blob.BlockListScope, committed, uncommitted []blob.CommittedBlock) string {
	w := newWriter()
	w.open("BlockList")

	if scope == blob.BlockListCommitted || scope == blob.BlockListAll {
		w.open("CommittedBlocks")
		for _, b := range committed {
			writeBlock(w, b)
		}
		w.close("CommittedBlocks")
	}
	if scope == blob.BlockListUncommitted || scope == blob.BlockListAll {
		w.open("UncommittedBlocks")
		for _, b := range uncommitted {
			writeBlock(w, b)
		}
		w.close("UncommittedBlocks")
	}

	w.close("BlockList")
	return w.String()
}

func writeBlock(w *writer, b blob.CommittedBlock) {
	w.open("Block")
	w.elem("Name", b.ID)
	w.elemUint("Size", b.Size)
	w.close("Block")
}

// BlockRefKind states where a Put Block List entry should be resolved from.
type BlockRefKind int

const (
	// BlockRefLatest resolves from the staging area first, then the
	// committed list.
	BlockRefLatest BlockRefKind = iota
	// BlockRefCommitted resolves from the committed list only.
	BlockRefCommitted
	// BlockRefUncommitted resolves from the staging area only.
	BlockRefUncommitted
)

// BlockRef is one entry of a Put Block List request body.
type BlockRef struct {
	Kind BlockRefKind
	ID   string
}

// ParseBlockList parses a Put Block List request body, preserving document
// order across the Latest, Committed and Uncommitted elements.
func ParseBlockList(r io.Reader) ([]BlockRef, error) {
	dec := xml.NewDecoder(r)

	var refs []BlockRef
	var current string
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bloberror.New(bloberror.InvalidXMLDocument)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if t.Name.Local != "BlockList" {
					return nil, bloberror.New(bloberror.InvalidXMLDocument)
				}
			case 2:
				switch t.Name.Local {
				case "Latest", "Committed", "Uncommitted":
					current = t.Name.Local
				default:
					return nil, bloberror.New(bloberror.InvalidXMLDocument)
				}
			default:
				return nil, bloberror.New(bloberror.InvalidXMLDocument)
			}
		case xml.CharData:
			if depth == 2 && current != "" {
				id := strings.TrimSpace(string(t))
				if id == "" {
					continue
				}
				kind := BlockRefLatest
				switch current {
				case "Committed":
					kind = BlockRefCommitted
				case "Uncommitted":
					kind = BlockRefUncommitted
				}
				refs = append(refs, BlockRef{Kind: kind, ID: id})
				current = ""
			}
		case xml.EndElement:
			depth--
			current = ""
		}
	}
	return refs, nil
}
