package handlers

import (
	"context"

	"github.com/bloblite/bloblite/pkg/blob"
)

// readContent assembles length bytes of blob content starting at offset by
// walking the extent list.
func (h *Handler) readContent(ctx context.Context, b *blob.Blob, offset, length uint64) ([]byte, error) {
	out := make([]byte, 0, length)
	remaining := length
	pos := uint64(0)

	for _, ref := range b.Extents {
		if remaining == 0 {
			break
		}
		if offset >= pos+ref.Count {
			pos += ref.Count
			continue
		}

		skip := uint64(0)
		if offset > pos {
			skip = offset - pos
		}
		take := ref.Count - skip
		if take > remaining {
			take = remaining
		}

		data, err := h.extents.ReadRange(ctx, ref, skip, take)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
		remaining -= take
		pos += ref.Count
	}
	return out, nil
}

// writeContent stores data as a single extent and returns the reference
// list for a blob holding exactly that payload. Empty payloads produce no
// extents.
func (h *Handler) writeContent(ctx context.Context, data []byte) ([]blob.ExtentRef, error) {
	if len(data) == 0 {
		return nil, nil
	}
	ref, err := h.extents.Write(ctx, data)
	if err != nil {
		return nil, err
	}
	return []blob.ExtentRef{ref}, nil
}

// dropExtents deletes the given extents unless they are still referenced by
// another blob or staged block. Copies share extents, so the check runs
// after the owning metadata record has been removed. Failures are ignored;
// the garbage collector reconciles leftovers.
func (h *Handler) dropExtents(ctx context.Context, refs []blob.ExtentRef) {
	if len(refs) == 0 {
		return
	}
	live, err := h.meta.ReferencedExtents(ctx)
	if err != nil {
		return
	}

	seen := map[string]struct{}{}
	for _, ref := range refs {
		if _, done := seen[ref.ID]; done {
			continue
		}
		seen[ref.ID] = struct{}{}
		if _, used := live[ref.ID]; used {
			continue
		}
		_ = h.extents.Delete(ctx, ref.ID)
	}
}
