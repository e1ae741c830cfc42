package xmlcodec

import "github.com/bloblite/bloblite/pkg/blob"

// PageList renders the response of the Get Page Ranges operation. For the
// diff variant, clearRanges holds the ranges cleared since the previous
// snapshot; for the plain variant it is nil.
func PageList(ranges, clearRanges []blob.PageRange) string {
	w := newWriter()
	w.open("PageList")
	for _, r := range ranges {
		w.open("PageRange")
		w.elemUint("Start", r.Start)
		w.elemUint("End", r.End)
		w.close("PageRange")
	}
	for _, r := range clearRanges {
		w.open("ClearRange")
		w.elemUint("Start", r.Start)
		w.elemUint("End", r.End)
		w.close("ClearRange")
	}
	w.close("PageList")
	return w.String()
}
