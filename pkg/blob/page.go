package blob

// PageRange is a half-open-on-write, inclusive-on-wire range of valid pages
// in a page blob. Start and End are byte offsets; End is inclusive.
type PageRange struct {
	Start uint64
	End   uint64
}

// Length returns the number of bytes covered by the range.
func (r PageRange) Length() uint64 { return r.End - r.Start + 1 }

// MergeRange inserts r into a sorted, non-overlapping range set, coalescing
// adjacent and overlapping entries. Returns the new set.
func MergeRange(set []PageRange, r PageRange) []PageRange {
	out := make([]PageRange, 0, len(set)+1)
	inserted := false
	for _, cur := range set {
		switch {
		case inserted, cur.End+1 < r.Start:
			out = append(out, cur)
		case r.End+1 < cur.Start:
			out = append(out, r, cur)
			inserted = true
		default:
			if cur.Start < r.Start {
				r.Start = cur.Start
			}
			if cur.End > r.End {
				r.End = cur.End
			}
		}
	}
	if !inserted {
		out = append(out, r)
	}
	return out
}

// RemoveRange deletes r from a sorted, non-overlapping range set, splitting
// entries that straddle the boundary.
func RemoveRange(set []PageRange, r PageRange) []PageRange {
	out := make([]PageRange, 0, len(set)+1)
	for _, cur := range set {
		if cur.End < r.Start || cur.Start > r.End {
			out = append(out, cur)
			continue
		}
		if cur.Start < r.Start {
			out = append(out, PageRange{Start: cur.Start, End: r.Start - 1})
		}
		if cur.End > r.End {
			out = append(out, PageRange{Start: r.End + 1, End: cur.End})
		}
	}
	return out
}

// SubtractRanges returns the parts of a not covered by b. Both inputs must be
// sorted and non-overlapping.
func SubtractRanges(a, b []PageRange) []PageRange {
	out := append([]PageRange(nil), a...)
	for _, r := range b {
		out = RemoveRange(out, r)
	}
	return out
}

// ClampRanges trims a sorted range set to [0, size).
func ClampRanges(set []PageRange, size uint64) []PageRange {
	if size == 0 {
		return nil
	}
	var out []PageRange
	for _, cur := range set {
		if cur.Start >= size {
			break
		}
		if cur.End >= size {
			cur.End = size - 1
		}
		out = append(out, cur)
	}
	return out
}
