package pending

// Page returns ids[from:to] where a non-negative offset counts from the start and a negative one
// from the end, both clamped to the slice. A negative count yields an empty page.
// The result is a fresh slice and never nil.
func Page(ids []string, offset, count int) []string {
	n := len(ids)
	var from int
	if offset < 0 {
		from = max(0, n+offset)
	} else {
		from = min(n, offset)
	}
	count = max(0, count)
	// from+count may overflow for count near MaxInt.
	to := from + min(count, n-from)

	out := make([]string, to-from)
	copy(out, ids[from:to])
	return out
}
