package domain

// Page returns a copy of the items in [offset, offset+limit).
// An offset past the end yields an empty, non-nil slice.
func Page[T any](items []T, offset, limit uint64) []T {
	total := uint64(len(items))
	if offset >= total {
		return []T{}
	}

	end := min(offset+limit, total)
	out := make([]T, end-offset)
	copy(out, items[offset:end])

	return out
}
