package ecs

// Each2 iterates over entities that have both component A and B.
// It walks the smaller store and probes the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for id, a := range sa.data {
			if b, ok := sb.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for id, b := range sb.data {
		if a, ok := sa.data[id]; ok {
			fn(id, a, b)
		}
	}
}

// Select returns, in ascending handle order, the entities of s for which keep
// reports true.
func Select[T any](s *PtrComponentStore[T], keep func(EntityID, *T) bool) []EntityID {
	var out []EntityID
	for _, id := range s.IDs() {
		if keep(id, s.data[id]) {
			out = append(out, id)
		}
	}
	return out
}
