package breaker

import "sort"

// Reorder implements spec §4.4 step 2: candidates whose circuit is
// closed come first (original order preserved), followed by candidates
// whose circuit is open (ordered by ascending openUntil, original
// order preserved among ties). No candidate is ever dropped — an open
// circuit only defers its turn.
func Reorder[T any](candidates []T, key func(T) string, store *Store) []T {
	type scored struct {
		item      T
		open      bool
		openUntil int64 // UnixNano; 0 for closed candidates
		index     int
	}

	scoredItems := make([]scored, len(candidates))
	for i, c := range candidates {
		until, open := store.OpenUntil(key(c))
		scoredItems[i] = scored{item: c, open: open, index: i}
		if open {
			scoredItems[i].openUntil = until.UnixNano()
		}
	}

	sort.SliceStable(scoredItems, func(i, j int) bool {
		a, b := scoredItems[i], scoredItems[j]
		if a.open != b.open {
			return !a.open // closed (false) sorts before open (true)
		}
		if !a.open {
			return a.index < b.index
		}
		if a.openUntil != b.openUntil {
			return a.openUntil < b.openUntil
		}
		return a.index < b.index
	})

	out := make([]T, len(candidates))
	for i, s := range scoredItems {
		out[i] = s.item
	}
	return out
}
