package reconcile

import (
	"cmp"
	"slices"

	"meal-shell/internal/api"
)

// Direction is the way an item moves in the list.
type Direction int

const (
	Up Direction = iota
	Down
)

// SortItems returns a copy of items ordered by sort position. Ties keep their
// relative order.
func SortItems(items []api.ShoppingItem) []api.ShoppingItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b api.ShoppingItem) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return sorted
}

// Renumber rewrites sort positions in place to the dense sequence 0..n-1.
func Renumber(items []api.ShoppingItem) {
	for i := range items {
		items[i].SortOrder = i
	}
}

// MoveItem swaps the item with id and its neighbor in sorted order, then
// renumbers every position densely. The result is sorted. ok is false when
// the item is unknown or already at the edge, in which case items is returned
// sorted and renumbered but otherwise unchanged.
func MoveItem(items []api.ShoppingItem, id string, dir Direction) (moved []api.ShoppingItem, ok bool) {
	moved = SortItems(items)
	defer Renumber(moved)

	idx := slices.IndexFunc(moved, func(it api.ShoppingItem) bool { return it.ID == id })
	if idx < 0 {
		return moved, false
	}

	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(moved) {
		return moved, false
	}

	moved[idx], moved[target] = moved[target], moved[idx]
	return moved, true
}

// SetAllBought returns a copy of items with every bought flag set to bought.
// Ids and sort positions are untouched.
func SetAllBought(items []api.ShoppingItem, bought bool) []api.ShoppingItem {
	out := slices.Clone(items)
	for i := range out {
		out[i].Bought = bought
	}
	return out
}

// Partition splits items into unbought and bought, each sorted by position.
func Partition(items []api.ShoppingItem) (unbought, bought []api.ShoppingItem) {
	for _, it := range SortItems(items) {
		if it.Bought {
			bought = append(bought, it)
		} else {
			unbought = append(unbought, it)
		}
	}
	return unbought, bought
}
