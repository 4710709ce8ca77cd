package collection

import "sort"

// Mode picks the selection discipline. A deployment chooses one and sticks
// with it: single for the one-image preview model, multi for the
// ctrl-click list model.
type Mode int

const (
	SingleSelect Mode = iota
	MultiSelect
)

// Selection tracks which collection positions are selected. Every index held
// here is valid for the current collection; mutations are remapped through
// ApplyMove/ApplyRemove, never left dangling.
type Selection struct {
	mode    Mode
	indices map[int]struct{}
}

// NewSelection returns an empty selection with the given discipline.
func NewSelection(mode Mode) *Selection {
	return &Selection{mode: mode, indices: make(map[int]struct{})}
}

// Select makes idx selected. In single mode it replaces the previous
// selection; in multi mode it adds to it.
func (s *Selection) Select(idx int) {
	if s.mode == SingleSelect {
		s.indices = map[int]struct{}{idx: {}}
		return
	}
	s.indices[idx] = struct{}{}
}

// Toggle flips idx. In single mode toggling a different index replaces the
// selection.
func (s *Selection) Toggle(idx int) {
	if _, ok := s.indices[idx]; ok {
		delete(s.indices, idx)
		return
	}
	s.Select(idx)
}

// Has reports whether idx is selected.
func (s *Selection) Has(idx int) bool {
	_, ok := s.indices[idx]
	return ok
}

// Len returns the number of selected positions.
func (s *Selection) Len() int { return len(s.indices) }

// Clear empties the selection.
func (s *Selection) Clear() {
	s.indices = make(map[int]struct{})
}

// SelectAll selects 0..n-1. Single-select keeps only the first position.
func (s *Selection) SelectAll(n int) {
	if n <= 0 {
		s.Clear()
		return
	}
	if s.mode == SingleSelect {
		s.indices = map[int]struct{}{0: {}}
		return
	}
	s.indices = make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		s.indices[i] = struct{}{}
	}
}

// Indices returns the selected positions in ascending order.
func (s *Selection) Indices() []int {
	out := make([]int, 0, len(s.indices))
	for idx := range s.indices {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// ApplyMove remaps the selection after a single-element move so each index
// keeps tracking the same logical item:
//   - the moved item follows to its new position
//   - items between from and to shift one step toward the vacated slot
//   - everything else is untouched
func (s *Selection) ApplyMove(from, to int) {
	if from == to {
		return
	}
	next := make(map[int]struct{}, len(s.indices))
	for idx := range s.indices {
		switch {
		case idx == from:
			next[to] = struct{}{}
		case from < to && from < idx && idx <= to:
			next[idx-1] = struct{}{}
		case from > to && to <= idx && idx < from:
			next[idx+1] = struct{}{}
		default:
			next[idx] = struct{}{}
		}
	}
	s.indices = next
}

// ApplyRemove remaps the selection after removing the given collection
// indices: selected positions that were removed are dropped, the rest shift
// down by the number of removed positions below them. removed must contain
// only indices that were actually in range.
func (s *Selection) ApplyRemove(removed []int) {
	if len(removed) == 0 {
		return
	}
	sorted := append([]int(nil), removed...)
	sort.Ints(sorted)

	next := make(map[int]struct{}, len(s.indices))
	for idx := range s.indices {
		dropped := false
		below := 0
		for _, r := range sorted {
			if r == idx {
				dropped = true
				break
			}
			if r < idx {
				below++
			}
		}
		if !dropped {
			next[idx-below] = struct{}{}
		}
	}
	s.indices = next
}
