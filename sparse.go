package rowan

import "errors"

// ErrIDTooLarge is returned by Put when an entity id exceeds the set's
// configured maximum. The set never grows past its limit.
var ErrIDTooLarge = errors.New("rowan: entity id exceeds configured maximum")

// noIndex marks an unused sparse slot.
const noIndex = -1

// SparseSet maps sparse EntityIDs to densely packed values. Lookup, insert,
// and removal are O(1); removal swaps the last dense element into the freed
// slot so values stay contiguous for cache-friendly iteration.
//
// The sparse array is flat: memory is proportional to the highest id ever
// inserted (up to maxID). For workloads with large sparse id ranges, use
// PagedSparseSet instead.
type SparseSet[V any] struct {
	sparse   []int32
	denseIDs []EntityID
	values   []V
	maxID    EntityID
}

// NewSparseSet creates a flat sparse set that accepts ids in [0, maxID].
func NewSparseSet[V any](maxID EntityID) *SparseSet[V] {
	return &SparseSet[V]{maxID: maxID}
}

// Len returns the number of live entries.
func (s *SparseSet[V]) Len() int {
	return len(s.denseIDs)
}

// Contains reports whether id has a value in the set.
func (s *SparseSet[V]) Contains(id EntityID) bool {
	return int(id) < len(s.sparse) && s.sparse[id] != noIndex
}

// Get returns a pointer to the value stored for id, or nil if absent.
// The pointer is invalidated by the next Put or Remove.
func (s *SparseSet[V]) Get(id EntityID) *V {
	if int(id) >= len(s.sparse) {
		return nil
	}
	idx := s.sparse[id]
	if idx == noIndex {
		return nil
	}
	return &s.values[idx]
}

// Put stores value for id, overwriting any existing value in place.
// Returns ErrIDTooLarge if id exceeds the configured maximum.
func (s *SparseSet[V]) Put(id EntityID, value V) error {
	if id > s.maxID {
		return ErrIDTooLarge
	}
	if int(id) >= len(s.sparse) {
		// Grow by doubling or to id+1, whichever is larger.
		oldLen := len(s.sparse)
		newLen := max(oldLen*2, int(id)+1)
		grown := make([]int32, newLen)
		copy(grown, s.sparse)
		for i := oldLen; i < newLen; i++ {
			grown[i] = noIndex
		}
		s.sparse = grown
	}
	if idx := s.sparse[id]; idx != noIndex {
		s.values[idx] = value
		return nil
	}
	s.sparse[id] = int32(len(s.denseIDs))
	s.denseIDs = append(s.denseIDs, id)
	s.values = append(s.values, value)
	return nil
}

// Remove deletes the value for id, swapping the last dense element into the
// freed slot. Reports whether id was present.
func (s *SparseSet[V]) Remove(id EntityID) bool {
	if int(id) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id]
	if idx == noIndex {
		return false
	}
	last := int32(len(s.denseIDs) - 1)
	if idx != last {
		lastID := s.denseIDs[last]
		s.denseIDs[idx] = lastID
		s.values[idx] = s.values[last]
		s.sparse[lastID] = idx
	}
	var zero V
	s.values[last] = zero
	s.denseIDs = s.denseIDs[:last]
	s.values = s.values[:last]
	s.sparse[id] = noIndex
	return true
}

// Each calls fn for every live (id, value) pair in dense storage order.
// Iteration stops early if fn returns false. fn must not mutate the set.
func (s *SparseSet[V]) Each(fn func(id EntityID, value *V) bool) {
	for i := range s.denseIDs {
		if !fn(s.denseIDs[i], &s.values[i]) {
			return
		}
	}
}

// pageSize is the number of sparse slots per lazily allocated page.
const pageSize = 1024

// PagedSparseSet is the paged variant of SparseSet: the sparse side is a page
// table of fixed-size pages allocated on first touch, so memory tracks the
// spans of ids actually in use rather than the highest id. The dense side is
// identical to SparseSet (swap-remove, contiguous values).
type PagedSparseSet[V any] struct {
	pages    []*[pageSize]int32
	denseIDs []EntityID
	values   []V
	maxID    EntityID
}

// NewPagedSparseSet creates a paged sparse set that accepts ids in [0, maxID].
func NewPagedSparseSet[V any](maxID EntityID) *PagedSparseSet[V] {
	return &PagedSparseSet[V]{maxID: maxID}
}

// Len returns the number of live entries.
func (s *PagedSparseSet[V]) Len() int {
	return len(s.denseIDs)
}

// slot returns a pointer to the sparse slot for id, or nil if its page has
// never been allocated.
func (s *PagedSparseSet[V]) slot(id EntityID) *int32 {
	page := int(id) / pageSize
	if page >= len(s.pages) || s.pages[page] == nil {
		return nil
	}
	return &s.pages[page][int(id)%pageSize]
}

// Contains reports whether id has a value in the set.
func (s *PagedSparseSet[V]) Contains(id EntityID) bool {
	p := s.slot(id)
	return p != nil && *p != noIndex
}

// Get returns a pointer to the value stored for id, or nil if absent.
// The pointer is invalidated by the next Put or Remove.
func (s *PagedSparseSet[V]) Get(id EntityID) *V {
	p := s.slot(id)
	if p == nil || *p == noIndex {
		return nil
	}
	return &s.values[*p]
}

// Put stores value for id, overwriting any existing value in place.
// Returns ErrIDTooLarge if id exceeds the configured maximum.
func (s *PagedSparseSet[V]) Put(id EntityID, value V) error {
	if id > s.maxID {
		return ErrIDTooLarge
	}
	page := int(id) / pageSize
	for len(s.pages) <= page {
		s.pages = append(s.pages, nil)
	}
	if s.pages[page] == nil {
		p := new([pageSize]int32)
		for i := range p {
			p[i] = noIndex
		}
		s.pages[page] = p
	}
	slot := &s.pages[page][int(id)%pageSize]
	if *slot != noIndex {
		s.values[*slot] = value
		return nil
	}
	*slot = int32(len(s.denseIDs))
	s.denseIDs = append(s.denseIDs, id)
	s.values = append(s.values, value)
	return nil
}

// Remove deletes the value for id via swap-remove. Reports whether id was
// present. Empty pages are not freed; the page table is the cost of the span.
func (s *PagedSparseSet[V]) Remove(id EntityID) bool {
	p := s.slot(id)
	if p == nil || *p == noIndex {
		return false
	}
	idx := *p
	last := int32(len(s.denseIDs) - 1)
	if idx != last {
		lastID := s.denseIDs[last]
		s.denseIDs[idx] = lastID
		s.values[idx] = s.values[last]
		*s.slot(lastID) = idx
	}
	var zero V
	s.values[last] = zero
	s.denseIDs = s.denseIDs[:last]
	s.values = s.values[:last]
	*p = noIndex
	return true
}

// Each calls fn for every live (id, value) pair in dense storage order.
// Iteration stops early if fn returns false. fn must not mutate the set.
func (s *PagedSparseSet[V]) Each(fn func(id EntityID, value *V) bool) {
	for i := range s.denseIDs {
		if !fn(s.denseIDs[i], &s.values[i]) {
			return
		}
	}
}
