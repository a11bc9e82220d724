// SPDX-License-Identifier: Unlicense OR MIT

// Package pool implements a slot arena addressed by generation checked
// handles.
package pool

// Handle addresses a slot in a Pool. A handle is valid while its
// generation matches the slot's live generation. The zero Handle is
// never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// Pool stores values of type T in reusable slots.
type Pool[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

type slot[T any] struct {
	// gen is odd while the slot is occupied. Generations start at 1 so
	// the zero Handle never matches.
	gen uint32
	val T
}

// Index returns the slot index of h, for diagnostics.
func (h Handle) Index() uint32 { return h.index }

// Generation returns the generation of h, for diagnostics.
func (h Handle) Generation() uint32 { return h.gen }

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// Insert stores v in a free slot and returns its handle.
func (p *Pool[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot[T]{})
	}
	s := &p.slots[idx]
	s.gen++
	s.val = v
	p.live++
	return Handle{index: idx, gen: s.gen}
}

// Get returns a pointer to the value addressed by h, or nil if h is stale
// or was never issued by p.
func (p *Pool[T]) Get(h Handle) *T {
	if h.gen&1 == 0 || int(h.index) >= len(p.slots) {
		return nil
	}
	s := &p.slots[h.index]
	if s.gen != h.gen {
		return nil
	}
	return &s.val
}

// Valid reports whether h addresses a live slot.
func (p *Pool[T]) Valid(h Handle) bool {
	return p.Get(h) != nil
}

// Remove invalidates h and returns the value it addressed. Removing a
// stale handle returns false and leaves the pool unchanged.
func (p *Pool[T]) Remove(h Handle) (T, bool) {
	var zero T
	if p.Get(h) == nil {
		return zero, false
	}
	s := &p.slots[h.index]
	v := s.val
	s.val = zero
	s.gen++
	// A slot whose generation wrapped is retired so stale handles never
	// match a later occupant.
	if s.gen != 0 {
		p.free = append(p.free, h.index)
	}
	p.live--
	return v, true
}

// Len returns the number of live slots.
func (p *Pool[T]) Len() int {
	return p.live
}

// Each calls fn for every live slot in index order.
func (p *Pool[T]) Each(fn func(h Handle, v *T)) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.gen&1 == 1 {
			fn(Handle{index: uint32(i), gen: s.gen}, &s.val)
		}
	}
}
