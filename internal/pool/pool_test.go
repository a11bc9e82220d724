// SPDX-License-Identifier: Unlicense OR MIT

package pool

import (
	"math"
	"testing"
)

func TestInsertGet(t *testing.T) {
	var p Pool[string]
	a := p.Insert("a")
	b := p.Insert("b")
	if a == b {
		t.Fatal("distinct inserts returned equal handles")
	}
	if got := p.Get(a); got == nil || *got != "a" {
		t.Errorf("Get(a) = %v", got)
	}
	if got := p.Get(b); got == nil || *got != "b" {
		t.Errorf("Get(b) = %v", got)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}
}

func TestZeroHandle(t *testing.T) {
	var p Pool[int]
	p.Insert(1)
	if p.Valid(Handle{}) {
		t.Error("zero handle is valid")
	}
	if _, ok := p.Remove(Handle{}); ok {
		t.Error("removed zero handle")
	}
}

func TestStaleAfterReuse(t *testing.T) {
	var p Pool[int]
	h1 := p.Insert(1)
	if _, ok := p.Remove(h1); !ok {
		t.Fatal("Remove failed")
	}
	if p.Valid(h1) {
		t.Fatal("handle valid after Remove")
	}
	h2 := p.Insert(2)
	if h2.Index() != h1.Index() {
		t.Fatalf("slot not reused: %d != %d", h2.Index(), h1.Index())
	}
	if h2 == h1 {
		t.Fatal("reused slot kept its generation")
	}
	if p.Get(h1) != nil {
		t.Error("stale handle resolves to the new value")
	}
	if v := p.Get(h2); v == nil || *v != 2 {
		t.Errorf("Get(h2) = %v", v)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	var p Pool[int]
	h := p.Insert(7)
	v, ok := p.Remove(h)
	if !ok || v != 7 {
		t.Fatalf("Remove = %d, %v", v, ok)
	}
	if _, ok := p.Remove(h); ok {
		t.Error("second Remove succeeded")
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}
}

func TestEach(t *testing.T) {
	var p Pool[int]
	var hs []Handle
	for i := 0; i < 5; i++ {
		hs = append(hs, p.Insert(i))
	}
	p.Remove(hs[1])
	p.Remove(hs[3])
	var sum, n int
	p.Each(func(h Handle, v *int) {
		if !p.Valid(h) {
			t.Errorf("Each visited stale handle %v", h)
		}
		sum += *v
		n++
	})
	if n != 3 || sum != 0+2+4 {
		t.Errorf("Each visited %d slots summing %d", n, sum)
	}
}

func TestSaturatedSlotRetired(t *testing.T) {
	var p Pool[int]
	h := p.Insert(1)
	// Fast-forward the slot to its last odd generation.
	p.slots[h.index].gen = math.MaxUint32
	h = Handle{index: h.index, gen: math.MaxUint32}
	if !p.Valid(h) {
		t.Fatal("saturated handle is not valid")
	}
	if _, ok := p.Remove(h); !ok {
		t.Fatal("Remove failed")
	}
	if len(p.free) != 0 {
		t.Errorf("saturated slot returned to the free list")
	}
	h2 := p.Insert(2)
	if h2.index == h.index {
		t.Errorf("retired slot %d reused", h.index)
	}
	if p.Valid(h) || p.Valid(Handle{index: h.index, gen: 1}) {
		t.Error("retired slot still addressable")
	}
	n := 0
	p.Each(func(Handle, *int) { n++ })
	if n != 1 || p.Len() != 1 {
		t.Errorf("Each visited %d slots, Len = %d, want 1", n, p.Len())
	}
}
