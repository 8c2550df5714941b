// Package selection is a fixed-length bitset over one entity group of a
// collection, with set algebra and the transform/face/vertex selectors
// used to feed the fracture operators.
//
// A selection is only meaningful for the collection state it was built
// from. The only liveness check is length: a selection whose length does
// not match the group's current element count is rejected with
// ErrLengthMismatch before it is used to index anything.
package selection

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/chazu/splinter/pkg/collection"
)

var (
	ErrLengthMismatch  = errors.New("selection: length mismatch")
	ErrIndexOutOfRange = errors.New("selection: index out of range")
)

// Selection is a bitset of a fixed length. Copies share their bits; use
// Clone for an independent selection.
type Selection struct {
	n    int
	bits *bitset.BitSet
}

// New returns an empty selection of length n.
func New(n int) Selection {
	if n < 0 {
		n = 0
	}
	return Selection{n: n, bits: bitset.New(uint(n))}
}

// All returns a selection of length n with every element set.
func All(n int) Selection {
	s := New(n)
	if s.n > 0 {
		s.bits.FlipRange(0, uint(s.n))
	}
	return s
}

// FromArray builds a selection of length n from a list of indices.
func FromArray(n int, indices []int) (Selection, error) {
	s := New(n)
	if err := s.SetFromArray(indices); err != nil {
		return New(n), err
	}
	return s, nil
}

// set returns the bits, allocating them for a zero Selection.
func (s *Selection) set() *bitset.BitSet {
	if s.bits == nil {
		s.bits = bitset.New(uint(s.n))
	}
	return s.bits
}

// Len returns the selection length.
func (s Selection) Len() int { return s.n }

// Num returns the number of selected elements.
func (s Selection) Num() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool { return s.bits == nil || s.bits.None() }

// AnySelected is the negation of IsEmpty.
func (s Selection) AnySelected() bool { return !s.IsEmpty() }

// IsSelected reports whether element i is set. Out-of-range indices are
// never selected.
func (s Selection) IsSelected(i int) bool {
	if i < 0 || i >= s.n || s.bits == nil {
		return false
	}
	return s.bits.Test(uint(i))
}

// SetSelected sets or clears element i. Out-of-range indices are ignored.
func (s *Selection) SetSelected(i int, v bool) {
	if i < 0 || i >= s.n {
		return
	}
	s.set().SetTo(uint(i), v)
}

// Select sets element i.
func (s *Selection) Select(i int) { s.SetSelected(i, true) }

// Deselect clears element i.
func (s *Selection) Deselect(i int) { s.SetSelected(i, false) }

// Clear deselects everything.
func (s *Selection) Clear() {
	if s.bits != nil {
		s.bits.ClearAll()
	}
}

// AsArray returns the selected indices in ascending order.
func (s Selection) AsArray() []int {
	out := make([]int, 0, s.Num())
	if s.bits == nil {
		return out
	}
	for i, ok := s.bits.NextSet(0); ok && int(i) < s.n; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// SetFromArray replaces the contents with the listed indices. Any index
// out of range rejects the whole array and leaves s unchanged.
func (s *Selection) SetFromArray(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= s.n {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, s.n)
		}
	}
	s.Clear()
	for _, i := range indices {
		s.Select(i)
	}
	return nil
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	if s.bits == nil {
		return New(s.n)
	}
	return Selection{n: s.n, bits: s.bits.Clone()}
}

// Equal reports equal length and contents.
func (s Selection) Equal(o Selection) bool {
	if s.n != o.n {
		return false
	}
	return s.Clone().bits.Equal(o.Clone().bits)
}

// Invert returns the complement.
func (s Selection) Invert() Selection {
	out := s.Clone()
	if s.n > 0 {
		out.bits.FlipRange(0, uint(s.n))
	}
	return out
}

func (s Selection) combine(o Selection, op func(a, b *bitset.BitSet)) (Selection, error) {
	if s.n != o.n {
		return Selection{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, s.n, o.n)
	}
	out := s.Clone()
	op(out.bits, o.Clone().bits)
	return out, nil
}

// And returns the intersection.
func (s Selection) And(o Selection) (Selection, error) {
	return s.combine(o, (*bitset.BitSet).InPlaceIntersection)
}

// Or returns the union.
func (s Selection) Or(o Selection) (Selection, error) {
	return s.combine(o, (*bitset.BitSet).InPlaceUnion)
}

// Xor returns the symmetric difference.
func (s Selection) Xor(o Selection) (Selection, error) {
	return s.combine(o, (*bitset.BitSet).InPlaceSymmetricDifference)
}

// Subtract returns the elements of s not in o.
func (s Selection) Subtract(o Selection) (Selection, error) {
	return s.combine(o, (*bitset.BitSet).InPlaceDifference)
}

// SetOp names a binary set operation.
type SetOp int

const (
	OpAnd SetOp = iota
	OpOr
	OpXor
	OpSubtract
)

// Apply runs op on a and b.
func Apply(op SetOp, a, b Selection) (Selection, error) {
	switch op {
	case OpAnd:
		return a.And(b)
	case OpOr:
		return a.Or(b)
	case OpXor:
		return a.Xor(b)
	case OpSubtract:
		return a.Subtract(b)
	}
	return Selection{}, fmt.Errorf("selection: unknown set operation %d", op)
}

// IsValidFor reports whether the selection length matches the group size.
func (s Selection) IsValidFor(c *collection.Collection, group string) bool {
	return c != nil && s.n == c.NumElements(group)
}

// Validate returns ErrLengthMismatch when the selection does not match the
// current size of group.
func (s Selection) Validate(c *collection.Collection, group string) error {
	if c == nil {
		return fmt.Errorf("%w: no collection", ErrLengthMismatch)
	}
	if !s.IsValidFor(c, group) {
		return fmt.Errorf("%w: selection has %d elements, %s group has %d",
			ErrLengthMismatch, s.n, group, c.NumElements(group))
	}
	return nil
}

func (s Selection) String() string {
	return fmt.Sprintf("Selection(%d/%d %v)", s.Num(), s.n, s.AsArray())
}
