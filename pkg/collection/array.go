package collection

import (
	"fmt"
	"slices"

	"github.com/chazu/splinter/pkg/geom"
)

// Kind tags the element type of an attribute.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
	KindString
	KindVec
	KindBox
	KindTransform
	KindIntSet
	KindTri
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindVec:
		return "vec"
	case KindBox:
		return "box"
	case KindTransform:
		return "transform"
	case KindIntSet:
		return "intset"
	case KindTri:
		return "tri"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf returns the attribute kind for a Go value of a supported type.
func KindOf(v any) (Kind, bool) {
	switch v.(type) {
	case int:
		return KindInt, true
	case float64:
		return KindFloat, true
	case bool:
		return KindBool, true
	case string:
		return KindString, true
	case geom.Vec:
		return KindVec, true
	case geom.Box:
		return KindBox, true
	case geom.Transform:
		return KindTransform, true
	case []int:
		return KindIntSet, true
	case [3]int:
		return KindTri, true
	}
	return 0, false
}

// array is the type-erased storage behind one attribute.
type array interface {
	Len() int
	appendDefault(n int)
	compact(removed []bool)
	clone() array
	equal(o array) bool
	remap(newIndex []int)
	slice() any
	defaultValue() any
}

type typedArray[T any] struct {
	data      []T
	def       T
	copyElem  func(T) T
	eq        func(a, b T) bool
	remapElem func(T, []int) T
}

func (a *typedArray[T]) Len() int { return len(a.data) }

func (a *typedArray[T]) appendDefault(n int) {
	for i := 0; i < n; i++ {
		v := a.def
		if a.copyElem != nil {
			v = a.copyElem(v)
		}
		a.data = append(a.data, v)
	}
}

func (a *typedArray[T]) compact(removed []bool) {
	out := a.data[:0]
	for i, v := range a.data {
		if !removed[i] {
			out = append(out, v)
		}
	}
	var zero T
	for i := len(out); i < len(a.data); i++ {
		a.data[i] = zero
	}
	a.data = out
}

func (a *typedArray[T]) clone() array {
	b := *a
	b.data = make([]T, len(a.data))
	if a.copyElem == nil {
		copy(b.data, a.data)
	} else {
		for i, v := range a.data {
			b.data[i] = a.copyElem(v)
		}
	}
	return &b
}

func (a *typedArray[T]) equal(o array) bool {
	b, ok := o.(*typedArray[T])
	if !ok || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.data {
		if !a.eq(a.data[i], b.data[i]) {
			return false
		}
	}
	return true
}

func (a *typedArray[T]) remap(newIndex []int) {
	if a.remapElem == nil {
		return
	}
	for i, v := range a.data {
		a.data[i] = a.remapElem(v, newIndex)
	}
}

func (a *typedArray[T]) slice() any { return a.data }

func (a *typedArray[T]) defaultValue() any { return a.def }

func eqComparable[T comparable](a, b T) bool { return a == b }

func remapIndex(v int, newIndex []int) int {
	if v < 0 || v >= len(newIndex) {
		return IndexNone
	}
	return newIndex[v]
}

func remapSet(s []int, newIndex []int) []int {
	out := s[:0]
	for _, v := range s {
		if n := remapIndex(v, newIndex); n != IndexNone {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

func remapTri(t [3]int, newIndex []int) [3]int {
	return [3]int{remapIndex(t[0], newIndex), remapIndex(t[1], newIndex), remapIndex(t[2], newIndex)}
}

func newArray(kind Kind, def any) (array, error) {
	bad := func() error {
		return fmt.Errorf("%w: default %T for %s attribute", ErrTypeMismatch, def, kind)
	}
	switch kind {
	case KindInt:
		d, ok := orZero[int](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[int]{def: d, eq: eqComparable[int], remapElem: remapIndex}, nil
	case KindFloat:
		d, ok := orZero[float64](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[float64]{def: d, eq: eqComparable[float64]}, nil
	case KindBool:
		d, ok := orZero[bool](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[bool]{def: d, eq: eqComparable[bool]}, nil
	case KindString:
		d, ok := orZero[string](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[string]{def: d, eq: eqComparable[string]}, nil
	case KindVec:
		d, ok := orZero[geom.Vec](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[geom.Vec]{def: d, eq: eqComparable[geom.Vec]}, nil
	case KindBox:
		d, ok := orZero[geom.Box](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[geom.Box]{def: d, eq: eqComparable[geom.Box]}, nil
	case KindTransform:
		d, ok := orZero[geom.Transform](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[geom.Transform]{def: d, eq: eqComparable[geom.Transform]}, nil
	case KindIntSet:
		d, ok := orZero[[]int](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[[]int]{
			def:       d,
			copyElem:  func(s []int) []int { return slices.Clone(s) },
			eq:        func(a, b []int) bool { return slices.Equal(a, b) },
			remapElem: remapSet,
		}, nil
	case KindTri:
		d, ok := orZero[[3]int](def)
		if !ok {
			return nil, bad()
		}
		return &typedArray[[3]int]{def: d, eq: eqComparable[[3]int], remapElem: remapTri}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrTypeMismatch, kind)
}

func orZero[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}

// wrapSlice adopts an existing typed slice as attribute storage. def may
// be nil for the zero value.
func wrapSlice(kind Kind, def, data any) (array, error) {
	a, err := newArray(kind, def)
	if err != nil {
		return nil, err
	}
	ok := false
	switch ta := a.(type) {
	case *typedArray[int]:
		ta.data, ok = data.([]int)
	case *typedArray[float64]:
		ta.data, ok = data.([]float64)
	case *typedArray[bool]:
		ta.data, ok = data.([]bool)
	case *typedArray[string]:
		ta.data, ok = data.([]string)
	case *typedArray[geom.Vec]:
		ta.data, ok = data.([]geom.Vec)
	case *typedArray[geom.Box]:
		ta.data, ok = data.([]geom.Box)
	case *typedArray[geom.Transform]:
		ta.data, ok = data.([]geom.Transform)
	case *typedArray[[]int]:
		ta.data, ok = data.([][]int)
	case *typedArray[[3]int]:
		ta.data, ok = data.([][3]int)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s attribute", ErrTypeMismatch, data, kind)
	}
	return a, nil
}
