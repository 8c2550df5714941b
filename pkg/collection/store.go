package collection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/splinter/pkg/geom"
)

// IndexNone marks an absent index: a root's parent, a cluster's geometry,
// or a cut that produced nothing.
const IndexNone = -1

var (
	ErrUnknownGroup     = errors.New("collection: unknown group")
	ErrUnknownAttribute = errors.New("collection: unknown attribute")
	ErrTypeMismatch     = errors.New("collection: attribute type mismatch")
	ErrExists           = errors.New("collection: attribute already exists")
)

type attribute struct {
	kind       Kind
	dependency string
	data       array
}

type group struct {
	size  int
	attrs map[string]*attribute
	order []string
}

// Collection is a set of named groups, each holding equal-length named
// arrays. Slices returned by the typed accessors alias the store and are
// invalidated by AddElements and RemoveElements.
type Collection struct {
	groups map[string]*group
	order  []string
}

// NewStore returns an empty attribute store with no groups.
func NewStore() *Collection {
	return &Collection{groups: make(map[string]*group)}
}

// AddGroup creates an empty group. Adding an existing group is a no-op.
func (c *Collection) AddGroup(name string) {
	if _, ok := c.groups[name]; ok {
		return
	}
	c.groups[name] = &group{attrs: make(map[string]*attribute)}
	c.order = append(c.order, name)
}

// HasGroup reports whether the group exists.
func (c *Collection) HasGroup(name string) bool {
	_, ok := c.groups[name]
	return ok
}

// Groups returns group names in creation order.
func (c *Collection) Groups() []string {
	return slices.Clone(c.order)
}

// NumElements returns the length of every array in the group, or 0 for an
// unknown group.
func (c *Collection) NumElements(groupName string) int {
	g, ok := c.groups[groupName]
	if !ok {
		return 0
	}
	return g.size
}

// AttributeInfo describes one attribute for introspection and encoding.
type AttributeInfo struct {
	Name       string
	Group      string
	Kind       Kind
	Dependency string
	// Default fills new elements.
	Default any
}

// Attributes lists the attributes of a group in creation order.
func (c *Collection) Attributes(groupName string) []AttributeInfo {
	g, ok := c.groups[groupName]
	if !ok {
		return nil
	}
	out := make([]AttributeInfo, 0, len(g.order))
	for _, name := range g.order {
		a := g.attrs[name]
		out = append(out, AttributeInfo{Name: name, Group: groupName, Kind: a.kind, Dependency: a.dependency, Default: a.data.defaultValue()})
	}
	return out
}

// HasAttribute reports whether name exists in the group.
func (c *Collection) HasAttribute(name, groupName string) bool {
	g, ok := c.groups[groupName]
	if !ok {
		return false
	}
	_, ok = g.attrs[name]
	return ok
}

// AttributeKind returns the kind of an attribute.
func (c *Collection) AttributeKind(name, groupName string) (Kind, bool) {
	a := c.lookup(name, groupName)
	if a == nil {
		return 0, false
	}
	return a.kind, true
}

// AddAttribute creates an attribute filled with def. dependency names the
// group its integer values index into, or "" for none. The group is
// created if missing.
func (c *Collection) AddAttribute(name, groupName string, kind Kind, def any, dependency string) error {
	c.AddGroup(groupName)
	g := c.groups[groupName]
	if _, ok := g.attrs[name]; ok {
		return fmt.Errorf("%w: %s.%s", ErrExists, groupName, name)
	}
	arr, err := newArray(kind, def)
	if err != nil {
		return fmt.Errorf("add %s.%s: %w", groupName, name, err)
	}
	arr.appendDefault(g.size)
	g.attrs[name] = &attribute{kind: kind, dependency: dependency, data: arr}
	g.order = append(g.order, name)
	return nil
}

// SetAttributeData installs data as the contents of an attribute,
// replacing any existing one. The slice length must match the group size;
// an empty group adopts the length.
func (c *Collection) SetAttributeData(name, groupName string, kind Kind, dependency string, data any) error {
	return c.RestoreAttribute(AttributeInfo{Name: name, Group: groupName, Kind: kind, Dependency: dependency}, data)
}

// RestoreAttribute is SetAttributeData driven by an AttributeInfo, keeping
// its default for elements added later.
func (c *Collection) RestoreAttribute(info AttributeInfo, data any) error {
	name, groupName := info.Name, info.Group
	c.AddGroup(groupName)
	g := c.groups[groupName]
	arr, err := wrapSlice(info.Kind, info.Default, data)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", groupName, name, err)
	}
	if len(g.attrs) == 0 && g.size == 0 {
		g.size = arr.Len()
	}
	if arr.Len() != g.size {
		return fmt.Errorf("set %s.%s: length %d does not match group size %d", groupName, name, arr.Len(), g.size)
	}
	if _, ok := g.attrs[name]; !ok {
		g.order = append(g.order, name)
	}
	g.attrs[name] = &attribute{kind: info.Kind, dependency: info.Dependency, data: arr}
	return nil
}

// AttributeData returns the typed slice backing an attribute as an any.
func (c *Collection) AttributeData(name, groupName string) (any, bool) {
	a := c.lookup(name, groupName)
	if a == nil {
		return nil, false
	}
	return a.data.slice(), true
}

// RemoveAttribute deletes an attribute. Missing attributes are ignored.
func (c *Collection) RemoveAttribute(name, groupName string) {
	g, ok := c.groups[groupName]
	if !ok {
		return
	}
	if _, ok := g.attrs[name]; !ok {
		return
	}
	delete(g.attrs, name)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == name })
}

// AddElements appends n default-valued elements to every array in the
// group and returns the index of the first new element.
func (c *Collection) AddElements(n int, groupName string) int {
	c.AddGroup(groupName)
	g := c.groups[groupName]
	start := g.size
	if n <= 0 {
		return start
	}
	for _, a := range g.attrs {
		a.data.appendDefault(n)
	}
	g.size += n
	return start
}

// RemoveElements deletes the listed elements from a group, compacting every
// array, and rewrites every attribute in any group that depends on this
// group so that surviving references follow their element and references
// to removed elements become IndexNone (or drop out of sets).
func (c *Collection) RemoveElements(groupName string, indices []int) {
	g, ok := c.groups[groupName]
	if !ok || len(indices) == 0 {
		return
	}
	removed := make([]bool, g.size)
	count := 0
	for _, i := range indices {
		if i >= 0 && i < g.size && !removed[i] {
			removed[i] = true
			count++
		}
	}
	if count == 0 {
		return
	}
	newIndex := make([]int, g.size)
	next := 0
	for i := range newIndex {
		if removed[i] {
			newIndex[i] = IndexNone
			continue
		}
		newIndex[i] = next
		next++
	}
	for _, a := range g.attrs {
		a.data.compact(removed)
	}
	g.size -= count
	for _, gname := range c.order {
		for _, a := range c.groups[gname].attrs {
			if a.dependency == groupName {
				a.data.remap(newIndex)
			}
		}
	}
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	out := &Collection{groups: make(map[string]*group, len(c.groups)), order: slices.Clone(c.order)}
	for name, g := range c.groups {
		ng := &group{size: g.size, attrs: make(map[string]*attribute, len(g.attrs)), order: slices.Clone(g.order)}
		for an, a := range g.attrs {
			ng.attrs[an] = &attribute{kind: a.kind, dependency: a.dependency, data: a.data.clone()}
		}
		out.groups[name] = ng
	}
	return out
}

// Equal reports attribute-for-attribute equality, ignoring creation order.
func (c *Collection) Equal(o *Collection) bool {
	if o == nil || len(c.groups) != len(o.groups) {
		return false
	}
	for name, g := range c.groups {
		og, ok := o.groups[name]
		if !ok || og.size != g.size || len(og.attrs) != len(g.attrs) {
			return false
		}
		for an, a := range g.attrs {
			oa, ok := og.attrs[an]
			if !ok || oa.kind != a.kind || oa.dependency != a.dependency || !a.data.equal(oa.data) {
				return false
			}
		}
	}
	return true
}

func (c *Collection) lookup(name, groupName string) *attribute {
	g, ok := c.groups[groupName]
	if !ok {
		return nil
	}
	return g.attrs[name]
}

// Get returns the typed slice for an attribute, or nil when the attribute
// is missing or holds a different type.
func Get[T any](c *Collection, name, groupName string) []T {
	a := c.lookup(name, groupName)
	if a == nil {
		return nil
	}
	ta, ok := a.data.(*typedArray[T])
	if !ok {
		return nil
	}
	return ta.data
}

// Ensure returns the attribute, creating it with def when missing.
func Ensure[T any](c *Collection, name, groupName string, def T, dependency string) ([]T, error) {
	if !c.HasAttribute(name, groupName) {
		kind, ok := KindOf(def)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported type %T", ErrTypeMismatch, def)
		}
		if err := c.AddAttribute(name, groupName, kind, def, dependency); err != nil {
			return nil, err
		}
	}
	out := Get[T](c, name, groupName)
	if out == nil && c.NumElements(groupName) > 0 {
		return nil, fmt.Errorf("%w: %s.%s is not %T", ErrTypeMismatch, groupName, name, def)
	}
	return out, nil
}

func (c *Collection) Ints(name, groupName string) []int       { return Get[int](c, name, groupName) }
func (c *Collection) Floats(name, groupName string) []float64 { return Get[float64](c, name, groupName) }
func (c *Collection) Bools(name, groupName string) []bool     { return Get[bool](c, name, groupName) }
func (c *Collection) Strings(name, groupName string) []string { return Get[string](c, name, groupName) }
func (c *Collection) Vecs(name, groupName string) []geom.Vec  { return Get[geom.Vec](c, name, groupName) }
func (c *Collection) Boxes(name, groupName string) []geom.Box { return Get[geom.Box](c, name, groupName) }
func (c *Collection) IntSets(name, groupName string) [][]int  { return Get[[]int](c, name, groupName) }
func (c *Collection) Tris(name, groupName string) [][3]int    { return Get[[3]int](c, name, groupName) }
func (c *Collection) Transforms(name, groupName string) []geom.Transform {
	return Get[geom.Transform](c, name, groupName)
}
