package recipe

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/selection"
)

// sexpVec carries a geom.Vec through the interpreter.
type sexpVec struct{ v geom.Vec }

func (s *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", s.v.X, s.v.Y, s.v.Z)
}
func (s *sexpVec) Type() *zygo.RegisteredType { return nil }

// sexpSelection carries a bone selection. It is tied to the collection it
// was made for; builtins reject it once the bone count has moved on.
type sexpSelection struct{ sel selection.Selection }

func (s *sexpSelection) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(selection %d/%d)", s.sel.Num(), s.sel.Len())
}
func (s *sexpSelection) Type() *zygo.RegisteredType { return nil }

func integer(n int) zygo.Sexp { return &zygo.SexpInt{Val: int64(n)} }

// args splits a call's arguments into keywords and positionals.
type args struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
	err        error
}

func parse(fn string, in []zygo.Sexp) *args {
	a := &args{fn: fn, kw: map[string]zygo.Sexp{}}
	for i := 0; i < len(in); i++ {
		if name, ok := keyword(in[i]); ok {
			if i+1 < len(in) {
				a.kw[name] = in[i+1]
				i++
			} else {
				a.kw[name] = zygo.SexpNull
			}
			continue
		}
		a.positional = append(a.positional, in[i])
	}
	return a
}

func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// fail records the first bad argument; later reads still return their
// defaults so a builtin can check err once.
func (a *args) fail(key, format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: %s: %s", a.fn, key, fmt.Sprintf(format, v...))
	}
}

func describe(s zygo.Sexp) string {
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

// num reads :key as a number and returns def when it is absent.
func (a *args) num(key string, def float64) float64 {
	v, ok := a.kw[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case *zygo.SexpInt:
		return float64(n.Val)
	case *zygo.SexpFloat:
		return n.Val
	}
	a.fail(key, "expected number, got %s", describe(v))
	return def
}

func (a *args) count(key string, def int) int {
	v, ok := a.kw[key]
	if !ok {
		return def
	}
	if n, ok := v.(*zygo.SexpInt); ok {
		return int(n.Val)
	}
	a.fail(key, "expected integer, got %s", describe(v))
	return def
}

func (a *args) flag(key string, def bool) bool {
	v, ok := a.kw[key]
	if !ok {
		return def
	}
	if v == zygo.SexpNull {
		// A bare trailing keyword reads as set.
		return true
	}
	if b, ok := v.(*zygo.SexpBool); ok {
		return b.Val
	}
	a.fail(key, "expected boolean, got %s", describe(v))
	return def
}

// name reads :key as a keyword or string.
func (a *args) name(key, def string) string {
	v, ok := a.kw[key]
	if !ok {
		return def
	}
	if k, ok := keyword(v); ok {
		return k
	}
	if s, ok := v.(*zygo.SexpStr); ok {
		return s.S
	}
	a.fail(key, "expected keyword or string, got %s", describe(v))
	return def
}

func (a *args) vec(key string, def geom.Vec) geom.Vec {
	v, ok := a.kw[key]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case *sexpVec:
		return x.v
	case *zygo.SexpInt:
		return geom.Splat(float64(x.Val))
	case *zygo.SexpFloat:
		return geom.Splat(x.Val)
	}
	a.fail(key, "expected vec3, got %s", describe(v))
	return def
}

// selection reads :sel. An absent key returns nil, which the cutters read
// as every bone.
func (a *args) selection() *selection.Selection {
	v, ok := a.kw["sel"]
	if !ok {
		return nil
	}
	s, ok := v.(*sexpSelection)
	if !ok {
		a.fail("sel", "expected selection, got %s", describe(v))
		return nil
	}
	sel := s.sel.Clone()
	return &sel
}
