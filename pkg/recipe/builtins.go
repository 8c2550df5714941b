package recipe

import (
	"errors"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/splinter/pkg/clustering"
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/selection"
	"github.com/chazu/splinter/pkg/utility"
)

var errNoCollection = errors.New("no collection; start with box-collection or grid-collection")

// state is what one evaluation works on. Every builtin reads and replaces
// the current collection; none touch the caller's input.
type state struct {
	eng   *Engine
	c     *collection.Collection
	sel   selection.Selection
	new   selection.Selection
	steps int
	value string
}

func (s *state) set(c *collection.Collection) {
	s.c = c
	s.sel = selection.New(c.NumTransforms())
	s.new = selection.New(c.NumTransforms())
}

func (s *state) bones() int {
	if s.c == nil {
		return 0
	}
	return s.c.NumTransforms()
}

func (s *state) result() *Result {
	return &Result{Collection: s.c, Selection: s.sel, New: s.new, Steps: s.steps, Value: s.value}
}

// common reads the shared cutter keywords over the engine defaults.
func (s *state) common(a *args) fracture.Common {
	o := s.eng.Defaults
	o.Seed = int64(a.count("seed", int(o.Seed)))
	o.ChanceToFracture = a.num("chance", o.ChanceToFracture)
	o.Grout = a.num("grout", o.Grout)
	o.SplitIslands = a.flag("split-islands", o.SplitIslands)
	o.InternalMaterial = a.count("internal-material", o.InternalMaterial)
	return o
}

// cut adopts a cutter result and hands back the new fragments.
func (s *state) cut(r fracture.Result) zygo.Sexp {
	s.c = r.Collection
	s.sel = r.Original
	s.new = r.New
	if r.Cut() {
		s.steps++
	}
	return &sexpSelection{sel: r.New.Clone()}
}

func (s *state) selected(sel selection.Selection) zygo.Sexp {
	s.sel = sel
	return &sexpSelection{sel: sel.Clone()}
}

type builtin struct {
	// needs says the builtin works on an existing collection.
	needs bool
	fn    func(s *state, a *args) (zygo.Sexp, error)
}

var builtins = map[string]builtin{
	"vec3":            {false, vec3},
	"box-collection":  {false, boxCollection},
	"grid-collection": {false, gridCollection},
	"bone-count":      {false, func(s *state, a *args) (zygo.Sexp, error) { return integer(s.bones()), nil }},
	"select-all":      {true, func(s *state, a *args) (zygo.Sexp, error) { return s.selected(selection.SelectAll(s.c)), nil }},
	"select-none":     {true, func(s *state, a *args) (zygo.Sexp, error) { return s.selected(selection.SelectNone(s.c)), nil }},
	"select-leaves":   {true, func(s *state, a *args) (zygo.Sexp, error) { return s.selected(selection.SelectLeaf(s.c)), nil }},
	"select-level":    {true, selectLevel},
	"voronoi":         {true, voronoi},
	"plane-cut":       {true, planeCut},
	"slice":           {true, slice},
	"brick":           {true, brick},
	"uniform":         {true, uniform},
	"mesh-cut":        {true, meshCut},
	"auto-cluster":    {true, autoCluster},
	"fix-tiny":        {true, fixTiny},
	"explode":         {true, explode},
}

// register installs the builtins under their preprocessed names.
func (s *state) register(env *zygo.Zlisp) {
	for name, b := range builtins {
		env.AddFunction(strings.ReplaceAll(name, "-", "_"), func(env *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
			if b.needs && s.c == nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, errNoCollection)
			}
			a := parse(name, in)
			out, err := b.fn(s, a)
			if err == nil {
				err = a.err
			}
			if err != nil {
				return zygo.SexpNull, err
			}
			return out, nil
		})
	}
}

// (vec3 1 2 3)
func vec3(s *state, a *args) (zygo.Sexp, error) {
	if len(a.positional) != 3 {
		return nil, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(a.positional))
	}
	var xyz [3]float64
	for i, p := range a.positional {
		switch n := p.(type) {
		case *zygo.SexpInt:
			xyz[i] = float64(n.Val)
		case *zygo.SexpFloat:
			xyz[i] = n.Val
		default:
			return nil, fmt.Errorf("vec3: argument %d: expected number, got %s", i+1, describe(p))
		}
	}
	return &sexpVec{v: geom.V(xyz[0], xyz[1], xyz[2])}, nil
}

// (box-collection :min (vec3 -1 -1 -1) :max (vec3 1 1 1))
func boxCollection(s *state, a *args) (zygo.Sexp, error) {
	box := geom.NewBox(a.vec("min", geom.Splat(-1)), a.vec("max", geom.Splat(1)))
	if a.err != nil {
		return nil, a.err
	}
	if box.Volume() <= 0 {
		return nil, fmt.Errorf("box-collection: box %v has no volume", box)
	}
	s.set(collection.NewBox(box))
	return integer(s.bones()), nil
}

// (grid-collection :nx 4 :ny 2 :nz 1 :size 1)
func gridCollection(s *state, a *args) (zygo.Sexp, error) {
	nx, ny, nz := a.count("nx", 1), a.count("ny", 1), a.count("nz", 1)
	size := a.num("size", 1)
	if a.err != nil {
		return nil, a.err
	}
	if nx < 1 || ny < 1 || nz < 1 || size <= 0 {
		return nil, fmt.Errorf("grid-collection: need positive counts and size")
	}
	s.set(collection.NewGrid(nx, ny, nz, size))
	return integer(s.bones()), nil
}

// (select-level :level 1)
func selectLevel(s *state, a *args) (zygo.Sexp, error) {
	level := a.count("level", 1)
	return s.selected(selection.SelectTargetLevel(s.c, level, false)), nil
}

// (voronoi :sites 8 :seed 1 :grout 0.01)
func voronoi(s *state, a *args) (zygo.Sexp, error) {
	n := a.count("sites", 8)
	lo, hi := a.count("min", n), a.count("max", n)
	o := fracture.VoronoiOptions{Common: s.common(a), Transform: geom.Identity()}
	if a.err != nil {
		return nil, a.err
	}
	sel := a.selection()
	box := s.c.BoundingBox()
	sites := fracture.GenerateVoronoiSites(box, lo, hi, o.Seed)
	return s.cut(s.eng.Fracture.VoronoiFracture(s.c, sel, sites, o)), nil
}

// (plane-cut :planes 3 :seed 7)
func planeCut(s *state, a *args) (zygo.Sexp, error) {
	o := fracture.PlaneOptions{Common: s.common(a), NumPlanes: a.count("planes", 1)}
	return s.cut(s.eng.Fracture.PlaneCutter(s.c, a.selection(), o)), nil
}

// (slice :x 2 :y 0 :z 1 :angle 5 :offset 0.1)
func slice(s *state, a *args) (zygo.Sexp, error) {
	o := fracture.SliceOptions{
		Common: s.common(a),
		SliceGrid: fracture.SliceGrid{
			SlicesX:         a.count("x", 1),
			SlicesY:         a.count("y", 1),
			SlicesZ:         a.count("z", 1),
			AngleVariation:  a.num("angle", 0),
			OffsetVariation: a.num("offset", 0),
		},
	}
	return s.cut(s.eng.Fracture.SliceCutter(s.c, a.selection(), o)), nil
}

// (brick :bond :flemish :length 2 :height 0.5 :depth 1)
func brick(s *state, a *args) (zygo.Sexp, error) {
	bond, err := fracture.ParseBond(a.name("bond", fracture.BondStretcher.String()))
	if err != nil {
		return nil, fmt.Errorf("brick: %w", err)
	}
	o := fracture.BrickOptions{
		Common:    s.common(a),
		Transform: geom.Identity(),
		Bond:      bond,
		Length:    a.num("length", 2),
		Height:    a.num("height", 0.5),
		Depth:     a.num("depth", 1),
	}
	return s.cut(s.eng.Fracture.BrickCutter(s.c, a.selection(), o)), nil
}

// (uniform :min 4 :max 6 :group)
func uniform(s *state, a *args) (zygo.Sexp, error) {
	o := fracture.UniformOptions{
		Common:        s.common(a),
		MinSites:      a.count("min", 8),
		MaxSites:      a.count("max", 8),
		GroupFracture: a.flag("group", false),
	}
	return s.cut(s.eng.Fracture.UniformFracture(s.c, a.selection(), o)), nil
}

// (mesh-cut :shape :sphere :size 0.5 :at (vec3 0 0 1))
func meshCut(s *state, a *args) (zygo.Sexp, error) {
	shape, err := fracture.ParseShape(a.name("shape", "box"))
	if err != nil {
		return nil, fmt.Errorf("mesh-cut: %w", err)
	}
	size := a.vec("size", geom.Splat(1))
	at := a.vec("at", s.c.BoundingBox().Center())
	o := s.common(a)
	if a.err != nil {
		return nil, a.err
	}
	mesh, err := s.eng.Fracture.CuttingMesh(shape, size)
	if err != nil {
		return nil, fmt.Errorf("mesh-cut: %w", err)
	}
	return s.cut(s.eng.Fracture.MeshCutter(s.c, a.selection(), mesh, geom.Translation(at), o)), nil
}

// (auto-cluster :method :count :sites 3)
//
// Without :sel the roots are partitioned. Returns the first new cluster,
// or -1.
func autoCluster(s *state, a *args) (zygo.Sexp, error) {
	m, err := clustering.ParseMethod(a.name("method", clustering.BySiteCount.String()))
	if err != nil {
		return nil, fmt.Errorf("auto-cluster: %w", err)
	}
	o := clustering.DefaultOptions()
	o.Method = m
	o.SiteCount = a.count("sites", o.SiteCount)
	o.Fraction = a.num("fraction", o.Fraction)
	o.SiteSize = a.num("size", o.SiteSize)
	o.EnforceConnectivity = a.flag("connected", o.EnforceConnectivity)
	o.MinClusterSize = a.count("min-size", o.MinClusterSize)
	o.Seed = int64(a.count("seed", int(s.eng.Defaults.Seed)))
	if a.err != nil {
		return nil, a.err
	}
	sel := selection.SelectRoot(s.c)
	if p := a.selection(); p != nil {
		sel = *p
	}
	out, first := clustering.AutoCluster(s.c, sel, o, s.eng.Fracture.Cutter)
	if first != collection.IndexNone {
		s.steps++
	}
	s.set(out)
	return integer(first), nil
}

// (fix-tiny :cube-root 0.2 :mode :geometry :neighbor :largest :live)
//
// Returns the number of bones merged away.
func fixTiny(s *state, a *args) (zygo.Sexp, error) {
	o := utility.DefaultTinyOptions()
	var err error
	if o.Mode, err = utility.ParseMergeMode(a.name("mode", o.Mode.String())); err != nil {
		return nil, fmt.Errorf("fix-tiny: %w", err)
	}
	if o.Neighbor, err = utility.ParseNeighborPolicy(a.name("neighbor", o.Neighbor.String())); err != nil {
		return nil, fmt.Errorf("fix-tiny: %w", err)
	}
	if o.Selection, err = utility.ParseSelectionPolicy(a.name("policy", o.Selection.String())); err != nil {
		return nil, fmt.Errorf("fix-tiny: %w", err)
	}
	o.MinVolumeCubeRoot = a.num("cube-root", o.MinVolumeCubeRoot)
	if _, ok := a.kw["relative-size"]; ok {
		o.UseRelativeSize = true
		o.RelativeSize = a.num("relative-size", o.RelativeSize)
	}
	o.Level = a.count("level", o.Level)
	o.OnlyConnected = a.flag("connected", o.OnlyConnected)
	o.OnlySameParent = a.flag("same-parent", o.OnlySameParent)
	o.UseLiveProximity = a.flag("live", o.UseLiveProximity)
	sel := a.selection()
	if a.err != nil {
		return nil, a.err
	}
	if sel != nil && o.Selection == utility.SelectionIgnore {
		o.Selection = utility.SelectionUnion
	}
	out, merged := utility.FixTinyGeo(s.c, sel, o, s.eng.Fracture.Cutter)
	if merged > 0 {
		s.set(out)
		s.steps++
	}
	return integer(merged), nil
}

// (explode :scale 1 :uniform 1 :level -1)
func explode(s *state, a *args) (zygo.Sexp, error) {
	scale := a.vec("scale", geom.Splat(1))
	uniform := a.num("uniform", 1)
	level, maxLevel := a.count("level", -1), a.count("max-level", -1)
	if a.err != nil {
		return nil, a.err
	}
	if err := utility.GenerateExplodedViewAttribute(s.c, scale, uniform, level, maxLevel); err != nil {
		return nil, fmt.Errorf("explode: %w", err)
	}
	return integer(s.bones()), nil
}
