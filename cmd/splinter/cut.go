package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/selection"
)

// cutter wraps a cut in the shared load, select, cut and save steps.
func cutter(name string, fs *pflag.FlagSet, cut func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error)) func(e *env) error {
	spec := selectFlag(fs)
	return func(e *env) error {
		return e.transform(func(c *collection.Collection) (*collection.Collection, error) {
			sel, err := parseSelection(c, *spec)
			if err != nil {
				return nil, err
			}
			r, err := cut(e, c, sel)
			if err != nil {
				return nil, err
			}
			e.report(name, r)
			return r.Collection, nil
		})
	}
}

func voronoiCommand(fs *pflag.FlagSet) func(e *env) error {
	lo := fs.Int("min-sites", 0, "fewest sites (default from settings)")
	hi := fs.Int("max-sites", 0, "most sites (default from settings)")
	sites := fs.Int("sites", 0, "exact site count, overrides min and max")
	bounds := addBoundsFlags(fs)
	noise := noiseFlags(fs)
	return cutter("voronoi", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		box, err := bounds.box()
		if err != nil {
			return fracture.Result{}, err
		}
		minSites, maxSites := e.cfg.Voronoi.MinSites, e.cfg.Voronoi.MaxSites
		if *lo > 0 {
			minSites = *lo
		}
		if *hi > 0 {
			maxSites = *hi
		}
		if *sites > 0 {
			minSites, maxSites = *sites, *sites
		}
		if maxSites < minSites {
			return fracture.Result{}, fmt.Errorf("--max-sites %d below --min-sites %d", maxSites, minSites)
		}
		o := fracture.VoronoiOptions{Common: e.cfg.Fracture.Common(), Bounds: box, Transform: geom.Identity(), Noise: *noise}
		region := c.BoundingBox()
		if box != nil {
			region = *box
		}
		pts := fracture.GenerateVoronoiSites(region, minSites, maxSites, o.Seed)
		return e.engine.VoronoiFracture(c, sel, pts, o), nil
	})
}

func planeCommand(fs *pflag.FlagSet) func(e *env) error {
	n := fs.Int("planes", 1, "number of random planes")
	bounds := addBoundsFlags(fs)
	noise := noiseFlags(fs)
	return cutter("plane", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		box, err := bounds.box()
		if err != nil {
			return fracture.Result{}, err
		}
		if *n < 1 {
			return fracture.Result{}, fmt.Errorf("--planes must be at least 1, got %d", *n)
		}
		o := fracture.PlaneOptions{Common: e.cfg.Fracture.Common(), Bounds: box, NumPlanes: *n, Noise: *noise}
		return e.engine.PlaneCutter(c, sel, o), nil
	})
}

func sliceCommand(fs *pflag.FlagSet) func(e *env) error {
	x := fs.Int("x", -1, "slices along X (default from settings)")
	y := fs.Int("y", -1, "slices along Y (default from settings)")
	z := fs.Int("z", -1, "slices along Z (default from settings)")
	angle := fs.Float64("angle-variation", -1, "random tilt in degrees (default from settings)")
	offset := fs.Float64("offset-variation", -1, "random offset as a fraction of spacing (default from settings)")
	bounds := addBoundsFlags(fs)
	noise := noiseFlags(fs)
	return cutter("slice", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		box, err := bounds.box()
		if err != nil {
			return fracture.Result{}, err
		}
		g := e.cfg.Slice.SliceGrid()
		if fs.Changed("x") {
			g.SlicesX = *x
		}
		if fs.Changed("y") {
			g.SlicesY = *y
		}
		if fs.Changed("z") {
			g.SlicesZ = *z
		}
		if fs.Changed("angle-variation") {
			g.AngleVariation = *angle
		}
		if fs.Changed("offset-variation") {
			g.OffsetVariation = *offset
		}
		o := fracture.SliceOptions{Common: e.cfg.Fracture.Common(), SliceGrid: g, Bounds: box, Noise: *noise}
		return e.engine.SliceCutter(c, sel, o), nil
	})
}

func brickCommand(fs *pflag.FlagSet) func(e *env) error {
	bond := fs.String("bond", "", "stretcher, stack, english, header or flemish (default from settings)")
	size := fs.Float64Slice("brick", nil, "brick length,height,depth (default from settings)")
	bounds := addBoundsFlags(fs)
	return cutter("brick", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		box, err := bounds.box()
		if err != nil {
			return fracture.Result{}, err
		}
		bc := e.cfg.Brick
		if *bond != "" {
			bc.Bond = *bond
		}
		if fs.Changed("brick") {
			if len(*size) != 3 {
				return fracture.Result{}, fmt.Errorf("--brick takes length,height,depth")
			}
			bc.Length, bc.Height, bc.Depth = (*size)[0], (*size)[1], (*size)[2]
		}
		b, err := fracture.ParseBond(bc.Bond)
		if err != nil {
			return fracture.Result{}, err
		}
		o := fracture.BrickOptions{
			Common:    e.cfg.Fracture.Common(),
			Bounds:    box,
			Transform: geom.Identity(),
			Bond:      b,
			Length:    bc.Length,
			Height:    bc.Height,
			Depth:     bc.Depth,
		}
		return e.engine.BrickCutter(c, sel, o), nil
	})
}

func meshCommand(fs *pflag.FlagSet) func(e *env) error {
	shape := fs.String("shape", "sphere", "cutting primitive: box, sphere or cylinder")
	size := vecFlag(fs, "mesh-size", geom.Splat(0.5), "primitive size; x is the radius of a sphere or cylinder, z the cylinder height")
	dist := fs.String("distribution", "random", "placement distribution: random or grid")
	number := fs.Int("number", 1, "placements for the random distribution")
	grid := fs.IntSlice("grid", []int{2, 2, 2}, "placements per axis for the grid distribution")
	variability := fs.Float64("variability", 0, "random placement jitter in world units")
	scale := fs.Float64Slice("scale", []float64{1, 1}, "min,max placement scale")
	orient := fs.Bool("random-orientation", false, "rotate each placement randomly")
	angles := fs.Float64Slice("orientation-range", []float64{180, 180, 180}, "roll,pitch,yaw limits in degrees")
	bounds := addBoundsFlags(fs)
	return cutter("mesh", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		box, err := bounds.box()
		if err != nil {
			return fracture.Result{}, err
		}
		s, err := fracture.ParseShape(*shape)
		if err != nil {
			return fracture.Result{}, err
		}
		sz, err := toVec("mesh-size", *size)
		if err != nil {
			return fracture.Result{}, err
		}
		if len(*grid) != 3 || len(*scale) != 2 || len(*angles) != 3 {
			return fracture.Result{}, fmt.Errorf("--grid and --orientation-range take three values, --scale two")
		}
		scatter := fracture.MeshScatter{
			Number:            *number,
			GridX:             (*grid)[0],
			GridY:             (*grid)[1],
			GridZ:             (*grid)[2],
			Variability:       *variability,
			MinScale:          (*scale)[0],
			MaxScale:          (*scale)[1],
			RandomOrientation: *orient,
			RollRange:         (*angles)[0],
			PitchRange:        (*angles)[1],
			YawRange:          (*angles)[2],
		}
		switch *dist {
		case "random":
			scatter.Distribution = fracture.DistributionUniformRandom
		case "grid":
			scatter.Distribution = fracture.DistributionGrid
		default:
			return fracture.Result{}, fmt.Errorf("unknown distribution %q", *dist)
		}

		mesh, err := e.engine.CuttingMesh(s, sz)
		if err != nil {
			return fracture.Result{}, err
		}
		region := c.BoundingBox()
		if box != nil {
			region = *box
		}
		common := e.cfg.Fracture.Common()
		placements := fracture.GenerateMeshTransforms(region, scatter, common.Seed)
		if len(placements) == 1 {
			return e.engine.MeshCutter(c, sel, mesh, placements[0], common), nil
		}
		o := fracture.MeshArrayOptions{Common: common, Mode: fracture.MeshAll}
		return e.engine.MeshArrayCutter(c, sel, []*kernel.Mesh{mesh}, placements, o), nil
	})
}

func uniformCommand(fs *pflag.FlagSet) func(e *env) error {
	lo := fs.Int("min-sites", 0, "fewest sites per bone (default from settings)")
	hi := fs.Int("max-sites", 0, "most sites per bone (default from settings)")
	group := fs.Bool("group", false, "scatter one site set over all selected bones")
	noise := noiseFlags(fs)
	return cutter("uniform", fs, func(e *env, c *collection.Collection, sel *selection.Selection) (fracture.Result, error) {
		o := fracture.UniformOptions{
			Common:        e.cfg.Fracture.Common(),
			MinSites:      e.cfg.Voronoi.MinSites,
			MaxSites:      e.cfg.Voronoi.MaxSites,
			GroupFracture: e.cfg.Voronoi.Group,
			Noise:         *noise,
		}
		if *lo > 0 {
			o.MinSites = *lo
		}
		if *hi > 0 {
			o.MaxSites = *hi
		}
		if fs.Changed("group") {
			o.GroupFracture = *group
		}
		if o.MaxSites < o.MinSites {
			return fracture.Result{}, fmt.Errorf("--max-sites %d below --min-sites %d", o.MaxSites, o.MinSites)
		}
		return e.engine.UniformFracture(c, sel, o), nil
	})
}
