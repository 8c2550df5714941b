package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/codec"
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/config"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/kernel/convex"
	"github.com/chazu/splinter/pkg/kernel/sdfx"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/selection"
)

// env is what a subcommand body runs against.
type env struct {
	cfg    *config.Config
	args   []string
	out    io.Writer
	cutter *convex.Kernel
	engine *fracture.Engine
}

func newEnv(cfg *config.Config, args []string, out io.Writer) *env {
	k := &convex.Kernel{ProximityTolerance: cfg.Proximity.Tolerance}
	return &env{
		cfg:    cfg,
		args:   args,
		out:    out,
		cutter: k,
		engine: fracture.New(k, sdfx.New()),
	}
}

// paths returns the input and output paths of a transforming command. The
// output defaults to the input.
func (e *env) paths() (in, out string, err error) {
	switch len(e.args) {
	case 1:
		return e.args[0], e.args[0], nil
	case 2:
		return e.args[0], e.args[1], nil
	default:
		return "", "", usagef("expected <in> [out], got %d arguments", len(e.args))
	}
}

func (e *env) load(path string) (*collection.Collection, error) {
	c, err := codec.ReadFile(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("splinter: loaded", "path", path, "bones", c.NumTransforms(), "geometry", c.NumGeometry())
	return c, nil
}

func (e *env) save(path string, c *collection.Collection) error {
	comp, err := codec.ParseCompression(e.cfg.Output.Compression)
	if err != nil {
		return err
	}
	if err := codec.WriteFile(path, c, comp); err != nil {
		return err
	}
	logging.Debug("splinter: saved", "path", path, "bones", c.NumTransforms(), "compression", comp)
	return nil
}

// transform loads the input, applies fn and saves the result.
func (e *env) transform(fn func(c *collection.Collection) (*collection.Collection, error)) error {
	in, out, err := e.paths()
	if err != nil {
		return err
	}
	c, err := e.load(in)
	if err != nil {
		return err
	}
	c, err = fn(c)
	if err != nil {
		return err
	}
	return e.save(out, c)
}

// report prints the outcome of a cutter.
func (e *env) report(name string, r fracture.Result) {
	if !r.Cut() {
		fmt.Fprintf(e.out, "%s: nothing was cut\n", name)
		return
	}
	fmt.Fprintf(e.out, "%s: %d new bones from %d, %d total\n",
		name, r.New.Num(), r.Original.Num(), r.Collection.NumTransforms())
}

// selectFlag registers --select. Accepted values: all, none, leaves, roots,
// clusters, level=N, or a comma separated bone list.
func selectFlag(fs *pflag.FlagSet) *string {
	return fs.String("select", "all", "bones to work on (all, leaves, roots, clusters, level=N, or 1,2,3)")
}

// parseSelection resolves a --select value. "all" returns nil so cutters
// pick every bone themselves.
func parseSelection(c *collection.Collection, spec string) (*selection.Selection, error) {
	var s selection.Selection
	switch spec {
	case "", "all":
		return nil, nil
	case "none":
		s = selection.SelectNone(c)
	case "leaves":
		s = selection.SelectLeaf(c)
	case "roots":
		s = selection.SelectRoot(c)
	case "clusters":
		s = selection.SelectCluster(c)
	default:
		if lvl, ok := strings.CutPrefix(spec, "level="); ok {
			n, err := strconv.Atoi(lvl)
			if err != nil {
				return nil, fmt.Errorf("bad level in --select %q", spec)
			}
			s = selection.SelectTargetLevel(c, n, false)
			break
		}
		var idx []int
		for _, tok := range strings.Split(spec, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return nil, fmt.Errorf("bad bone %q in --select", tok)
			}
			idx = append(idx, n)
		}
		var err error
		if s, err = selection.FromArray(c.NumTransforms(), idx); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// vecFlag registers a three component flag written x,y,z.
func vecFlag(fs *pflag.FlagSet, name string, def geom.Vec, usage string) *[]float64 {
	return fs.Float64Slice(name, []float64{def.X, def.Y, def.Z}, usage)
}

func toVec(name string, v []float64) (geom.Vec, error) {
	switch len(v) {
	case 1:
		return geom.Splat(v[0]), nil
	case 3:
		return geom.V(v[0], v[1], v[2]), nil
	default:
		return geom.Vec{}, fmt.Errorf("--%s takes 1 or 3 values, got %d", name, len(v))
	}
}

// boundsFlags registers --bounds-min and --bounds-max. Unset bounds mean
// the collection's own.
type boundsFlags struct {
	fs       *pflag.FlagSet
	min, max *[]float64
}

func addBoundsFlags(fs *pflag.FlagSet) *boundsFlags {
	return &boundsFlags{
		fs:  fs,
		min: fs.Float64Slice("bounds-min", nil, "lower corner of the cut region (x,y,z)"),
		max: fs.Float64Slice("bounds-max", nil, "upper corner of the cut region (x,y,z)"),
	}
}

func (b *boundsFlags) box() (*geom.Box, error) {
	if !b.fs.Changed("bounds-min") && !b.fs.Changed("bounds-max") {
		return nil, nil
	}
	if !b.fs.Changed("bounds-min") || !b.fs.Changed("bounds-max") {
		return nil, fmt.Errorf("--bounds-min and --bounds-max go together")
	}
	lo, err := toVec("bounds-min", *b.min)
	if err != nil {
		return nil, err
	}
	hi, err := toVec("bounds-max", *b.max)
	if err != nil {
		return nil, err
	}
	box := geom.NewBox(lo, hi)
	return &box, nil
}

// noiseFlags registers the surface noise settings shared by the cutters.
func noiseFlags(fs *pflag.FlagSet) *kernel.NoiseSettings {
	n := &kernel.NoiseSettings{Persistence: 0.5, Lacunarity: 2}
	fs.Float64Var(&n.Amplitude, "noise-amplitude", 0, "surface noise amplitude in world units")
	fs.Float64Var(&n.Frequency, "noise-frequency", 0.1, "surface noise frequency")
	fs.IntVar(&n.Octaves, "noise-octaves", 4, "surface noise octaves")
	fs.Float64Var(&n.PointSpacing, "noise-spacing", 10, "spacing of noise sample points")
	return n
}
