package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/codec"
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/config"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
)

var errInvalidHierarchy = errors.New("hierarchy has errors")

func boxCommand(fs *pflag.FlagSet) func(e *env) error {
	lo := vecFlag(fs, "min", geom.Splat(-1), "lower corner of a single box (x,y,z)")
	hi := vecFlag(fs, "max", geom.Splat(1), "upper corner of a single box (x,y,z)")
	grid := fs.IntSlice("grid", nil, "build a cluster of nx,ny,nz cubes instead")
	size := fs.Float64("size", 1, "edge of each grid cube")
	return func(e *env) error {
		if len(e.args) != 1 {
			return usagef("expected <out>")
		}
		var c *collection.Collection
		if fs.Changed("grid") {
			if len(*grid) != 3 || (*grid)[0] < 1 || (*grid)[1] < 1 || (*grid)[2] < 1 {
				return fmt.Errorf("--grid takes three positive counts, got %v", *grid)
			}
			if *size <= 0 {
				return fmt.Errorf("--size must be positive, got %v", *size)
			}
			c = collection.NewGrid((*grid)[0], (*grid)[1], (*grid)[2], *size)
		} else {
			a, err := toVec("min", *lo)
			if err != nil {
				return err
			}
			b, err := toVec("max", *hi)
			if err != nil {
				return err
			}
			box := geom.NewBox(a, b)
			if box.Volume() <= 0 {
				return fmt.Errorf("box %v has no volume", box)
			}
			c = collection.NewBox(box)
		}
		if err := e.save(e.args[0], c); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "box: wrote %d bones to %s\n", c.NumTransforms(), e.args[0])
		return nil
	}
}

func infoCommand(fs *pflag.FlagSet) func(e *env) error {
	tree := fs.Bool("tree", false, "print every bone")
	strict := fs.Bool("strict", false, "fail when validation finds errors")
	return func(e *env) error {
		if len(e.args) != 1 {
			return usagef("expected <in>")
		}
		c, err := e.load(e.args[0])
		if err != nil {
			return err
		}
		sum, err := codec.Fingerprint(c)
		if err != nil {
			return err
		}
		maxLevel := hierarchy.MaxLevel(c)
		fmt.Fprintf(e.out, "bones:       %d\n", c.NumTransforms())
		fmt.Fprintf(e.out, "geometry:    %d\n", c.NumGeometry())
		fmt.Fprintf(e.out, "roots:       %d\n", len(c.Roots()))
		fmt.Fprintf(e.out, "levels:      %d\n", maxLevel+1)
		for l := 0; l <= maxLevel; l++ {
			fmt.Fprintf(e.out, "  level %d:   %d\n", l, len(hierarchy.BonesAtLevel(c, l)))
		}
		fmt.Fprintf(e.out, "bounds:      %v\n", c.BoundingBox())
		fmt.Fprintf(e.out, "fingerprint: %x\n", sum[:8])
		if *tree {
			for _, r := range c.Roots() {
				printTree(e, c, r, 0)
			}
		}

		res := hierarchy.ValidateAll(c)
		if len(res.Errors)+len(res.Warnings) == 0 {
			fmt.Fprintln(e.out, "findings:    none")
		}
		for _, f := range append(res.Errors, res.Warnings...) {
			fmt.Fprintln(e.out, f.Error())
		}
		if *strict && !res.OK() {
			return fmt.Errorf("%w: %d found", errInvalidHierarchy, len(res.Errors))
		}
		return nil
	}
}

var simNames = map[int]string{
	collection.SimEmbedded:  "embedded",
	collection.SimRigid:     "rigid",
	collection.SimClustered: "cluster",
}

func printTree(e *env, c *collection.Collection, bone, depth int) {
	if depth > c.NumTransforms() {
		return // cycle; info already reports it
	}
	names := c.Strings(collection.AttrBoneName, collection.GroupTransform)
	sim := simNames[c.SimulationTypes()[bone]]
	fmt.Fprintf(e.out, "%s%d %s (%s)\n", strings.Repeat("  ", depth), bone, names[bone], sim)
	for _, ch := range c.Children()[bone] {
		printTree(e, c, ch, depth+1)
	}
}

func configCommand(fs *pflag.FlagSet) func(e *env) error {
	format := fs.String("format", "toml", "output format (toml, yaml, json)")
	write := fs.String("write", "", "save the settings to this file instead of printing them")
	return func(e *env) error {
		if len(e.args) != 0 {
			return usagef("config takes no arguments")
		}
		if *write != "" {
			if err := config.Save(e.cfg, *write); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "config: wrote %s\n", filepath.Clean(*write))
			return nil
		}
		b, err := config.Encode(e.cfg, config.Format(*format))
		if err != nil {
			return err
		}
		_, err = e.out.Write(b)
		return err
	}
}
