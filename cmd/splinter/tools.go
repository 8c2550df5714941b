package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/clustering"
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/export"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/selection"
	"github.com/chazu/splinter/pkg/utility"
)

func autoclusterCommand(fs *pflag.FlagSet) func(e *env) error {
	method := fs.String("method", "", "count, fraction, size or grid (default from settings)")
	sites := fs.Int("sites", 0, "clusters per parent for the count method")
	fraction := fs.Float64("fraction", 0, "clusters as a fraction of children")
	size := fs.Float64("size", 0, "target cluster edge for the size method")
	grid := fs.IntSlice("grid", nil, "cells per axis for the grid method")
	spec := fs.String("select", "roots", "parents whose children are clustered (see voronoi --help)")
	return func(e *env) error {
		cc := e.cfg.Cluster
		if *method != "" {
			cc.Method = *method
		}
		if *sites > 0 {
			cc.Sites = *sites
		}
		if *fraction > 0 {
			cc.Fraction = *fraction
		}
		if *size > 0 {
			cc.Size = *size
		}
		if fs.Changed("grid") {
			if len(*grid) != 3 {
				return fmt.Errorf("--grid takes nx,ny,nz")
			}
			copy(cc.Grid[:], *grid)
		}
		o, err := cc.Options()
		if err != nil {
			return err
		}
		o.Seed = e.cfg.Fracture.Seed
		return e.transform(func(c *collection.Collection) (*collection.Collection, error) {
			sel := selection.SelectRoot(c)
			if *spec != "roots" {
				p, err := parseSelection(c, *spec)
				if err != nil {
					return nil, err
				}
				if p != nil {
					sel = *p
				} else {
					sel = selection.SelectAll(c)
				}
			}
			out, first := clustering.AutoCluster(c, sel, o, e.cutter)
			if first == collection.IndexNone {
				fmt.Fprintln(e.out, "autocluster: nothing was clustered")
			} else {
				fmt.Fprintf(e.out, "autocluster: %d clusters added, %d bones total\n", out.NumTransforms()-c.NumTransforms(), out.NumTransforms())
			}
			return out, nil
		})
	}
}

func fixTinyCommand(fs *pflag.FlagSet) func(e *env) error {
	mode := fs.String("mode", "", "geometry or clusters (default from settings)")
	neighbor := fs.String("neighbor", "", "largest or nearest (default from settings)")
	cubeRoot := fs.Float64("cube-root", 0, "edge of the smallest cube kept")
	relative := fs.Float64("relative-size", 0, "threshold relative to the total volume's cube root")
	level := fs.Int("level", 0, "only merge bones on this level")
	live := fs.Bool("live", false, "recompute proximity before merging")
	spec := fs.String("select", "", "limit merging to these bones (see voronoi --help)")
	return func(e *env) error {
		tc := e.cfg.Tiny
		if *mode != "" {
			tc.Mode = *mode
		}
		if *neighbor != "" {
			tc.Neighbor = *neighbor
		}
		if *cubeRoot > 0 {
			tc.MinCubeRoot = *cubeRoot
		}
		if *relative > 0 {
			tc.Relative, tc.RelativeSize = true, *relative
		}
		if fs.Changed("level") {
			tc.Level = *level
		}
		if fs.Changed("live") {
			tc.LiveProximity = *live
		}
		o, err := tc.Options()
		if err != nil {
			return err
		}
		return e.transform(func(c *collection.Collection) (*collection.Collection, error) {
			var sel *selection.Selection
			if *spec != "" {
				if sel, err = parseSelection(c, *spec); err != nil {
					return nil, err
				}
				if sel != nil && o.Selection == utility.SelectionIgnore {
					o.Selection = utility.SelectionUnion
				}
			}
			out, merged := utility.FixTinyGeo(c, sel, o, e.cutter)
			fmt.Fprintf(e.out, "fixtiny: merged %d bones, %d left\n", merged, out.NumTransforms())
			return out, nil
		})
	}
}

func explodeCommand(fs *pflag.FlagSet) func(e *env) error {
	scale := vecFlag(fs, "scale", geom.Splat(1), "per axis offset scale (x,y,z)")
	uniform := fs.Float64("uniform", 1, "uniform offset scale")
	level := fs.Int("level", -1, "explode only this level (-1 for all)")
	maxLevel := fs.Int("max-level", -1, "deepest level that receives offsets (-1 for all)")
	return func(e *env) error {
		s, err := toVec("scale", *scale)
		if err != nil {
			return err
		}
		return e.transform(func(c *collection.Collection) (*collection.Collection, error) {
			if err := utility.GenerateExplodedViewAttribute(c, s, *uniform, *level, *maxLevel); err != nil {
				return nil, err
			}
			fmt.Fprintf(e.out, "explode: offsets stored for %d bones\n", c.NumTransforms())
			return c, nil
		})
	}
}

func exportCommand(fs *pflag.FlagSet) func(e *env) error {
	jsonPath := fs.String("json", "", "write parts as JSON to this file (- for stdout)")
	stlPath := fs.String("stl", "", "write all parts to one binary STL file")
	explode := fs.Float64("explode", 0, "move parts by this multiple of their exploded offsets")
	skipInternal := fs.Bool("skip-internal", false, "drop faces created by cuts")
	hidden := fs.Bool("include-hidden", false, "export bones without visible faces")
	return func(e *env) error {
		if len(e.args) != 1 {
			return usagef("expected <in>")
		}
		if *jsonPath == "" && *stlPath == "" {
			*jsonPath = "-"
		}
		c, err := e.load(e.args[0])
		if err != nil {
			return err
		}
		parts, err := export.Parts(c, export.Options{Explode: *explode, SkipInternal: *skipInternal, IncludeHidden: *hidden})
		if err != nil {
			return err
		}
		if *stlPath != "" {
			if err := export.SaveSTL(*stlPath, parts); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "export: %d parts to %s\n", len(parts), *stlPath)
		}
		switch *jsonPath {
		case "":
		case "-":
			return export.WriteJSON(e.out, parts)
		default:
			f, err := os.Create(*jsonPath)
			if err != nil {
				return err
			}
			if err := export.WriteJSON(f, parts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "export: %d parts to %s\n", len(parts), *jsonPath)
		}
		return nil
	}
}
