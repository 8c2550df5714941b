// Package config holds the splinter settings file: defaults, a TOML, YAML
// or JSONC file on top, and command-line flags on top of that.
package config

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/chazu/splinter/pkg/clustering"
	"github.com/chazu/splinter/pkg/codec"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/utility"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all settings.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log" json:"log"`
	Fracture  FractureConfig  `toml:"fracture" yaml:"fracture" json:"fracture"`
	Voronoi   VoronoiConfig   `toml:"voronoi" yaml:"voronoi" json:"voronoi"`
	Slice     SliceConfig     `toml:"slice" yaml:"slice" json:"slice"`
	Brick     BrickConfig     `toml:"brick" yaml:"brick" json:"brick"`
	Cluster   ClusterConfig   `toml:"cluster" yaml:"cluster" json:"cluster"`
	Tiny      TinyConfig      `toml:"tiny" yaml:"tiny" json:"tiny"`
	Proximity ProximityConfig `toml:"proximity" yaml:"proximity" json:"proximity"`
	Recipe    RecipeConfig    `toml:"recipe" yaml:"recipe" json:"recipe"`
	Output    OutputConfig    `toml:"output" yaml:"output" json:"output"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
	// File enables a rotating log file next to stderr.
	File string `toml:"file" yaml:"file" json:"file"`
}

// FractureConfig holds the settings every cutter shares.
type FractureConfig struct {
	Seed                   int64   `toml:"seed" yaml:"seed" json:"seed"`
	Chance                 float64 `toml:"chance" yaml:"chance" json:"chance"`
	Grout                  float64 `toml:"grout" yaml:"grout" json:"grout"`
	SplitIslands           bool    `toml:"split_islands" yaml:"split_islands" json:"split_islands"`
	InternalMaterial       int     `toml:"internal_material" yaml:"internal_material" json:"internal_material"`
	CollisionSampleSpacing float64 `toml:"collision_spacing" yaml:"collision_spacing" json:"collision_spacing"`
}

// VoronoiConfig holds site counts for the Voronoi and uniform cutters.
type VoronoiConfig struct {
	MinSites int  `toml:"min_sites" yaml:"min_sites" json:"min_sites"`
	MaxSites int  `toml:"max_sites" yaml:"max_sites" json:"max_sites"`
	Group    bool `toml:"group" yaml:"group" json:"group"`
}

// SliceConfig holds slice grid settings.
type SliceConfig struct {
	X               int     `toml:"x" yaml:"x" json:"x"`
	Y               int     `toml:"y" yaml:"y" json:"y"`
	Z               int     `toml:"z" yaml:"z" json:"z"`
	AngleVariation  float64 `toml:"angle_variation" yaml:"angle_variation" json:"angle_variation"`
	OffsetVariation float64 `toml:"offset_variation" yaml:"offset_variation" json:"offset_variation"`
}

// BrickConfig holds brick cutter settings.
type BrickConfig struct {
	Bond   string  `toml:"bond" yaml:"bond" json:"bond"`
	Length float64 `toml:"length" yaml:"length" json:"length"`
	Height float64 `toml:"height" yaml:"height" json:"height"`
	Depth  float64 `toml:"depth" yaml:"depth" json:"depth"`
}

// ClusterConfig holds auto-cluster settings.
type ClusterConfig struct {
	Method              string  `toml:"method" yaml:"method" json:"method"`
	Sites               int     `toml:"sites" yaml:"sites" json:"sites"`
	Fraction            float64 `toml:"fraction" yaml:"fraction" json:"fraction"`
	Size                float64 `toml:"size" yaml:"size" json:"size"`
	Grid                [3]int  `toml:"grid" yaml:"grid" json:"grid"`
	Iterations          int     `toml:"iterations" yaml:"iterations" json:"iterations"`
	EnforceConnectivity bool    `toml:"enforce_connectivity" yaml:"enforce_connectivity" json:"enforce_connectivity"`
	AvoidIsolated       bool    `toml:"avoid_isolated" yaml:"avoid_isolated" json:"avoid_isolated"`
	MinSize             int     `toml:"min_size" yaml:"min_size" json:"min_size"`
}

// TinyConfig holds FixTinyGeo settings.
type TinyConfig struct {
	Mode          string  `toml:"mode" yaml:"mode" json:"mode"`
	Selection     string  `toml:"selection" yaml:"selection" json:"selection"`
	Neighbor      string  `toml:"neighbor" yaml:"neighbor" json:"neighbor"`
	MinCubeRoot   float64 `toml:"min_cube_root" yaml:"min_cube_root" json:"min_cube_root"`
	Relative      bool    `toml:"relative" yaml:"relative" json:"relative"`
	RelativeSize  float64 `toml:"relative_size" yaml:"relative_size" json:"relative_size"`
	Level         int     `toml:"level" yaml:"level" json:"level"`
	OnlyClusters  bool    `toml:"only_clusters" yaml:"only_clusters" json:"only_clusters"`
	LiveProximity bool    `toml:"live_proximity" yaml:"live_proximity" json:"live_proximity"`
	OnlyConnected bool    `toml:"only_connected" yaml:"only_connected" json:"only_connected"`
	SameParent    bool    `toml:"same_parent" yaml:"same_parent" json:"same_parent"`
}

// ProximityConfig holds contact detection settings.
type ProximityConfig struct {
	// Tolerance is the largest gap, relative to the collection diagonal,
	// at which faces still touch.
	Tolerance float64 `toml:"tolerance" yaml:"tolerance" json:"tolerance"`
}

// RecipeConfig holds scripting settings.
type RecipeConfig struct {
	TimeoutSeconds float64 `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
}

// OutputConfig holds collection file settings.
type OutputConfig struct {
	Compression string `toml:"compression" yaml:"compression" json:"compression"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "warn", Format: "text"},
		Fracture: FractureConfig{
			Chance:                 1,
			InternalMaterial:       -1,
			CollisionSampleSpacing: 50,
		},
		Voronoi: VoronoiConfig{MinSites: 8, MaxSites: 8},
		Slice:   SliceConfig{X: 1, Y: 1, Z: 1},
		Brick:   BrickConfig{Bond: fracture.BondStretcher.String(), Length: 2, Height: 0.5, Depth: 1},
		Cluster: ClusterConfig{
			Method:              clustering.BySiteCount.String(),
			Sites:               8,
			Fraction:            0.25,
			Size:                4,
			Grid:                [3]int{2, 2, 2},
			Iterations:          500,
			EnforceConnectivity: true,
			AvoidIsolated:       true,
		},
		Tiny: TinyConfig{
			Mode:          utility.MergeGeometry.String(),
			Selection:     utility.SelectionIgnore.String(),
			Neighbor:      utility.NeighborLargest.String(),
			MinCubeRoot:   1,
			RelativeSize:  0.01,
			Level:         -1,
			OnlyConnected: true,
		},
		Proximity: ProximityConfig{Tolerance: 1e-4},
		Recipe:    RecipeConfig{TimeoutSeconds: 30},
		Output:    OutputConfig{Compression: codec.DefaultCompression.String()},
	}
}

func invalid(field string, v any, why string) error {
	return fmt.Errorf("%w: %s = %v: %s", ErrInvalid, field, v, why)
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json", "logfmt":
	default:
		return invalid("log.format", c.Log.Format, "want text, json or logfmt")
	}
	f := c.Fracture
	switch {
	case f.Chance < 0 || f.Chance > 1:
		return invalid("fracture.chance", f.Chance, "want 0..1")
	case f.Grout < 0:
		return invalid("fracture.grout", f.Grout, "must not be negative")
	case f.CollisionSampleSpacing <= 0:
		return invalid("fracture.collision_spacing", f.CollisionSampleSpacing, "must be positive")
	case c.Voronoi.MinSites < 1 || c.Voronoi.MaxSites < c.Voronoi.MinSites:
		return invalid("voronoi.min_sites", c.Voronoi.MinSites, "want 1 <= min_sites <= max_sites")
	case c.Slice.X < 0 || c.Slice.Y < 0 || c.Slice.Z < 0:
		return invalid("slice", [3]int{c.Slice.X, c.Slice.Y, c.Slice.Z}, "counts must not be negative")
	case c.Brick.Length <= 0 || c.Brick.Height <= 0 || c.Brick.Depth <= 0:
		return invalid("brick", [3]float64{c.Brick.Length, c.Brick.Height, c.Brick.Depth}, "dimensions must be positive")
	case c.Cluster.Sites < 1:
		return invalid("cluster.sites", c.Cluster.Sites, "must be at least 1")
	case c.Cluster.Fraction <= 0 || c.Cluster.Fraction > 1:
		return invalid("cluster.fraction", c.Cluster.Fraction, "want 0 < fraction <= 1")
	case c.Cluster.Iterations < 1:
		return invalid("cluster.iterations", c.Cluster.Iterations, "must be at least 1")
	case c.Tiny.MinCubeRoot < 0:
		return invalid("tiny.min_cube_root", c.Tiny.MinCubeRoot, "must not be negative")
	case c.Tiny.Relative && c.Tiny.RelativeSize <= 0:
		return invalid("tiny.relative_size", c.Tiny.RelativeSize, "must be positive")
	case c.Proximity.Tolerance <= 0:
		return invalid("proximity.tolerance", c.Proximity.Tolerance, "must be positive")
	case c.Recipe.TimeoutSeconds <= 0:
		return invalid("recipe.timeout_seconds", c.Recipe.TimeoutSeconds, "must be positive")
	}
	if _, err := fracture.ParseBond(c.Brick.Bond); err != nil {
		return invalid("brick.bond", c.Brick.Bond, err.Error())
	}
	if _, err := c.Cluster.Options(); err != nil {
		return invalid("cluster.method", c.Cluster.Method, err.Error())
	}
	if _, err := c.Tiny.Options(); err != nil {
		return invalid("tiny", c.Tiny, err.Error())
	}
	if _, err := codec.ParseCompression(c.Output.Compression); err != nil {
		return invalid("output.compression", c.Output.Compression, err.Error())
	}
	return nil
}

// Common returns the cutter settings.
func (f FractureConfig) Common() fracture.Common {
	return fracture.Common{
		ChanceToFracture:       f.Chance,
		Seed:                   f.Seed,
		Grout:                  f.Grout,
		CollisionSampleSpacing: f.CollisionSampleSpacing,
		InternalMaterial:       f.InternalMaterial,
		SplitIslands:           f.SplitIslands,
	}
}

// SliceGrid returns the slice grid settings.
func (s SliceConfig) SliceGrid() fracture.SliceGrid {
	return fracture.SliceGrid{
		SlicesX:         s.X,
		SlicesY:         s.Y,
		SlicesZ:         s.Z,
		AngleVariation:  s.AngleVariation,
		OffsetVariation: s.OffsetVariation,
	}
}

// Options returns the auto-cluster settings.
func (c ClusterConfig) Options() (clustering.Options, error) {
	m, err := clustering.ParseMethod(c.Method)
	if err != nil {
		return clustering.Options{}, err
	}
	o := clustering.DefaultOptions()
	o.Method = m
	o.SiteCount = c.Sites
	o.Fraction = c.Fraction
	o.SiteSize = c.Size
	o.GridX, o.GridY, o.GridZ = c.Grid[0], c.Grid[1], c.Grid[2]
	o.MaxIterations = c.Iterations
	o.EnforceConnectivity = c.EnforceConnectivity
	o.AvoidIsolated = c.AvoidIsolated
	o.MinClusterSize = c.MinSize
	return o, nil
}

// Options returns the FixTinyGeo settings.
func (t TinyConfig) Options() (utility.TinyOptions, error) {
	mode, err := utility.ParseMergeMode(t.Mode)
	if err != nil {
		return utility.TinyOptions{}, err
	}
	sel, err := utility.ParseSelectionPolicy(t.Selection)
	if err != nil {
		return utility.TinyOptions{}, err
	}
	nb, err := utility.ParseNeighborPolicy(t.Neighbor)
	if err != nil {
		return utility.TinyOptions{}, err
	}
	return utility.TinyOptions{
		Mode:              mode,
		Selection:         sel,
		Neighbor:          nb,
		MinVolumeCubeRoot: t.MinCubeRoot,
		UseRelativeSize:   t.Relative,
		RelativeSize:      t.RelativeSize,
		Level:             t.Level,
		OnlyClusters:      t.OnlyClusters,
		UseLiveProximity:  t.LiveProximity,
		OnlyConnected:     t.OnlyConnected,
		OnlySameParent:    t.SameParent,
	}, nil
}
