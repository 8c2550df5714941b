package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/clustering"
	"github.com/chazu/splinter/pkg/utility"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Fracture.Chance != 1 {
		t.Errorf("expected chance 1, got %f", cfg.Fracture.Chance)
	}
	if cfg.Fracture.InternalMaterial != -1 {
		t.Errorf("expected internal material -1, got %d", cfg.Fracture.InternalMaterial)
	}
	if cfg.Output.Compression != "zstd" {
		t.Errorf("expected zstd output, got %s", cfg.Output.Compression)
	}
	if cfg.Tiny.Level != -1 || !cfg.Tiny.OnlyConnected {
		t.Errorf("unexpected tiny defaults %+v", cfg.Tiny)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "splinter.toml", `
[fracture]
seed = 3
grout = 0.5

[brick]
bond = "flemish"
`},
		{"yaml", "splinter.yaml", `
fracture:
  seed: 3
  grout: 0.5
brick:
  bond: flemish
`},
		{"jsonc", "splinter.jsonc", `{
  // comments and trailing commas are fine
  "fracture": {"seed": 3, "grout": 0.5,},
  "brick": {"bond": "flemish"},
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Fracture.Seed != 3 || cfg.Fracture.Grout != 0.5 {
				t.Errorf("fracture = %+v", cfg.Fracture)
			}
			if cfg.Brick.Bond != "flemish" {
				t.Errorf("bond = %s", cfg.Brick.Bond)
			}
			// Untouched settings keep their defaults.
			if cfg.Fracture.Chance != 1 || cfg.Brick.Length != 2 {
				t.Errorf("defaults lost: chance=%f length=%f", cfg.Fracture.Chance, cfg.Brick.Length)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	for _, f := range []struct{ name, content string }{
		{"a.toml", "[fracture]\nsede = 3\n"},
		{"a.yaml", "fracture:\n  sede: 3\n"},
		{"a.json", `{"fracture": {"sede": 3}}`},
	} {
		if _, err := Load(writeFile(t, f.name, f.content)); err == nil {
			t.Errorf("%s: expected an error for an unknown key", f.name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Fracture.Seed = 42
			cfg.Cluster.Grid = [3]int{4, 1, 2}
			path := filepath.Join(t.TempDir(), "out"+ext)
			if err := Save(cfg, path); err != nil {
				t.Fatal(err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, cfg) {
				t.Errorf("round trip changed settings:\n got %+v\nwant %+v", got, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"chance", func(c *Config) { c.Fracture.Chance = 1.5 }},
		{"grout", func(c *Config) { c.Fracture.Grout = -1 }},
		{"sites", func(c *Config) { c.Voronoi.MinSites, c.Voronoi.MaxSites = 5, 2 }},
		{"slices", func(c *Config) { c.Slice.Y = -1 }},
		{"brick", func(c *Config) { c.Brick.Height = 0 }},
		{"bond", func(c *Config) { c.Brick.Bond = "cobble" }},
		{"method", func(c *Config) { c.Cluster.Method = "magic" }},
		{"fraction", func(c *Config) { c.Cluster.Fraction = 0 }},
		{"tiny mode", func(c *Config) { c.Tiny.Mode = "melt" }},
		{"relative", func(c *Config) { c.Tiny.Relative, c.Tiny.RelativeSize = true, 0 }},
		{"tolerance", func(c *Config) { c.Proximity.Tolerance = 0 }},
		{"timeout", func(c *Config) { c.Recipe.TimeoutSeconds = 0 }},
		{"compression", func(c *Config) { c.Output.Compression = "brotli" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "splinter.toml", "[fracture]\nseed = 3\ngrout = 0.5\n")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(fs)
	if err := fs.Parse([]string{"--config", path, "--seed", "9", "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := flags.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fracture.Seed != 9 {
		t.Errorf("seed = %d, want the flag's 9", cfg.Fracture.Seed)
	}
	if cfg.Fracture.Grout != 0.5 {
		t.Errorf("grout = %f, want the file's 0.5", cfg.Fracture.Grout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s", cfg.Log.Level)
	}
}

func TestFlagsRejectInvalid(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(fs)
	flags.Path = writeFile(t, "x.toml", "")
	if err := fs.Parse([]string{"--chance", "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := flags.Resolve(); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Cluster.Method = "grid"
	cfg.Cluster.Grid = [3]int{3, 1, 1}
	co, err := cfg.Cluster.Options()
	if err != nil {
		t.Fatal(err)
	}
	if co.Method != clustering.ByGrid || co.GridX != 3 {
		t.Errorf("cluster options = %+v", co)
	}

	cfg.Tiny.Mode = "clusters"
	cfg.Tiny.Neighbor = "nearest"
	to, err := cfg.Tiny.Options()
	if err != nil {
		t.Fatal(err)
	}
	if to.Mode != utility.MergeClusters || to.Neighbor != utility.NeighborNearest || to.Level != -1 {
		t.Errorf("tiny options = %+v", to)
	}

	cfg.Fracture.Grout = 0.2
	if got := cfg.Fracture.Common(); got.Grout != 0.2 || got.InternalMaterial != -1 {
		t.Errorf("common = %+v", got)
	}
	if g := cfg.Slice.SliceGrid(); g.SlicesX != 1 || g.SlicesZ != 1 {
		t.Errorf("slice grid = %+v", g)
	}
}
