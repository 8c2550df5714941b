package config

import (
	"github.com/spf13/pflag"
)

// Flags binds the global command-line overrides. Only flags the user
// actually set are applied, so a file value survives an unset flag.
type Flags struct {
	// Path is the --config value.
	Path string

	set     *pflag.FlagSet
	vals    Config
	setters map[string]func(dst, src *Config)
}

// AddFlags registers the override flags on fs.
func AddFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{set: fs, vals: *d, setters: map[string]func(dst, src *Config){}}
	v := &f.vals

	fs.StringVarP(&f.Path, "config", "c", "", "settings file (toml, yaml or jsonc)")
	f.str("log-level", &v.Log.Level, "log level (debug, info, warn, error)", func(d, s *Config) { d.Log.Level = s.Log.Level })
	f.str("log-format", &v.Log.Format, "log format (text, json, logfmt)", func(d, s *Config) { d.Log.Format = s.Log.Format })
	f.str("log-file", &v.Log.File, "also write logs to this rotating file", func(d, s *Config) { d.Log.File = s.Log.File })
	f.str("compression", &v.Output.Compression, "output compression (none, zstd, lz4)", func(d, s *Config) { d.Output.Compression = s.Output.Compression })

	fs.Int64Var(&v.Fracture.Seed, "seed", v.Fracture.Seed, "random seed")
	f.setters["seed"] = func(d, s *Config) { d.Fracture.Seed = s.Fracture.Seed }
	fs.Float64Var(&v.Fracture.Chance, "chance", v.Fracture.Chance, "probability that a selected bone is cut")
	f.setters["chance"] = func(d, s *Config) { d.Fracture.Chance = s.Fracture.Chance }
	fs.Float64Var(&v.Fracture.Grout, "grout", v.Fracture.Grout, "gap left between fragments")
	f.setters["grout"] = func(d, s *Config) { d.Fracture.Grout = s.Fracture.Grout }
	fs.BoolVar(&v.Fracture.SplitIslands, "split-islands", v.Fracture.SplitIslands, "split disconnected fragment pieces into bones")
	f.setters["split-islands"] = func(d, s *Config) { d.Fracture.SplitIslands = s.Fracture.SplitIslands }
	fs.IntVar(&v.Fracture.InternalMaterial, "internal-material", v.Fracture.InternalMaterial, "material for new internal faces (-1 keeps the kernel's)")
	f.setters["internal-material"] = func(d, s *Config) { d.Fracture.InternalMaterial = s.Fracture.InternalMaterial }
	fs.Float64Var(&v.Recipe.TimeoutSeconds, "timeout", v.Recipe.TimeoutSeconds, "recipe timeout in seconds")
	f.setters["timeout"] = func(d, s *Config) { d.Recipe.TimeoutSeconds = s.Recipe.TimeoutSeconds }
	return f
}

func (f *Flags) str(name string, p *string, usage string, cp func(d, s *Config)) {
	f.set.StringVar(p, name, *p, usage)
	f.setters[name] = cp
}

// Apply copies every changed flag into cfg.
func (f *Flags) Apply(cfg *Config) {
	for name, cp := range f.setters {
		if f.set.Changed(name) {
			cp(cfg, &f.vals)
		}
	}
}

// Resolve loads the --config file (or the standard locations), applies
// changed flags and validates the result.
func (f *Flags) Resolve() (*Config, error) {
	cfg, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
