// Package config loads typegraph.conf files.
//
// Configuration files are searched for in a directory and all of its
// parents. Files in deeper directories override keys set by files in
// shallower ones, and all of them override the built-in defaults.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"honnef.co/go/typegraph/typegraph"

	"github.com/BurntSushi/toml"
)

type config struct {
	path string
	cfg  Config
	meta toml.MetaData
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("program", "max_var_size") {
		cfg.cfg.Program.MaxVarSize = ocfg.cfg.Program.MaxVarSize
	}
	if ocfg.meta.IsDefined("program", "default_data") {
		cfg.cfg.Program.DefaultData = ocfg.cfg.Program.DefaultData
	}
	if ocfg.meta.IsDefined("solver", "trace") {
		cfg.cfg.Solver.Trace = ocfg.cfg.Solver.Trace
	}
	if ocfg.meta.IsDefined("output", "format") {
		cfg.cfg.Output.Format = ocfg.cfg.Output.Format
	}
	return cfg
}

type Config struct {
	Program ProgramConfig `toml:"program"`
	Solver  SolverConfig  `toml:"solver"`
	Output  OutputConfig  `toml:"output"`
}

type ProgramConfig struct {
	// MaxVarSize is the number of bindings a variable can hold before
	// further data collapses onto DefaultData.
	MaxVarSize  int    `toml:"max_var_size"`
	DefaultData string `toml:"default_data"`
}

type SolverConfig struct {
	// Trace logs every query and the states the solver explores.
	Trace bool `toml:"trace"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

var defaultConfig = Config{
	Program: ProgramConfig{
		MaxVarSize:  typegraph.MaxVarSize,
		DefaultData: "?",
	},
	Solver: SolverConfig{
		Trace: false,
	},
	Output: OutputConfig{
		Format: "text",
	},
}

// Default returns the built-in configuration.
func Default() Config { return defaultConfig }

const configName = "typegraph.conf"

// Formats lists the valid values of output.format.
var Formats = []string{"text", "json", "null"}

func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		path := filepath.Join(dir, configName)
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var cfg Config
		meta, err := toml.DecodeReader(f, &cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %s: %w", path, err)
		}
		if keys := meta.Undecoded(); len(keys) > 0 {
			names := make([]string, len(keys))
			for i, k := range keys {
				names[i] = k.String()
			}
			return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(names, ", "))
		}
		out = append(out, config{path, cfg, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  defaultConfig,
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	if len(out) < 2 {
		return out, nil
	}
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// This shouldn't happen because we always have at least a
		// default config.
		panic("trying to merge zero configs")
	}
	if len(confs) == 1 {
		return confs[0].cfg
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}
	return conf.cfg
}

// Load returns the configuration that applies to dir.
func Load(dir string) (Config, error) {
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := mergeConfigs(confs)
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate checks that all values are in range.
func (c Config) Validate() error {
	if c.Program.MaxVarSize < 1 || c.Program.MaxVarSize > typegraph.MaxVarSize {
		return fmt.Errorf("program.max_var_size must be between 1 and %d, is %d", typegraph.MaxVarSize, c.Program.MaxVarSize)
	}
	for _, f := range Formats {
		if c.Output.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output.format %q, must be one of %s", c.Output.Format, strings.Join(Formats, ", "))
}

// ProgramOptions returns the options for creating a typegraph.Program
// with this configuration. Solver traces are written to logger if
// tracing is enabled and logger is not nil.
func (c Config) ProgramOptions(logger *log.Logger) []typegraph.Option {
	opts := []typegraph.Option{
		typegraph.WithMaxVarSize(c.Program.MaxVarSize),
		typegraph.WithDefaultData(c.Program.DefaultData),
	}
	if c.Solver.Trace && logger != nil {
		opts = append(opts, typegraph.WithLogger(logger))
	}
	return opts
}
