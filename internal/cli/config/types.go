// Package config loads the relsvg CLI configuration. Values are layered:
// built-in defaults, then relsvg.yaml, then RELSVG_* environment variables,
// then command-line flags.
package config

import "github.com/relstack-labs/relsvg/internal/resolver"

// Defaults for values that are not resolver limits.
const (
	DefaultOutDir = ""
	DefaultSeed   = 0
)

// Config holds all CLI configuration options.
type Config struct {
	LoopLimit  int     `koanf:"loop_limit"`
	VarLimit   int     `koanf:"var_limit"`
	DepthLimit int     `koanf:"depth_limit"`
	Seed       int64   `koanf:"seed"`
	Precision  int     `koanf:"precision"`
	Pad        float64 `koanf:"pad"`
	OutDir     string  `koanf:"out_dir"`
	Verbose    bool    `koanf:"verbose"`
}

// ResolverConfig maps the CLI configuration onto a resolver configuration.
// The logger is attached by the caller.
func (c *Config) ResolverConfig() resolver.Config {
	return resolver.Config{
		LoopLimit:  c.LoopLimit,
		VarLimit:   c.VarLimit,
		DepthLimit: c.DepthLimit,
		Seed:       c.Seed,
		Precision:  c.Precision,
		Pad:        c.Pad,
	}
}
