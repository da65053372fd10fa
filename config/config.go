// Package config loads layered settings for every keywordgraph command.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory
const DefaultFile = "keywordgraph.toml"

// EnvPrefix prefixes environment overrides, e.g. KEYWORDGRAPH_LOG_LEVEL
const EnvPrefix = "KEYWORDGRAPH_"

// Config holds all configuration for the application
type Config struct {
	Data       string    `koanf:"data"`
	Width      float64   `koanf:"width" validate:"gt=0,lte=16384"`
	Height     float64   `koanf:"height" validate:"gt=0,lte=16384"`
	FPS        int       `koanf:"fps" validate:"gte=1,lte=240"`
	Addr       string    `koanf:"addr"`
	Watch      bool      `koanf:"watch"`
	Background string    `koanf:"background" validate:"hexcolor"`
	Synthetic  Synthetic `koanf:"synthetic"`
	Log        Log       `koanf:"log"`
	Output     string    `koanf:"output"`
	Format     string    `koanf:"format" validate:"oneof=png svg json dot"`
	Ticks      int       `koanf:"ticks" validate:"gte=0"`
	Cell       Cell      `koanf:"cell"`
}

// Synthetic configures the generated dataset used when Count is positive
type Synthetic struct {
	Count int   `koanf:"count" validate:"gte=0,lte=2000"`
	Seed  int64 `koanf:"seed"`
}

// Log configures the global logger
type Log struct {
	JSON  bool   `koanf:"json"`
	Level string `koanf:"level"`
}

// Cell is the viewport size in pixels of one terminal cell
type Cell struct {
	Width  float64 `koanf:"width" validate:"gt=0"`
	Height float64 `koanf:"height" validate:"gt=0"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"data":       "",
		"width":      800.0,
		"height":     600.0,
		"fps":        30,
		"addr":       ":8080",
		"watch":      false,
		"background": "#ffffff",
		"synthetic": map[string]interface{}{
			"count": 0,
			"seed":  1,
		},
		"log": map[string]interface{}{
			"json":  false,
			"level": "info",
		},
		"output": "",
		"format": "png",
		"ticks":  300,
		"cell": map[string]interface{}{
			"width":  10.0,
			"height": 20.0,
		},
	}
}

// DefineFlags registers the command line flags understood by Load. Nested
// keys use a dash, so --log-level sets log.level.
func DefineFlags(f *pflag.FlagSet) {
	f.String("data", "", "data file (.json, .yaml) or directory with nodes.csv and links.csv; empty uses the sample dataset")
	f.Float64("width", 800, "viewport width in pixels")
	f.Float64("height", 600, "viewport height in pixels")
	f.Int("fps", 30, "frames per second")
	f.String("addr", ":8080", "listen address")
	f.Bool("watch", false, "reload when the data file changes")
	f.String("background", "#ffffff", "canvas background color")
	f.Int("synthetic-count", 0, "generate a synthetic dataset with this many keywords")
	f.Int64("synthetic-seed", 1, "seed of the synthetic dataset")
	f.Bool("log-json", false, "log JSON instead of console output")
	f.String("log-level", "info", "minimum log level")
	f.StringP("output", "o", "", "output file; empty derives keyword_network.<format>")
	f.String("format", "png", "export format: png, svg, json or dot")
	f.Int("ticks", 300, "simulation ticks before export")
	f.Float64("cell-width", 10, "viewport pixels per terminal column")
	f.Float64("cell-height", 20, "viewport pixels per terminal row")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	// 2. Config file, skipped when absent
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", path)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	// 4. Flags
	if f != nil {
		provider := posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(fl.Name, "-", "."), posflag.FlagVal(f, fl)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"check flags, "+EnvPrefix+"* variables and "+path)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}
