package main

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/packforge/modelpack/bcenc"
	"github.com/packforge/modelpack/convert"
)

// Config is the conversion configuration. Values are layered with priority
// defaults < file < flags.
type Config struct {
	GenerateMips  bool   `yaml:"generate_mips"`
	Compression   string `yaml:"compression"`
	MaxResolution uint32 `yaml:"max_resolution"`
	MergeMeshes   bool   `yaml:"merge_meshes"`
	Workers       int    `yaml:"workers"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Compression: "none",
		Workers:     runtime.NumCPU(),
		LogLevel:    "info",
	}
}

// loadFromFile merges a YAML file into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Options maps the configuration onto conversion options. The software
// block compressor is wired in when BC compression is requested.
func (c *Config) Options() (convert.Options, error) {
	switch c.MaxResolution {
	case 0, 1024, 2048, 4096:
	default:
		return convert.Options{}, fmt.Errorf("unsupported max resolution %d (want 1024, 2048, or 4096)", c.MaxResolution)
	}

	opts := convert.Options{
		GenerateMips:         c.GenerateMips,
		MaxTextureResolution: c.MaxResolution,
		MergeDuplicateMeshes: c.MergeMeshes,
		TextureWorkers:       c.Workers,
	}

	switch c.Compression {
	case "", "none":
		opts.TextureCompression = convert.CompressionNone
	case "bc":
		opts.TextureCompression = convert.CompressionBC
		opts.BlockCompressor = bcenc.New()
	case "astc":
		opts.TextureCompression = convert.CompressionASTC
	default:
		return opts, fmt.Errorf("unknown compression %q (want none, bc, or astc)", c.Compression)
	}

	return opts, nil
}
