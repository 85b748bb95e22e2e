// modelpack converts glTF assets into packed binary model files and
// inspects the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/packforge/modelpack/codec"
	"github.com/packforge/modelpack/convert"
	"github.com/packforge/modelpack/gltfdoc"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert":
		cmdConvert(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modelpack - glTF to packed model converter

Usage:
  modelpack <command> [options]

Commands:
  convert <in.gltf|in.glb> <out.mpk> [options]  Convert an asset
  info <file.mpk>                               Show packed model information

Convert options:
  -config <file.yaml>   Load options from a YAML file
  -mips                 Generate full mip chains
  -compress <family>    Texture compression: none, bc (default none)
  -max-res <n>          Cap texture resolution (0 = uncapped)
  -merge-meshes         Merge meshes with identical content
  -workers <n>          Texture worker count (default: CPU count)
  -log-level <level>    debug, info, warn, or error (default info)

Examples:
  modelpack convert scene.glb scene.mpk -mips -compress bc
  modelpack info scene.mpk`)
}

func cmdConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	mips := fs.Bool("mips", false, "generate mip chains")
	compression := fs.String("compress", "", "texture compression family")
	maxRes := fs.Uint("max-res", 0, "texture resolution cap")
	mergeMeshes := fs.Bool("merge-meshes", false, "merge duplicate meshes")
	workers := fs.Int("workers", 0, "texture worker count")
	logLevel := fs.String("log-level", "", "log level")

	positional, flagArgs := splitArgs(args)
	_ = fs.Parse(flagArgs)

	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: modelpack convert <in.gltf|in.glb> <out.mpk> [options]")
		os.Exit(1)
	}
	inPath, outPath := positional[0], positional[1]

	cfg := Default()
	if *configPath != "" {
		if err := loadFromFile(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mips":
			cfg.GenerateMips = *mips
		case "compress":
			cfg.Compression = *compression
		case "max-res":
			cfg.MaxResolution = uint32(*maxRes)
		case "merge-meshes":
			cfg.MergeMeshes = *mergeMeshes
		case "workers":
			cfg.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	opts, err := cfg.Options()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	start := time.Now()
	doc, err := gltfdoc.Load(inPath)
	if err != nil {
		log.Fatal("failed to load asset", zap.String("path", inPath), zap.Error(err))
	}
	log.Info("loaded asset",
		zap.String("path", inPath),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("materials", len(doc.Materials)),
		zap.Int("images", len(doc.Images)),
		zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	m, err := convert.Convert(doc, opts)
	if err != nil {
		log.Fatal("conversion failed", zap.Error(err))
	}
	log.Info("converted model",
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("materials", len(m.Materials)),
		zap.Int("textures", len(m.Textures)),
		zap.Duration("elapsed", time.Since(start)))

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatal("failed to create output file", zap.String("path", outPath), zap.Error(err))
	}
	defer out.Close()

	if err := codec.Encode(out, m); err != nil {
		log.Fatal("failed to write packed model", zap.String("path", outPath), zap.Error(err))
	}
	if err := out.Close(); err != nil {
		log.Fatal("failed to flush output file", zap.String("path", outPath), zap.Error(err))
	}

	info, err := os.Stat(outPath)
	if err == nil {
		log.Info("wrote packed model", zap.String("path", outPath), zap.Int64("bytes", info.Size()))
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modelpack info <file.mpk>")
		os.Exit(1)
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	m, err := codec.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Nodes:     %d (%d roots)\n", len(m.Nodes), len(m.RootNodeIndices))
	fmt.Printf("Meshes:    %d\n", len(m.Meshes))
	fmt.Printf("Materials: %d\n", len(m.Materials))
	fmt.Printf("Textures:  %d\n", len(m.Textures))
	fmt.Printf("Bounds:    min (%.3f %.3f %.3f) max (%.3f %.3f %.3f)\n",
		m.BoundsMin[0], m.BoundsMin[1], m.BoundsMin[2],
		m.BoundsMax[0], m.BoundsMax[1], m.BoundsMax[2])

	var vertices, indices int
	for i := range m.Meshes {
		vertices += len(m.Meshes[i].PackedVertices)
		indices += len(m.Meshes[i].Indices)
	}
	fmt.Printf("Geometry:  %d vertices, %d triangles\n", vertices, indices/3)

	for i := range m.Textures {
		t := &m.Textures[i]
		fmt.Printf("  texture %d: %q %dx%d %s, %d mips\n",
			i, t.Name, t.Width, t.Height, t.Format, t.MipCount)
	}
}

// splitArgs separates leading positional arguments from the flag tail, so
// "convert in.glb out.mpk -mips" parses naturally.
func splitArgs(args []string) ([]string, []string) {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

// newLogger builds a console logger in the requested level.
func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)
	return zap.New(core)
}
