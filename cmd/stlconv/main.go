// stlconv decodes, re-encodes, and quantizes binary/ASCII STL files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carbon3d/draco/internal/config"
	"github.com/carbon3d/draco/internal/log"
	"github.com/carbon3d/draco/mesh"
	"github.com/carbon3d/draco/quant"
	"github.com/carbon3d/draco/stl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "decode":
		cmdDecode(args)
	case "encode":
		cmdEncode(args)
	case "quantize":
		cmdQuantize(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stlconv - STL decode/encode/quantize utility

Usage:
  stlconv <command> [options]

Commands:
  decode [--force-binary] <in.stl>    Decode and print face/point counts
  encode <in.stl> <out.stl>           Round-trip ASCII or binary input to binary output
  quantize [--grid-delta=D] <in.stl>  Print quantization parameters

Options must come before the file arguments; options after them are ignored.

Examples:
  stlconv decode --force-binary part.stl
  stlconv encode part.stl part.bin.stl
  stlconv quantize --grid-delta=0.01 part.stl`)
}

func initLogging(cfg *config.Config) {
	if err := log.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
}

func decodeFile(path string, cfg *config.Config) *mesh.Mesh {
	m := mesh.New()
	dec := stl.Decoder{Logger: log.L(), ForceBinary: cfg.IO.ForceBinaryDecode}
	if err := dec.DecodeFromFile(path, m); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
	return m
}

func cmdDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	forceBinary := fs.Bool("force-binary", false, "Skip the ASCII probe and decode as binary")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stlconv decode [--force-binary] <in.stl>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, 0, *forceBinary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)
	defer log.Sync()

	m := decodeFile(fs.Arg(0), cfg)
	fmt.Printf("Faces:  %d\n", m.NumFaces())
	fmt.Printf("Points: %d\n", m.NumPoints())
}

func cmdEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	forceBinary := fs.Bool("force-binary", false, "Skip the ASCII probe and decode as binary")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: stlconv encode <in.stl> <out.stl>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, 0, *forceBinary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)
	defer log.Sync()

	m := decodeFile(fs.Arg(0), cfg)

	enc := stl.Encoder{}
	if err := enc.EncodeToFile(m, fs.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding %s: %v\n", fs.Arg(1), err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d faces to %s\n", m.NumFaces(), fs.Arg(1))
}

func cmdQuantize(args []string) {
	fs := flag.NewFlagSet("quantize", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	gridDelta := fs.Float64("grid-delta", 0, "Grid spacing to quantize against")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stlconv quantize [--grid-delta=D] <in.stl>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, float32(*gridDelta), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)
	defer log.Sync()

	m := decodeFile(fs.Arg(0), cfg)

	var p quant.Params
	if err := p.FillFromMesh(m, cfg.IO.GridDelta); err != nil {
		fmt.Fprintf(os.Stderr, "Error computing quantization parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("q_bits:     %d\n", p.QBits)
	fmt.Printf("range:      %g\n", p.Range)
	fmt.Printf("min_corner: (%g, %g, %g)\n", p.MinCorner.X, p.MinCorner.Y, p.MinCorner.Z)
}
