// meshinfo decodes an STL file and reports summary statistics over its
// flattened vertex coordinates.
package main

import (
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/carbon3d/draco/internal/config"
	"github.com/carbon3d/draco/internal/log"
	"github.com/carbon3d/draco/mesh"
	"github.com/carbon3d/draco/stl"
)

func main() {
	fs := flag.NewFlagSet("meshinfo", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshinfo <in.stl>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, 0, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	m := mesh.New()
	dec := stl.Decoder{Logger: log.L(), ForceBinary: cfg.IO.ForceBinaryDecode}
	if err := dec.DecodeFromFile(fs.Arg(0), m); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}

	posID, ok := m.FindAttribute(mesh.Position)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: decoded mesh has no position attribute")
		os.Exit(1)
	}
	pos := m.Attribute(posID)

	n := pos.NumValues()
	coords := make([]float64, 0, 3*n)
	for i := 0; i < n; i++ {
		v := pos.GetValue(i)
		coords = append(coords, float64(v.X), float64(v.Y), float64(v.Z))
	}

	sum := floats.Sum(coords)
	mean := sum / float64(len(coords))

	fmt.Printf("File:        %s\n", fs.Arg(0))
	fmt.Printf("Faces:       %d\n", m.NumFaces())
	fmt.Printf("Points:      %d\n", m.NumPoints())
	fmt.Printf("Coord sum:   %g\n", sum)
	fmt.Printf("Coord mean:  %g\n", mean)
}
