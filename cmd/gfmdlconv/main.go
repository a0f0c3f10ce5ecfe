// gfmdlconv converts GFMDL XML models to Wavefront OBJ and binary glTF.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/gfmdl-converter/internal/config"
	"github.com/Faultbox/gfmdl-converter/internal/convert"
	"github.com/Faultbox/gfmdl-converter/internal/logger"
	"github.com/Faultbox/gfmdl-converter/pkg/export"
	"github.com/Faultbox/gfmdl-converter/pkg/formats"
	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

const version = "1.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "convert", "c":
		err = cmdConvert(args)
	case "batch", "b":
		err = cmdBatch(args)
	case "info":
		err = cmdInfo(args)
	case "dump":
		err = cmdDump(args)
	case "formats":
		cmdFormats()
	case "config":
		err = cmdConfig(args)
	case "version", "--version", "-v":
		fmt.Printf("gfmdlconv %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errorKind(err), err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `gfmdlconv - GFMDL model converter

Usage:
  gfmdlconv <command> [options]

Commands:
  convert -c <model.gfmdl> -o <out.obj>   Convert one model
  batch -o <outdir> <dir|files...>        Convert many models in parallel
  info <model.gfmdl>                      Show submeshes, channels and bounds
  dump <model.gfmdl>                      Print the decoded mesh structure
  formats                                 List output formats
  config [path]                           Write the default config as YAML
  version                                 Show version

Common options:
  -config <file>   Config file (default ./gfmdlconv.yaml or user config dir)
  -f <format>      Output format: obj, glb
  -strict          Fail on malformed numeric tokens
  -no-overwrite    Refuse to replace existing output files
  -debug, -quiet   Adjust log verbosity
  -log <file>      Also write logs to a rotating file

Examples:
  gfmdlconv convert -c pm0025_00.gfmdl -o pm0025_00.obj
  gfmdlconv convert -c pm0025_00.gfmdl -o pm0025_00.glb
  gfmdlconv batch -o ./out -j 8 ./models
`)
}

// setup loads configuration and starts logging for a command.
func setup(o *config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(o)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdConvert(args []string) error {
	var o config.Overrides
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	o.Register(fs)
	input := fs.String("c", "", "Source GFMDL model")
	output := fs.String("o", "", "Output file")
	fs.Parse(args)

	if *input == "" && fs.NArg() > 0 {
		*input = fs.Arg(0)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: gfmdlconv convert -c <model.gfmdl> [-o <out.obj>] [-f obj|glb]")
		os.Exit(1)
	}

	cfg, err := setup(&o)
	if err != nil {
		return err
	}
	c := convert.New(cfg, logger.Named("convert"))

	format, err := c.ResolveFormat(o.Format, *output)
	if err != nil {
		return err
	}
	if *output == "" {
		*output = convert.OutputPath(*input, filepath.Dir(*input), format)
	}

	return c.Convert(convert.Job{Input: *input, Output: *output, Format: format})
}

func cmdBatch(args []string) error {
	var o config.Overrides
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	o.Register(fs)
	o.RegisterBatch(fs)
	outDir := fs.String("o", "", "Output directory")
	fs.Parse(args)

	if *outDir == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gfmdlconv batch -o <outdir> [-f obj|glb] [-j workers] <dir|files...>")
		os.Exit(1)
	}

	cfg, err := setup(&o)
	if err != nil {
		return err
	}
	c := convert.New(cfg, logger.Named("batch"))

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}

	jobs, err := convert.PlanFiles(fs.Args(), *outDir, format)
	if err != nil {
		return err
	}

	results := c.Run(jobs)

	failed := 0
	for _, r := range results {
		if r.Success() {
			fmt.Printf("  OK    %s -> %s (%d submeshes, %d triangles)\n",
				r.Job.Input, r.Job.Output, r.Submeshes, r.Triangles)
			continue
		}
		failed++
		fmt.Printf("  FAIL  %s: %v\n", r.Job.Input, r.Err)
	}
	fmt.Printf("\nConverted %d of %d models\n", len(results)-failed, len(results))

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

func loadModel(name string, args []string) (*mesh.RawMesh, error) {
	var o config.Overrides
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	o.Register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gfmdlconv %s <model.gfmdl>\n", name)
		os.Exit(1)
	}

	cfg, err := setup(&o)
	if err != nil {
		return nil, err
	}
	return convert.New(cfg, logger.Named(name)).Load(fs.Arg(0))
}

func cmdInfo(args []string) error {
	m, err := loadModel("info", args)
	if err != nil {
		return err
	}

	fmt.Printf("Model:     %s\n", m.Name)
	fmt.Printf("Submeshes: %d\n", len(m.Submeshes))
	fmt.Printf("Vertices:  %d\n", m.VertexCount())
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	if lo, hi, ok := m.Bounds(); ok {
		size := hi.Sub(lo)
		fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
		fmt.Printf("Size:      %.3f x %.3f x %.3f\n", size.X(), size.Y(), size.Z())
	}

	for i := range m.Submeshes {
		sub := &m.Submeshes[i]
		fmt.Printf("\n[%d] %s\n", i, sub.Name)
		printChannel("position", &sub.Position, mesh.Position)
		for set := range sub.UV {
			printChannel(fmt.Sprintf("uv%d", set+1), &sub.UV[set], mesh.UV)
		}
		printChannel("normal", &sub.Normal, mesh.Normal)
		printChannel("tangent", &sub.Tangent, mesh.Tangent)
		printChannel("binormal", &sub.BiNormal, mesh.BiNormal)
		printChannel("color", &sub.Color, mesh.Color)
	}
	return nil
}

func printChannel(label string, attr *mesh.RawAttribute, kind mesh.AttributeKind) {
	if !attr.HasValues() && !attr.HasIndices() {
		return
	}
	fmt.Printf("  %-9s %6d elements  %6d indices\n", label, attr.Len(kind), len(attr.Indices))
}

func cmdDump(args []string) error {
	m, err := loadModel("dump", args)
	if err != nil {
		return err
	}

	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.Indent = "  "
	cfg.Fdump(os.Stdout, m)
	return nil
}

func cmdFormats() {
	fmt.Println("Output formats:")
	for _, f := range export.Formats() {
		fmt.Printf("  %-5s %-5s %s\n", f, f.Extension(), f.Description())
	}
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Parse(args)

	cfg := config.Default()
	if fs.NArg() == 0 {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := cfg.SaveTo(fs.Arg(0)); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", fs.Arg(0))
	return nil
}

// errorKind names the failure category shown to the user.
func errorKind(err error) string {
	var (
		docErr     *formats.DocumentError
		corruptErr *formats.CorruptionError
		refErr     *formats.ReferenceError
		preErr     *export.PrerequisiteError
		rangeErr   *export.IndexRangeError
		outErr     *export.OutputError
	)
	switch {
	case errors.As(err, &docErr):
		return "document"
	case errors.As(err, &corruptErr):
		return "corruption"
	case errors.As(err, &refErr):
		return "reference"
	case errors.As(err, &preErr), errors.As(err, &rangeErr), errors.Is(err, export.ErrNotTriangulated):
		return "export"
	case errors.As(err, &outErr):
		return "io"
	case errors.Is(err, export.ErrUnsupportedFormat):
		return "usage"
	default:
		return "error"
	}
}
