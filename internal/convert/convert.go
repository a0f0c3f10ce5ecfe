// Package convert runs model conversions: parse a source model, then export it.
package convert

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/gfmdl-converter/internal/config"
	"github.com/Faultbox/gfmdl-converter/pkg/export"
	"github.com/Faultbox/gfmdl-converter/pkg/formats"
	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

// Conversion errors.
var (
	ErrOutputExists    = errors.New("output file already exists")
	ErrDuplicateOutput = errors.New("several inputs map to the same output file")
	ErrNoInputs        = errors.New("no source models found")
)

// Job is one source model to convert.
type Job struct {
	Input  string
	Output string
	Format export.Format
}

// Result holds the outcome of one job.
type Result struct {
	Job       Job
	Submeshes int
	Vertices  int
	Triangles int
	Duration  time.Duration
	Err       error
}

// Success reports whether the job produced its output.
func (r Result) Success() bool {
	return r.Err == nil
}

// Converter turns source models into output files using one configuration.
type Converter struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates a converter. A nil config uses defaults and a nil logger
// discards diagnostics.
func New(cfg *config.Config, log *zap.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{cfg: cfg, log: log}
}

// ParseOptions translates the configuration into parser options.
func (c *Converter) ParseOptions() []formats.ParseOption {
	return []formats.ParseOption{
		formats.WithLogger(c.log.Named("parser")),
		formats.WithStrictTokens(c.cfg.Parser.StrictTokens),
		formats.WithMaxDocumentSize(c.cfg.MaxDocumentBytes()),
	}
}

// ExportOptions translates the configuration into exporter options.
func (c *Converter) ExportOptions() []export.Option {
	return []export.Option{
		export.WithLogger(c.log.Named("export")),
		export.WithFloatPrecision(c.cfg.Output.FloatPrecision),
	}
}

// Load parses one source model.
func (c *Converter) Load(path string) (*mesh.RawMesh, error) {
	m, err := formats.ParseGFMDLFile(path, c.ParseOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return m, nil
}

// ResolveFormat picks the output format: an explicit name wins, then the
// output file extension, then the configured default.
func (c *Converter) ResolveFormat(name, output string) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	if f, err := export.FormatFromPath(output); err == nil {
		return f, nil
	}
	return export.ParseFormat(c.cfg.Output.Format)
}

// Convert parses job.Input and writes job.Output. Nothing is written if
// either step fails.
func (c *Converter) Convert(job Job) error {
	return c.convert(job).Err
}

func (c *Converter) convert(job Job) Result {
	start := time.Now()
	res := Result{Job: job}
	log := c.log.With(zap.String("input", job.Input), zap.String("output", job.Output))

	if err := c.checkOutput(job.Output, log); err != nil {
		res.Err = err
		return res
	}

	m, err := c.Load(job.Input)
	if err != nil {
		res.Err = err
		return res
	}
	res.Submeshes = len(m.Submeshes)
	res.Vertices = m.VertexCount()
	res.Triangles = m.TriangleCount()

	if len(m.Submeshes) == 0 {
		log.Warn("model has no submeshes with faces")
	}

	if err := export.Export([]*mesh.RawMesh{m}, job.Format, job.Output, c.ExportOptions()...); err != nil {
		res.Err = errors.Wrapf(err, "exporting %s as %s", job.Input, job.Format)
		return res
	}

	res.Duration = time.Since(start)
	log.Info("converted model",
		zap.Int("submeshes", res.Submeshes),
		zap.Int("vertices", res.Vertices),
		zap.Int("triangles", res.Triangles),
		zap.Duration("took", res.Duration))
	return res
}

// checkOutput applies the overwrite policy to an existing output path.
func (c *Converter) checkOutput(path string, log *zap.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return errors.Wrapf(ErrOutputExists, "%s is a directory", path)
	}
	if !c.cfg.Output.Overwrite {
		return errors.Wrapf(ErrOutputExists, "%s", path)
	}
	log.Warn("output file already exists and will be overwritten")
	return nil
}

// Workers returns the number of batch workers to use for n jobs.
func (c *Converter) Workers(n int) int {
	workers := c.cfg.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Run converts independent jobs on a worker pool. Results are returned in
// job order.
func (c *Converter) Run(jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	var processed, failed atomic.Int64
	workers := c.Workers(total)
	start := time.Now()

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = c.convert(jobs[idx])
				if results[idx].Err != nil {
					failed.Add(1)
					c.log.Error("conversion failed",
						zap.String("input", jobs[idx].Input), zap.Error(results[idx].Err))
				}
				c.log.Debug("progress",
					zap.Int64("done", processed.Add(1)), zap.Int("total", total))
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()

	c.log.Info("batch finished",
		zap.Int("jobs", total),
		zap.Int64("failed", failed.Load()),
		zap.Int("workers", workers),
		zap.Duration("took", time.Since(start)))

	return results
}

// OutputPath returns the output file for input inside outDir.
func OutputPath(input, outDir string, format export.Format) string {
	base := filepath.Base(input)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+format.Extension())
}

// PlanDirectory builds a job for every source model directly inside inDir,
// sorted by file name.
func PlanDirectory(inDir, outDir string, format export.Format) ([]Job, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", inDir)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !formats.IsGFMDLPath(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(inDir, e.Name()))
	}
	if len(inputs) == 0 {
		return nil, errors.Wrapf(ErrNoInputs, "in %s", inDir)
	}

	sort.Strings(inputs)
	return PlanFiles(inputs, outDir, format)
}

// PlanFiles builds jobs for explicit inputs, expanding directories.
func PlanFiles(inputs []string, outDir string, format export.Format) ([]Job, error) {
	var jobs []Job
	outputs := make(map[string]string)

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err == nil && info.IsDir() {
			sub, err := PlanDirectory(input, outDir, format)
			if err != nil {
				return nil, err
			}
			for _, j := range sub {
				if prev, ok := outputs[j.Output]; ok {
					return nil, errors.Wrapf(ErrDuplicateOutput, "%s and %s", prev, j.Input)
				}
				outputs[j.Output] = j.Input
			}
			jobs = append(jobs, sub...)
			continue
		}

		out := OutputPath(input, outDir, format)
		if prev, ok := outputs[out]; ok {
			return nil, errors.Wrapf(ErrDuplicateOutput, "%s and %s", prev, input)
		}
		outputs[out] = input
		jobs = append(jobs, Job{Input: input, Output: out, Format: format})
	}

	if len(jobs) == 0 {
		return nil, ErrNoInputs
	}
	return jobs, nil
}
