// Package export writes raw meshes to interchange formats.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

// Export errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrMissingPositions  = errors.New("no position data found for submesh")
	ErrNotTriangulated   = errors.New("position index count is not a multiple of 3")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// Format is an output format.
type Format int

const (
	FormatUnsupported Format = iota
	FormatOBJ
	FormatGLB
)

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatOBJ, FormatGLB}
}

// String returns the format's short name.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLB:
		return "glb"
	default:
		return "unsupported"
	}
}

// Description returns a human-readable format name.
func (f Format) Description() string {
	switch f {
	case FormatOBJ:
		return "Wavefront OBJ text"
	case FormatGLB:
		return "Binary glTF 2.0"
	default:
		return "Unsupported"
	}
}

// Extension returns the file extension of the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatOBJ:
		return ".obj"
	case FormatGLB:
		return ".glb"
	default:
		return ""
	}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "obj", "wavefront":
		return FormatOBJ, nil
	case "glb":
		return FormatGLB, nil
	default:
		return FormatUnsupported, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath resolves a format from an output file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return FormatUnsupported, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// PrerequisiteError reports a submesh that lacks data every format needs.
type PrerequisiteError struct {
	Mesh    string
	Submesh string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%v: mesh %q, submesh %q", ErrMissingPositions, e.Mesh, e.Submesh)
}

func (e *PrerequisiteError) Unwrap() error { return ErrMissingPositions }

// IndexRangeError reports an index that points past its channel's values.
type IndexRangeError struct {
	Mesh    string
	Submesh string
	Channel mesh.Channel
	Offset  int    // position in the index buffer
	Index   uint32 // offending zero-based index
	Count   int    // elements available in the channel
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("%v: mesh %q, submesh %q, %s index %d at offset %d, channel has %d elements",
		ErrIndexOutOfRange, e.Mesh, e.Submesh, e.Channel, e.Index, e.Offset, e.Count)
}

func (e *IndexRangeError) Unwrap() error { return ErrIndexOutOfRange }

// OutputError reports a failure to write the output file.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("unable to write output file %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Option configures an export.
type Option func(*options)

type options struct {
	log            *zap.Logger
	floatPrecision int
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithFloatPrecision sets the number of decimals written for floats.
// A negative value writes the shortest representation that round-trips.
func WithFloatPrecision(digits int) Option {
	return func(o *options) {
		o.floatPrecision = digits
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:            zap.NewNop(),
		floatPrecision: -1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Export writes meshes to path in the given format. Nothing is written
// unless every submesh exports successfully.
func Export(meshes []*mesh.RawMesh, format Format, path string, opts ...Option) error {
	switch format {
	case FormatOBJ:
		return ExportOBJ(meshes, path, opts...)
	case FormatGLB:
		return ExportGLB(meshes, path, opts...)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// writeFile writes a fully rendered output next to path and renames it
// into place, so path holds either its old content or the whole new one.
func writeFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	tmp := f.Name()

	fail := func(err error) error {
		os.Remove(tmp)
		return &OutputError{Path: path, Err: err}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fail(err)
	}
	return nil
}

// checkIndices verifies that every index addresses an element of attr.
func checkIndices(meshName string, sub *mesh.RawSubmesh, ch mesh.Channel, attr *mesh.RawAttribute) error {
	count := attr.Len(ch.Kind())
	for i, idx := range attr.Indices {
		if uint64(idx) >= uint64(count) {
			return &IndexRangeError{
				Mesh:    meshName,
				Submesh: sub.Name,
				Channel: ch,
				Offset:  i,
				Index:   idx,
				Count:   count,
			}
		}
	}
	return nil
}
