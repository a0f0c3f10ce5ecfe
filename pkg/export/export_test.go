package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"obj", FormatOBJ, false},
		{"OBJ", FormatOBJ, false},
		{" wavefront ", FormatOBJ, false},
		{"glb", FormatGLB, false},
		{"fbx", FormatUnsupported, true},
		{"", FormatUnsupported, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error=%v, wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out/model.obj", FormatOBJ, false},
		{"MODEL.GLB", FormatGLB, false},
		{"model", FormatUnsupported, true},
		{"model.dae", FormatUnsupported, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error=%v, wantErr=%v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat_Names(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat(f.String())
		if err != nil || parsed != f {
			t.Errorf("format %v does not resolve from its own name", f)
		}
		if f.Extension() != "."+f.String() {
			t.Errorf("expected extension .%s, got %s", f.String(), f.Extension())
		}
		if f.Description() == "Unsupported" {
			t.Errorf("format %v has no description", f)
		}
	}
	if FormatUnsupported.Extension() != "" {
		t.Error("expected empty extension for unsupported format")
	}
}

func TestExport_Dispatch(t *testing.T) {
	tmpDir := t.TempDir()
	m := &mesh.RawMesh{Name: "m", Submeshes: []mesh.RawSubmesh{triangleSubmesh("s")}}

	for _, f := range Formats() {
		path := filepath.Join(tmpDir, "out"+f.Extension())
		if err := Export([]*mesh.RawMesh{m}, f, path); err != nil {
			t.Fatalf("Export(%v) failed: %v", f, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected output for %v: %v", f, err)
		}
		if info.Size() == 0 {
			t.Errorf("expected non-empty output for %v", f)
		}
	}

	err := Export([]*mesh.RawMesh{m}, FormatUnsupported, filepath.Join(tmpDir, "out.bin"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestUnorm8(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := unorm8(tt.in); got != tt.want {
			t.Errorf("unorm8(%f): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
