package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

const objHeader = "# Generated with gfmdlconv\n"

// ExportOBJ writes meshes to path as Wavefront OBJ.
func ExportOBJ(meshes []*mesh.RawMesh, path string, opts ...Option) error {
	data, err := RenderOBJ(meshes, opts...)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteOBJ renders meshes as Wavefront OBJ and writes the result to w.
// Nothing reaches w if rendering fails.
func WriteOBJ(w io.Writer, meshes []*mesh.RawMesh, opts ...Option) error {
	data, err := RenderOBJ(meshes, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// RenderOBJ renders meshes as Wavefront OBJ text.
func RenderOBJ(meshes []*mesh.RawMesh, opts ...Option) ([]byte, error) {
	w := &objWriter{opts: newOptions(opts)}
	w.buf.WriteString(objHeader)

	for _, m := range meshes {
		for i := range m.Submeshes {
			if err := w.writeSubmesh(m.Name, &m.Submeshes[i]); err != nil {
				return nil, err
			}
		}
	}

	return w.buf.Bytes(), nil
}

type objWriter struct {
	opts options
	buf  bytes.Buffer
	num  []byte
}

func (w *objWriter) writeSubmesh(meshName string, sub *mesh.RawSubmesh) error {
	log := w.opts.log.With(zap.String("mesh", meshName), zap.String("submesh", sub.Name))

	fmt.Fprintf(&w.buf, "\ng %s_%s\n\n", meshName, sub.Name)

	if !sub.Position.HasValues() {
		return &PrerequisiteError{Mesh: meshName, Submesh: sub.Name}
	}

	w.writeValues("\tv", sub.Position.Values, 3)

	var uv *mesh.RawAttribute
	if len(sub.UV) > 0 && sub.UV[0].HasValues() {
		uv = &sub.UV[0]
		w.buf.WriteByte('\n')
		w.writeValues("\tvt", uv.Values, 2)
	}
	if len(sub.UV) > 1 {
		log.Debug("only the first UV map is exported", zap.Int("uv_maps", len(sub.UV)))
	}

	var normal *mesh.RawAttribute
	if sub.Normal.HasValues() {
		normal = &sub.Normal
		w.buf.WriteByte('\n')
		w.writeValues("\tvn", normal.Values, 3)
	}

	if !sub.Position.HasIndices() {
		log.Warn("submesh has no indices, skipping face generation")
		return nil
	}

	indices := sub.Position.Indices
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: mesh %q, submesh %q has %d indices", ErrNotTriangulated, meshName, sub.Name, len(indices))
	}
	if err := checkIndices(meshName, sub, mesh.ChannelPosition, &sub.Position); err != nil {
		return err
	}

	// Secondary references are only written when their stream lines up
	// one-to-one with the position stream
	if uv != nil && len(uv.Indices) != len(indices) {
		uv = nil
	}
	if normal != nil && len(normal.Indices) != len(indices) {
		normal = nil
	}
	if uv != nil {
		if err := checkIndices(meshName, sub, mesh.ChannelUV, uv); err != nil {
			return err
		}
	}
	if normal != nil {
		if err := checkIndices(meshName, sub, mesh.ChannelNormal, normal); err != nil {
			return err
		}
	}

	for i := 0; i < len(indices); i += 3 {
		w.buf.WriteString("f ")
		w.writeCorner(i, indices, uv, normal)
		w.buf.WriteByte(' ')
		w.writeCorner(i+1, indices, uv, normal)
		w.buf.WriteByte(' ')
		w.writeCorner(i+2, indices, uv, normal)
		w.buf.WriteByte('\n')
	}

	return nil
}

// writeCorner writes one face vertex reference: p, p/t, p//n or p/t/n.
func (w *objWriter) writeCorner(i int, indices []uint32, uv, normal *mesh.RawAttribute) {
	w.writeIndex(indices[i])
	if uv == nil && normal == nil {
		return
	}

	w.buf.WriteByte('/')
	if uv != nil {
		w.writeIndex(uv.Indices[i])
	}
	if normal != nil {
		w.buf.WriteByte('/')
		w.writeIndex(normal.Indices[i])
	}
}

// writeIndex writes a zero-based index as a one-based OBJ reference.
func (w *objWriter) writeIndex(idx uint32) {
	w.num = strconv.AppendUint(w.num[:0], uint64(idx)+1, 10)
	w.buf.Write(w.num)
}

func (w *objWriter) writeValues(prefix string, values []float32, stride int) {
	for i := 0; i+stride <= len(values); i += stride {
		w.buf.WriteString(prefix)
		for _, v := range values[i : i+stride] {
			w.buf.WriteByte(' ')
			w.num = strconv.AppendFloat(w.num[:0], float64(v), 'f', w.opts.floatPrecision, 32)
			w.buf.Write(w.num)
		}
		w.buf.WriteByte('\n')
	}
}
