package export

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

// ExportGLB writes meshes to path as binary glTF.
func ExportGLB(meshes []*mesh.RawMesh, path string, opts ...Option) error {
	var buf bytes.Buffer
	if err := WriteGLB(&buf, meshes, opts...); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// WriteGLB builds a glTF document for meshes and encodes it to w as GLB.
func WriteGLB(w io.Writer, meshes []*mesh.RawMesh, opts ...Option) error {
	doc, err := BuildGLTF(meshes, opts...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := gltf.NewEncoder(&buf)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// BuildGLTF converts meshes into a glTF document with one mesh and one
// node per submesh.
func BuildGLTF(meshes []*mesh.RawMesh, opts ...Option) (*gltf.Document, error) {
	o := newOptions(opts)
	doc := gltf.NewDocument()

	for _, m := range meshes {
		for i := range m.Submeshes {
			sub := &m.Submeshes[i]
			log := o.log.With(zap.String("mesh", m.Name), zap.String("submesh", sub.Name))

			if !sub.Position.HasValues() {
				return nil, &PrerequisiteError{Mesh: m.Name, Submesh: sub.Name}
			}
			if !sub.Position.HasIndices() {
				log.Warn("submesh has no indices, skipping")
				continue
			}

			welded, err := weldSubmesh(m.Name, sub)
			if err != nil {
				return nil, err
			}

			attributes := make(map[string]uint32)
			attributes["POSITION"] = modeler.WritePosition(doc, welded.positions)
			if welded.uvs != nil {
				attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, welded.uvs)
			}
			if welded.normals != nil {
				attributes["NORMAL"] = modeler.WriteNormal(doc, welded.normals)
			}
			if welded.colors != nil {
				attributes["COLOR_0"] = modeler.WriteColor(doc, welded.colors)
			}
			indicesAccessor := modeler.WriteIndices(doc, welded.indices)

			name := m.Name + "_" + sub.Name
			doc.Meshes = append(doc.Meshes, &gltf.Mesh{
				Name: name,
				Primitives: []*gltf.Primitive{
					{
						Indices:    gltf.Index(indicesAccessor),
						Attributes: attributes,
					},
				},
			})
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
			doc.Nodes = append(doc.Nodes, &gltf.Node{
				Name: name,
				Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
			})

			log.Debug("welded submesh",
				zap.Int("vertices", len(welded.positions)), zap.Int("indices", len(welded.indices)))
		}
	}

	return doc, nil
}

// weldedSubmesh is a submesh re-indexed through a single index stream.
type weldedSubmesh struct {
	positions [][3]float32
	uvs       [][2]float32
	normals   [][3]float32
	colors    [][4]uint8
	indices   []uint32
}

type cornerKey struct {
	position, uv, normal, color uint32
}

// weldSubmesh merges the per-channel index streams into unique vertices.
// A channel joins the vertex layout only when its index stream matches
// the position stream one-to-one.
func weldSubmesh(meshName string, sub *mesh.RawSubmesh) (*weldedSubmesh, error) {
	indices := sub.Position.Indices
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: mesh %q, submesh %q has %d indices", ErrNotTriangulated, meshName, sub.Name, len(indices))
	}

	matching := func(ch mesh.Channel, attr *mesh.RawAttribute) (*mesh.RawAttribute, error) {
		if !attr.HasValues() || len(attr.Indices) != len(indices) {
			return nil, nil
		}
		if err := checkIndices(meshName, sub, ch, attr); err != nil {
			return nil, err
		}
		return attr, nil
	}

	if err := checkIndices(meshName, sub, mesh.ChannelPosition, &sub.Position); err != nil {
		return nil, err
	}
	var uv *mesh.RawAttribute
	if len(sub.UV) > 0 {
		var err error
		if uv, err = matching(mesh.ChannelUV, &sub.UV[0]); err != nil {
			return nil, err
		}
	}
	normal, err := matching(mesh.ChannelNormal, &sub.Normal)
	if err != nil {
		return nil, err
	}
	color, err := matching(mesh.ChannelColor, &sub.Color)
	if err != nil {
		return nil, err
	}

	out := &weldedSubmesh{indices: make([]uint32, 0, len(indices))}
	seen := make(map[cornerKey]uint32)

	for i, p := range indices {
		key := cornerKey{position: p}
		if uv != nil {
			key.uv = uv.Indices[i]
		}
		if normal != nil {
			key.normal = normal.Indices[i]
		}
		if color != nil {
			key.color = color.Indices[i]
		}

		if v, ok := seen[key]; ok {
			out.indices = append(out.indices, v)
			continue
		}

		v := uint32(len(out.positions))
		seen[key] = v
		out.indices = append(out.indices, v)

		pos, _ := sub.Position.Element(mesh.Position, key.position)
		out.positions = append(out.positions, [3]float32{pos[0], pos[1], pos[2]})
		if uv != nil {
			t, _ := uv.Element(mesh.UV, key.uv)
			out.uvs = append(out.uvs, [2]float32{t[0], t[1]})
		}
		if normal != nil {
			n, _ := normal.Element(mesh.Normal, key.normal)
			out.normals = append(out.normals, [3]float32{n[0], n[1], n[2]})
		}
		if color != nil {
			c, _ := color.Element(mesh.Color, key.color)
			out.colors = append(out.colors, [4]uint8{unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])})
		}
	}

	return out, nil
}

// unorm8 converts a [0,1] float to an 8-bit normalized value.
func unorm8(v float32) uint8 {
	switch {
	case v <= 0 || math.IsNaN(float64(v)):
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
