// Package mesh holds the raw, indexed vertex-attribute representation produced
// by the GFMDL parser and consumed by the exporters.
//
// Every attribute channel is a flat float buffer plus an optional index
// buffer. Channels are indexed independently: a face corner references a
// position, a texture coordinate and a normal through three separate
// index streams.
package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AttributeKind identifies a vertex-attribute channel in VertexData.
type AttributeKind int

const (
	Unsupported AttributeKind = iota
	Position
	UV
	Normal
	Tangent
	BiNormal
	Color
)

// ParseAttributeKind maps a VertexData Usage tag to its kind.
// Unknown tags map to Unsupported.
func ParseAttributeKind(usage string) AttributeKind {
	switch usage {
	case "Position":
		return Position
	case "UV":
		return UV
	case "Normal":
		return Normal
	case "Tangent":
		return Tangent
	case "BiNormal":
		return BiNormal
	case "Color":
		return Color
	default:
		return Unsupported
	}
}

// String returns the Usage tag of the kind.
func (k AttributeKind) String() string {
	switch k {
	case Position:
		return "Position"
	case UV:
		return "UV"
	case Normal:
		return "Normal"
	case Tangent:
		return "Tangent"
	case BiNormal:
		return "BiNormal"
	case Color:
		return "Color"
	case Unsupported:
		return "Unsupported"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Components returns the number of floats per element of the kind.
// Unsupported kinds have no components.
func (k AttributeKind) Components() int {
	switch k {
	case Position, Normal, Tangent, BiNormal:
		return 3
	case UV:
		return 2
	case Color:
		return 4
	default:
		return 0
	}
}

// RawAttribute is one channel's payload.
type RawAttribute struct {
	Values  []float32
	Indices []uint32
}

// Len returns the number of logical elements in the channel.
func (a *RawAttribute) Len(kind AttributeKind) int {
	n := kind.Components()
	if n == 0 {
		return 0
	}
	return len(a.Values) / n
}

// Element returns the floats of element i, or false if i is out of range.
func (a *RawAttribute) Element(kind AttributeKind, i uint32) ([]float32, bool) {
	n := kind.Components()
	if n == 0 || uint64(i) >= uint64(a.Len(kind)) {
		return nil, false
	}
	start := int(i) * n
	return a.Values[start : start+n], true
}

// HasValues reports whether the channel carries any values.
func (a *RawAttribute) HasValues() bool {
	return len(a.Values) > 0
}

// HasIndices reports whether the channel carries an index buffer.
func (a *RawAttribute) HasIndices() bool {
	return len(a.Indices) > 0
}

// RawSubmesh is one named, independently indexed piece of a model.
type RawSubmesh struct {
	Name string

	Position RawAttribute
	UV       []RawAttribute // UV maps in VertexData order
	Normal   RawAttribute
	Tangent  RawAttribute
	BiNormal RawAttribute
	Color    RawAttribute
}

// AttributeFor returns the slot an index stream targeting ch writes to.
// uvSet is zero-based and only used for the UV channel. It returns nil
// when the UV set does not exist.
func (s *RawSubmesh) AttributeFor(ch Channel, uvSet int) *RawAttribute {
	switch ch {
	case ChannelPosition:
		return &s.Position
	case ChannelUV:
		if uvSet < 0 || uvSet >= len(s.UV) {
			return nil
		}
		return &s.UV[uvSet]
	case ChannelNormal:
		return &s.Normal
	case ChannelTangent:
		return &s.Tangent
	case ChannelBiNormal:
		return &s.BiNormal
	case ChannelColor:
		return &s.Color
	default:
		return nil
	}
}

// VertexCount returns the number of position elements.
func (s *RawSubmesh) VertexCount() int {
	return s.Position.Len(Position)
}

// TriangleCount returns the number of triangles described by the position indices.
func (s *RawSubmesh) TriangleCount() int {
	return len(s.Position.Indices) / 3
}

// Bounds returns the axis-aligned bounds of the position values.
// ok is false when the submesh has no positions.
func (s *RawSubmesh) Bounds() (min, max mgl32.Vec3, ok bool) {
	n := s.VertexCount()
	if n == 0 {
		return min, max, false
	}
	inf := float32(math.Inf(1))
	min = mgl32.Vec3{inf, inf, inf}
	max = mgl32.Vec3{-inf, -inf, -inf}
	for i := 0; i < n; i++ {
		p := s.Position.Values[i*3 : i*3+3]
		for axis := 0; axis < 3; axis++ {
			if p[axis] < min[axis] {
				min[axis] = p[axis]
			}
			if p[axis] > max[axis] {
				max[axis] = p[axis]
			}
		}
	}
	return min, max, true
}

// RawMesh is one parsed source file. It owns its submeshes.
type RawMesh struct {
	Name      string
	Submeshes []RawSubmesh
}

// VertexCount returns the total position element count across submeshes.
func (m *RawMesh) VertexCount() int {
	total := 0
	for i := range m.Submeshes {
		total += m.Submeshes[i].VertexCount()
	}
	return total
}

// TriangleCount returns the total triangle count across submeshes.
func (m *RawMesh) TriangleCount() int {
	total := 0
	for i := range m.Submeshes {
		total += m.Submeshes[i].TriangleCount()
	}
	return total
}

// Bounds returns the axis-aligned bounds of every submesh combined.
func (m *RawMesh) Bounds() (min, max mgl32.Vec3, ok bool) {
	for i := range m.Submeshes {
		smin, smax, sok := m.Submeshes[i].Bounds()
		if !sok {
			continue
		}
		if !ok {
			min, max, ok = smin, smax, true
			continue
		}
		for axis := 0; axis < 3; axis++ {
			min[axis] = float32(math.Min(float64(min[axis]), float64(smin[axis])))
			max[axis] = float32(math.Max(float64(max[axis]), float64(smax[axis])))
		}
	}
	return min, max, ok
}

// Equal reports whether two meshes are structurally identical.
func (m *RawMesh) Equal(other *RawMesh) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Name != other.Name || len(m.Submeshes) != len(other.Submeshes) {
		return false
	}
	for i := range m.Submeshes {
		if !m.Submeshes[i].Equal(&other.Submeshes[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two submeshes are structurally identical.
func (s *RawSubmesh) Equal(other *RawSubmesh) bool {
	if s.Name != other.Name || len(s.UV) != len(other.UV) {
		return false
	}
	for i := range s.UV {
		if !s.UV[i].Equal(&other.UV[i]) {
			return false
		}
	}
	return s.Position.Equal(&other.Position) &&
		s.Normal.Equal(&other.Normal) &&
		s.Tangent.Equal(&other.Tangent) &&
		s.BiNormal.Equal(&other.BiNormal) &&
		s.Color.Equal(&other.Color)
}

// Equal compares values bitwise so NaN payloads compare equal to themselves.
func (a *RawAttribute) Equal(other *RawAttribute) bool {
	if len(a.Values) != len(other.Values) || len(a.Indices) != len(other.Indices) {
		return false
	}
	for i, v := range a.Values {
		if math.Float32bits(v) != math.Float32bits(other.Values[i]) {
			return false
		}
	}
	for i, idx := range a.Indices {
		if idx != other.Indices[i] {
			return false
		}
	}
	return true
}

// Channel returns the slot an attribute of this kind is stored in.
func (k AttributeKind) Channel() (Channel, bool) {
	switch k {
	case Position:
		return ChannelPosition, true
	case UV:
		return ChannelUV, true
	case Normal:
		return ChannelNormal, true
	case Tangent:
		return ChannelTangent, true
	case BiNormal:
		return ChannelBiNormal, true
	case Color:
		return ChannelColor, true
	default:
		return 0, false
	}
}
