// Package formats provides parsers for model file formats.
// GFMDL (XML model) format parser.
package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/gfmdl-converter/pkg/encoding"
	"github.com/Faultbox/gfmdl-converter/pkg/mesh"
)

// DefaultMaxDocumentSize caps the size of a GFMDL document read from disk.
const DefaultMaxDocumentSize = 512 << 20

// GFMDL is the document tree of a GFMDL file. Only the sections the
// converter consumes are bound.
type GFMDL struct {
	XMLName     xml.Name          `xml:"GfModel"`
	TextureList *GFMDLTextureList `xml:"TextureList"`
	Materials   *GFMDLMaterials   `xml:"Materials"`
	Meshes      *GFMDLMeshes      `xml:"Meshes"`
	Skeleton    *GFMDLSkeleton    `xml:"Skeleton"`
}

// GFMDLTextureList is reserved; textures are not converted yet.
type GFMDLTextureList struct{}

// GFMDLMaterials is reserved; materials are not converted yet.
type GFMDLMaterials struct{}

// GFMDLSkeleton is reserved; skeletons are out of scope.
type GFMDLSkeleton struct{}

// GFMDLMeshes holds the model's mesh elements in document order.
type GFMDLMeshes struct {
	Meshes []GFMDLMesh `xml:"Mesh"`
}

// GFMDLMesh is one submesh element.
type GFMDLMesh struct {
	Name       string           `xml:"Name,attr"`
	VertexData *GFMDLVertexData `xml:"VertexData"`
	Faces      *GFMDLFaces      `xml:"Faces"`
}

// GFMDLVertexData holds attribute elements. Any child element is treated
// as an attribute.
type GFMDLVertexData struct {
	Attrs []GFMDLAttr `xml:",any"`
}

// GFMDLAttr is one vertex attribute payload.
type GFMDLAttr struct {
	XMLName xml.Name
	Usage   string `xml:"Usage,attr"`
	Size    string `xml:"Size,attr"` // element count, not float count
	Text    string `xml:",chardata"`
}

// GFMDLFaces holds the face index groups of a submesh.
type GFMDLFaces struct {
	Faces []GFMDLFace `xml:"Face"`
}

// GFMDLFace is one index group, usually one per material.
type GFMDLFace struct {
	Material    string             `xml:"Material,attr"`
	IndexLength string             `xml:"IndexLength,attr"`
	Streams     []GFMDLIndexStream `xml:",any"`
}

// GFMDLIndexStream is one index stream of a face group.
type GFMDLIndexStream struct {
	XMLName xml.Name
	Usage   string `xml:"Usage,attr"`
	Name    string `xml:"Name,attr"`
	Text    string `xml:",chardata"`
}

// ParseOption configures GFMDL parsing.
type ParseOption func(*parseOptions)

type parseOptions struct {
	log             *zap.Logger
	policy          TokenPolicy
	maxDocumentSize int64
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) ParseOption {
	return func(o *parseOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStrictTokens makes any malformed numeric token a corruption error.
func WithStrictTokens(strict bool) ParseOption {
	return func(o *parseOptions) {
		if strict {
			o.policy = TokensStrict
		} else {
			o.policy = TokensLenient
		}
	}
}

// WithMaxDocumentSize limits the document size in bytes. Zero or less
// disables the limit.
func WithMaxDocumentSize(n int64) ParseOption {
	return func(o *parseOptions) {
		o.maxDocumentSize = n
	}
}

func newParseOptions(opts []ParseOption) parseOptions {
	o := parseOptions{
		log:             zap.NewNop(),
		policy:          TokensLenient,
		maxDocumentSize: DefaultMaxDocumentSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DecodeGFMDLDocument decodes the XML document tree.
func DecodeGFMDLDocument(data []byte) (*GFMDL, error) {
	data, err := encoding.DecodeBOM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelMalformed, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = encoding.CharsetReader

	var doc GFMDL
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelMalformed, err)
	}
	return &doc, nil
}

// ParseGFMDL parses GFMDL data into a raw mesh named name.
// On any failure no mesh is returned.
func ParseGFMDL(name string, data []byte, opts ...ParseOption) (*mesh.RawMesh, error) {
	o := newParseOptions(opts)

	if o.maxDocumentSize > 0 && int64(len(data)) > o.maxDocumentSize {
		return nil, &DocumentError{Path: name, Err: fmt.Errorf("%w: %d bytes, limit %d", ErrModelTooLarge, len(data), o.maxDocumentSize)}
	}

	doc, err := DecodeGFMDLDocument(data)
	if err != nil {
		return nil, &DocumentError{Path: name, Err: err}
	}

	p := &gfmdlParser{
		opts: o,
		log:  o.log.With(zap.String("model", name)),
		mesh: &mesh.RawMesh{Name: name},
	}
	if err := p.parse(doc); err != nil {
		return nil, err
	}
	return p.mesh, nil
}

// ParseGFMDLFile parses a GFMDL file from disk. The mesh is named after
// the file's base name without extension.
func ParseGFMDLFile(path string, opts ...ParseOption) (*mesh.RawMesh, error) {
	o := newParseOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: classifyReadError(err)}
	}
	if info.IsDir() {
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: is a directory", ErrModelUnreadable)}
	}
	if o.maxDocumentSize > 0 && info.Size() > o.maxDocumentSize {
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: %d bytes, limit %d", ErrModelTooLarge, info.Size(), o.maxDocumentSize)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: classifyReadError(err)}
	}

	m, err := ParseGFMDL(MeshName(path), data, opts...)
	if err != nil {
		var docErr *DocumentError
		if errors.As(err, &docErr) {
			docErr.Path = path
		}
		return nil, err
	}
	return m, nil
}

// MeshName derives a mesh name from a model file path.
func MeshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func classifyReadError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnreadable, err)
}

// gfmdlParser walks one decoded document.
type gfmdlParser struct {
	opts parseOptions
	log  *zap.Logger
	mesh *mesh.RawMesh
}

func (p *gfmdlParser) parse(doc *GFMDL) error {
	if err := p.parseTextureList(doc.TextureList); err != nil {
		return err
	}
	if err := p.parseMaterials(doc.Materials); err != nil {
		return err
	}
	if err := p.parseMeshes(doc.Meshes); err != nil {
		return err
	}
	return p.parseSkeleton(doc.Skeleton)
}

func (p *gfmdlParser) parseTextureList(*GFMDLTextureList) error { return nil }

func (p *gfmdlParser) parseMaterials(*GFMDLMaterials) error { return nil }

func (p *gfmdlParser) parseSkeleton(*GFMDLSkeleton) error { return nil }

func (p *gfmdlParser) parseMeshes(list *GFMDLMeshes) error {
	if list == nil {
		p.log.Info("model has no Meshes section")
		return nil
	}

	for i := range list.Meshes {
		m := &list.Meshes[i]

		// Entries without faces usually lack a material and are dropped
		if m.Faces == nil || len(m.Faces.Faces) == 0 {
			p.log.Info("skipping mesh without faces", zap.String("submesh", m.Name))
			continue
		}

		p.log.Info("mesh", zap.String("submesh", m.Name))

		sub := mesh.RawSubmesh{Name: m.Name}
		if err := p.parseVertexData(&sub, m.VertexData); err != nil {
			return err
		}
		if err := p.parseFaces(&sub, m.Faces); err != nil {
			return err
		}
		p.mesh.Submeshes = append(p.mesh.Submeshes, sub)
	}

	return nil
}

func (p *gfmdlParser) parseVertexData(sub *mesh.RawSubmesh, data *GFMDLVertexData) error {
	if data == nil {
		return nil
	}

	for _, attr := range data.Attrs {
		kind := mesh.ParseAttributeKind(attr.Usage)
		if kind == mesh.Unsupported {
			p.log.Info("skipping unsupported vertex attribute",
				zap.String("submesh", sub.Name), zap.String("usage", attr.Usage))
			continue
		}

		size, err := parseDeclaredCount(attr.Size)
		if err != nil {
			return &CorruptionError{Submesh: sub.Name, Stream: kind.String(), Reason: "Size " + err.Error()}
		}
		expected := size * kind.Components()

		p.log.Debug("vertex attribute",
			zap.String("submesh", sub.Name), zap.Stringer("usage", kind), zap.Int("size", size))

		values, skipped, err := DecodeFloats(attr.Text, p.opts.policy)
		if err != nil {
			return &CorruptionError{Submesh: sub.Name, Stream: kind.String(), Declared: expected, Reason: err.Error()}
		}
		if skipped > 0 {
			p.log.Warn("skipped malformed tokens",
				zap.String("submesh", sub.Name), zap.Stringer("usage", kind), zap.Int("count", skipped))
		}
		if len(values) != expected {
			return &CorruptionError{Submesh: sub.Name, Stream: kind.String(), Declared: expected, Decoded: len(values)}
		}

		if kind == mesh.UV {
			sub.UV = append(sub.UV, mesh.RawAttribute{Values: values})
			continue
		}
		ch, _ := kind.Channel()
		sub.AttributeFor(ch, 0).Values = values
	}

	return nil
}

func (p *gfmdlParser) parseFaces(sub *mesh.RawSubmesh, faces *GFMDLFaces) error {
	for _, face := range faces.Faces {
		count, err := parseDeclaredCount(face.IndexLength)
		if err != nil {
			return &CorruptionError{Submesh: sub.Name, Stream: "Face", Reason: "IndexLength " + err.Error()}
		}

		p.log.Debug("face group",
			zap.String("submesh", sub.Name), zap.String("material", face.Material), zap.Int("indices", count))

		for _, stream := range face.Streams {
			if err := p.parseIndexStream(sub, &stream, count); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *gfmdlParser) parseIndexStream(sub *mesh.RawSubmesh, stream *GFMDLIndexStream, count int) error {
	usage := mesh.ParseIndexUsage(stream.Usage)
	if usage == mesh.IndexUnsupported {
		p.log.Debug("skipping unsupported index stream",
			zap.String("submesh", sub.Name), zap.String("usage", stream.Usage))
		return nil
	}

	label := streamLabel(stream)

	indices, skipped, err := DecodeIndices(stream.Text, p.opts.policy)
	if err != nil {
		return &CorruptionError{Submesh: sub.Name, Stream: label, Declared: count, Reason: err.Error()}
	}
	if skipped > 0 {
		p.log.Warn("skipped malformed tokens",
			zap.String("submesh", sub.Name), zap.String("stream", label), zap.Int("count", skipped))
	}
	if len(indices) != count {
		return &CorruptionError{Submesh: sub.Name, Stream: label, Declared: count, Decoded: len(indices)}
	}

	uvSet := 0
	if usage == mesh.IndexUV {
		var ok bool
		uvSet, ok = uvSetFromName(stream.Name)
		if !ok || uvSet < 0 || uvSet >= len(sub.UV) {
			return &ReferenceError{Submesh: sub.Name, Stream: label, UVChannel: uvSet, Available: len(sub.UV)}
		}
	}

	// append copies, so channels sharing a stream never alias
	for _, ch := range usage.Targets() {
		slot := sub.AttributeFor(ch, uvSet)
		slot.Indices = append(slot.Indices, indices...)
	}
	return nil
}

// uvSetFromName maps the trailing UV map number of a stream name to a
// zero-based UV channel. Names without a number address the first map.
// A number too large to represent reports false.
func uvSetFromName(name string) (int, bool) {
	digits := trailingDigits(name)
	if digits == "" {
		return 0, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1, false
	}
	return n - 1, true
}

func streamLabel(stream *GFMDLIndexStream) string {
	if stream.Name == "" {
		return stream.Usage
	}
	return stream.Usage + " " + stream.Name
}
