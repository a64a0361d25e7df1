package export

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"patternforge/internal/models"
)

// glTF 2.0 constants.
const (
	gltfVersion = "2.0"

	componentFloat  = 5126
	componentUint32 = 5125
	componentUint16 = 5123

	targetArrayBuffer        = 34962
	targetElementArrayBuffer = 34963

	glbMagic     = 0x46546C67 // "glTF"
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"

	base64Prefix = "data:application/octet-stream;base64,"
)

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []gltfScene      `json:"scenes"`
	Nodes       []gltfNode       `json:"nodes"`
	Meshes      []gltfMesh       `json:"meshes"`
	Accessors   []gltfAccessor   `json:"accessors"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Buffers     []gltfBuffer     `json:"buffers"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Mesh int    `json:"mesh"`
	Name string `json:"name,omitempty"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

type gltfBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri,omitempty"`
}

// buildGLTF lays out the binary buffer (indices, positions, normals, each
// 4-byte aligned) and the document describing it.
func buildGLTF(m *models.Mesh) (*gltfDocument, []byte, error) {
	if err := validateMesh(m); err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	for _, f := range m.Faces {
		for _, idx := range f {
			binary.Write(&buf, binary.LittleEndian, uint32(idx))
		}
	}
	indexLen := buf.Len()

	posOffset := buf.Len()
	for _, v := range m.Vertices {
		writeVec32(&buf, v)
	}
	posLen := buf.Len() - posOffset

	normOffset := buf.Len()
	for _, n := range m.Normals {
		writeVec32(&buf, n)
	}
	normLen := buf.Len() - normOffset

	doc := &gltfDocument{
		Asset:  gltfAsset{Version: gltfVersion, Generator: "patternforge"},
		Scene:  0,
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Mesh: 0, Name: "pattern"}},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 1, "NORMAL": 2},
			Indices:    0,
		}}}},
		Accessors: []gltfAccessor{
			{BufferView: 0, ComponentType: componentUint32, Count: len(m.Faces) * 3, Type: "SCALAR"},
			{
				BufferView: 1, ComponentType: componentFloat, Count: len(m.Vertices), Type: "VEC3",
				Min: []float64{m.Bounds.Min.X, m.Bounds.Min.Y, m.Bounds.Min.Z},
				Max: []float64{m.Bounds.Max.X, m.Bounds.Max.Y, m.Bounds.Max.Z},
			},
			{BufferView: 2, ComponentType: componentFloat, Count: len(m.Normals), Type: "VEC3"},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: indexLen, Target: targetElementArrayBuffer},
			{Buffer: 0, ByteOffset: posOffset, ByteLength: posLen, Target: targetArrayBuffer},
			{Buffer: 0, ByteOffset: normOffset, ByteLength: normLen, Target: targetArrayBuffer},
		},
		Buffers: []gltfBuffer{{ByteLength: buf.Len()}},
	}
	return doc, buf.Bytes(), nil
}

// EncodeGLTF serializes the mesh as a self-contained .gltf JSON document
// with the binary buffer embedded as a base64 data URI.
func EncodeGLTF(m *models.Mesh) ([]byte, error) {
	doc, bin, err := buildGLTF(m)
	if err != nil {
		return nil, err
	}
	doc.Buffers[0].URI = base64Prefix + base64.StdEncoding.EncodeToString(bin)
	return json.Marshal(doc)
}

// EncodeGLB serializes the mesh as binary glTF: a 12-byte header, the
// JSON chunk padded with spaces, and the binary chunk padded with zeros.
func EncodeGLB(m *models.Mesh) ([]byte, error) {
	doc, bin, err := buildGLTF(m)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	jsonBytes = pad(jsonBytes, ' ')
	bin = pad(bin, 0)

	total := 12 + 8 + len(jsonBytes) + 8 + len(bin)
	var out bytes.Buffer
	out.Grow(total)
	binary.Write(&out, binary.LittleEndian, uint32(glbMagic))
	binary.Write(&out, binary.LittleEndian, uint32(2))
	binary.Write(&out, binary.LittleEndian, uint32(total))
	binary.Write(&out, binary.LittleEndian, uint32(len(jsonBytes)))
	binary.Write(&out, binary.LittleEndian, uint32(glbChunkJSON))
	out.Write(jsonBytes)
	binary.Write(&out, binary.LittleEndian, uint32(len(bin)))
	binary.Write(&out, binary.LittleEndian, uint32(glbChunkBIN))
	out.Write(bin)
	return out.Bytes(), nil
}

func pad(b []byte, fill byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, fill)
	}
	return b
}

// DecodeGLTF parses a .gltf document with an embedded data-URI buffer and
// rebuilds the first primitive of the first mesh.
func DecodeGLTF(data []byte) (*models.Mesh, error) {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewInputError("gltf", "malformed JSON: %v", err)
	}
	if len(doc.Buffers) == 0 {
		return nil, models.NewInputError("gltf", "no buffers")
	}
	uri := doc.Buffers[0].URI
	if !strings.HasPrefix(uri, base64Prefix) {
		return nil, models.NewInputError("gltf", "buffer is not an embedded data URI")
	}
	bin, err := base64.StdEncoding.DecodeString(uri[len(base64Prefix):])
	if err != nil {
		return nil, models.NewInputError("gltf", "bad buffer encoding: %v", err)
	}
	return meshFromGLTF(&doc, bin)
}

// DecodeGLB parses binary glTF, splitting the JSON and BIN chunks before
// rebuilding the mesh.
func DecodeGLB(data []byte) (*models.Mesh, error) {
	if len(data) < 12 {
		return nil, models.NewInputError("glb", "truncated header")
	}
	if binary.LittleEndian.Uint32(data) != glbMagic {
		return nil, models.NewInputError("glb", "bad magic")
	}
	var jsonChunk, binChunk []byte
	off := 12
	for off+8 <= len(data) {
		length := int(binary.LittleEndian.Uint32(data[off:]))
		kind := binary.LittleEndian.Uint32(data[off+4:])
		off += 8
		if off+length > len(data) {
			return nil, models.NewInputError("glb", "truncated chunk")
		}
		switch kind {
		case glbChunkJSON:
			jsonChunk = data[off : off+length]
		case glbChunkBIN:
			binChunk = data[off : off+length]
		}
		off += length
	}
	if jsonChunk == nil {
		return nil, models.NewInputError("glb", "missing JSON chunk")
	}
	var doc gltfDocument
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, models.NewInputError("glb", "malformed JSON chunk: %v", err)
	}
	return meshFromGLTF(&doc, binChunk)
}

// meshFromGLTF reads the first primitive's indices, positions, and
// normals out of the binary buffer.
func meshFromGLTF(doc *gltfDocument, bin []byte) (*models.Mesh, error) {
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return nil, models.NewInputError("gltf", "no mesh primitives")
	}
	prim := doc.Meshes[0].Primitives[0]
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, models.NewInputError("gltf", "primitive has no POSITION attribute")
	}

	mesh := &models.Mesh{}
	positions, err := readVec3Accessor(doc, bin, posIdx)
	if err != nil {
		return nil, err
	}
	mesh.Vertices = positions

	if normIdx, ok := prim.Attributes["NORMAL"]; ok {
		if mesh.Normals, err = readVec3Accessor(doc, bin, normIdx); err != nil {
			return nil, err
		}
	}

	indices, err := readIndexAccessor(doc, bin, prim.Indices)
	if err != nil {
		return nil, err
	}
	if len(indices)%3 != 0 {
		return nil, models.NewInputError("gltf", "index count %d not a multiple of 3", len(indices))
	}
	for i := 0; i < len(indices); i += 3 {
		mesh.Faces = append(mesh.Faces, models.Face{indices[i], indices[i+1], indices[i+2]})
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		mesh.ComputeNormals()
	}
	mesh.ComputeBounds()
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("decoded mesh invalid: %w", err)
	}
	return mesh, nil
}

func accessorBytes(doc *gltfDocument, bin []byte, idx int) (gltfAccessor, []byte, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return gltfAccessor{}, nil, models.NewInputError("gltf", "accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView < 0 || acc.BufferView >= len(doc.BufferViews) {
		return gltfAccessor{}, nil, models.NewInputError("gltf", "buffer view %d out of range", acc.BufferView)
	}
	view := doc.BufferViews[acc.BufferView]
	end := view.ByteOffset + view.ByteLength
	if view.ByteOffset < 0 || end > len(bin) {
		return gltfAccessor{}, nil, models.NewInputError("gltf", "buffer view [%d, %d) outside buffer of %d bytes", view.ByteOffset, end, len(bin))
	}
	return acc, bin[view.ByteOffset:end], nil
}

func readVec3Accessor(doc *gltfDocument, bin []byte, idx int) ([]models.Vec3, error) {
	acc, data, err := accessorBytes(doc, bin, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != "VEC3" || acc.ComponentType != componentFloat {
		return nil, models.NewInputError("gltf", "accessor %d is not a float VEC3", idx)
	}
	if acc.Count*12 > len(data) {
		return nil, models.NewInputError("gltf", "accessor %d overruns its view", idx)
	}
	out := make([]models.Vec3, acc.Count)
	for i := range out {
		out[i] = readVec32(data[i*12:])
	}
	return out, nil
}

func readIndexAccessor(doc *gltfDocument, bin []byte, idx int) ([]int, error) {
	acc, data, err := accessorBytes(doc, bin, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != "SCALAR" {
		return nil, models.NewInputError("gltf", "index accessor %d is not SCALAR", idx)
	}
	out := make([]int, acc.Count)
	switch acc.ComponentType {
	case componentUint32:
		if acc.Count*4 > len(data) {
			return nil, models.NewInputError("gltf", "index accessor %d overruns its view", idx)
		}
		for i := range out {
			out[i] = int(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case componentUint16:
		if acc.Count*2 > len(data) {
			return nil, models.NewInputError("gltf", "index accessor %d overruns its view", idx)
		}
		for i := range out {
			out[i] = int(binary.LittleEndian.Uint16(data[i*2:]))
		}
	default:
		return nil, models.NewInputError("gltf", "unsupported index component type %d", acc.ComponentType)
	}
	return out, nil
}
