// Package export serializes meshes to the supported interchange formats
// and decodes them back, for round-trip verification and downstream
// tooling.
package export

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"patternforge/internal/models"
)

// stlHeaderSize and stlTriangleSize are the fixed binary STL record
// sizes: an 80-byte header, a uint32 triangle count, then 50 bytes per
// triangle (normal, three vertices, attribute word).
const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// EncodeSTLBinary serializes the mesh as little-endian binary STL. Face
// normals are recomputed from the triangle winding; per-vertex normals do
// not survive this format.
func EncodeSTLBinary(m *models.Mesh) ([]byte, error) {
	if err := validateMesh(m); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, stlHeaderSize+4+len(m.Faces)*stlTriangleSize))

	header := make([]byte, stlHeaderSize)
	copy(header, "patternforge binary STL")
	buf.Write(header)
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Faces)))

	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := faceNormal(v0, v1, v2)
		writeVec32(buf, n)
		writeVec32(buf, v0)
		writeVec32(buf, v1)
		writeVec32(buf, v2)
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes(), nil
}

// DecodeSTLBinary parses binary STL, merging exactly coincident vertices
// in first-seen order so a mesh round-trips to its original vertex count.
func DecodeSTLBinary(data []byte) (*models.Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, models.NewInputError("stl", "truncated file: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	want := stlHeaderSize + 4 + int(count)*stlTriangleSize
	if len(data) < want {
		return nil, models.NewInputError("stl", "truncated body: have %d bytes, need %d", len(data), want)
	}

	merge := newVertexMerger()
	mesh := &models.Mesh{}
	off := stlHeaderSize + 4
	for t := 0; t < int(count); t++ {
		rec := data[off+t*stlTriangleSize:]
		var face models.Face
		for i := 0; i < 3; i++ {
			v := readVec32(rec[12+i*12:])
			face[i] = merge.index(mesh, v)
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	finishDecoded(mesh)
	return mesh, nil
}

// EncodeSTLASCII serializes the mesh in the text STL dialect.
func EncodeSTLASCII(m *models.Mesh) ([]byte, error) {
	if err := validateMesh(m); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("solid patternforge\n")
	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := faceNormal(v0, v1, v2)
		fmt.Fprintf(&b, "  facet normal %e %e %e\n", n.X, n.Y, n.Z)
		b.WriteString("    outer loop\n")
		for _, v := range []models.Vec3{v0, v1, v2} {
			fmt.Fprintf(&b, "      vertex %e %e %e\n", v.X, v.Y, v.Z)
		}
		b.WriteString("    endloop\n")
		b.WriteString("  endfacet\n")
	}
	b.WriteString("endsolid patternforge\n")
	return []byte(b.String()), nil
}

// DecodeSTLASCII parses text STL with the same vertex merging as the
// binary decoder.
func DecodeSTLASCII(data []byte) (*models.Mesh, error) {
	merge := newVertexMerger()
	mesh := &models.Mesh{}
	var tri []models.Vec3

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, models.NewInputError("stl", "malformed vertex on line %d", line)
			}
			var v models.Vec3
			if _, err := fmt.Sscanf(fields[1]+" "+fields[2]+" "+fields[3], "%g %g %g", &v.X, &v.Y, &v.Z); err != nil {
				return nil, models.NewInputError("stl", "bad vertex on line %d: %v", line, err)
			}
			tri = append(tri, v)
		case "endfacet":
			if len(tri) != 3 {
				return nil, models.NewInputError("stl", "facet with %d vertices before line %d", len(tri), line)
			}
			var face models.Face
			for i, v := range tri {
				face[i] = merge.index(mesh, v)
			}
			mesh.Faces = append(mesh.Faces, face)
			tri = tri[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning stl: %w", err)
	}
	finishDecoded(mesh)
	return mesh, nil
}

// vertexMerger deduplicates exactly equal positions, assigning indices in
// first-seen order.
type vertexMerger struct {
	seen map[models.Vec3]int
}

func newVertexMerger() *vertexMerger {
	return &vertexMerger{seen: make(map[models.Vec3]int)}
}

func (vm *vertexMerger) index(m *models.Mesh, v models.Vec3) int {
	if i, ok := vm.seen[v]; ok {
		return i
	}
	i := len(m.Vertices)
	m.Vertices = append(m.Vertices, v)
	vm.seen[v] = i
	return i
}

func faceNormal(v0, v1, v2 models.Vec3) models.Vec3 {
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

func writeVec32(buf *bytes.Buffer, v models.Vec3) {
	binary.Write(buf, binary.LittleEndian, float32(v.X))
	binary.Write(buf, binary.LittleEndian, float32(v.Y))
	binary.Write(buf, binary.LittleEndian, float32(v.Z))
}

func readVec32(b []byte) models.Vec3 {
	return models.Vec3{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}

func validateMesh(m *models.Mesh) error {
	if m == nil || len(m.Faces) == 0 {
		return models.NewInputError("mesh", "no faces to export")
	}
	return m.Validate()
}

// finishDecoded rebuilds the derived state a codec cannot carry.
func finishDecoded(m *models.Mesh) {
	m.ComputeNormals()
	m.ComputeBounds()
}
