package export

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"patternforge/internal/models"
)

// EncodeOBJ serializes the mesh as Wavefront OBJ with per-vertex normals.
// Faces reference vertices and normals with the 1-based v//vn syntax.
func EncodeOBJ(m *models.Mesh) ([]byte, error) {
	if err := validateMesh(m); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("# patternforge mesh\n")
	fmt.Fprintf(&b, "# %d vertices, %d faces\n", len(m.Vertices), len(m.Faces))
	for _, v := range m.Vertices {
		fmt.Fprintf(&b, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, n := range m.Normals {
		fmt.Fprintf(&b, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for _, f := range m.Faces {
		fmt.Fprintf(&b, "f %d//%d %d//%d %d//%d\n",
			f[0]+1, f[0]+1, f[1]+1, f[1]+1, f[2]+1, f[2]+1)
	}
	return []byte(b.String()), nil
}

// DecodeOBJ parses Wavefront OBJ geometry: v, vn, and triangular f
// records. Faces with more than three vertices are fanned into triangles;
// texture and material records are ignored.
func DecodeOBJ(data []byte) (*models.Mesh, error) {
	mesh := &models.Mesh{}
	var normals []models.Vec3

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVec(fields[1:], line)
			if err != nil {
				return nil, err
			}
			mesh.Vertices = append(mesh.Vertices, v)
		case "vn":
			n, err := parseVec(fields[1:], line)
			if err != nil {
				return nil, err
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, models.NewInputError("obj", "face with %d vertices on line %d", len(fields)-1, line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := parseFaceRef(ref, len(mesh.Vertices), line)
				if err != nil {
					return nil, err
				}
				idx = append(idx, i)
			}
			for i := 1; i < len(idx)-1; i++ {
				mesh.Faces = append(mesh.Faces, models.Face{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning obj: %w", err)
	}
	if len(mesh.Vertices) == 0 || len(mesh.Faces) == 0 {
		return nil, models.NewInputError("obj", "no geometry records found")
	}
	if len(normals) == len(mesh.Vertices) {
		mesh.Normals = normals
		mesh.ComputeBounds()
	} else {
		finishDecoded(mesh)
	}
	return mesh, nil
}

func parseVec(fields []string, line int) (models.Vec3, error) {
	if len(fields) < 3 {
		return models.Vec3{}, models.NewInputError("obj", "short vector record on line %d", line)
	}
	var v models.Vec3
	var err error
	if v.X, err = strconv.ParseFloat(fields[0], 64); err == nil {
		if v.Y, err = strconv.ParseFloat(fields[1], 64); err == nil {
			v.Z, err = strconv.ParseFloat(fields[2], 64)
		}
	}
	if err != nil {
		return models.Vec3{}, models.NewInputError("obj", "bad vector on line %d: %v", line, err)
	}
	return v, nil
}

// parseFaceRef resolves one face vertex reference (v, v/vt, v//vn, or
// v/vt/vn) to a zero-based vertex index. Negative references count back
// from the end of the vertex list.
func parseFaceRef(ref string, vertexCount, line int) (int, error) {
	part := ref
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		part = ref[:i]
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, models.NewInputError("obj", "bad face reference %q on line %d", ref, line)
	}
	if n < 0 {
		n = vertexCount + n + 1
	}
	if n < 1 || n > vertexCount {
		return 0, models.NewInputError("obj", "face reference %d out of range on line %d", n, line)
	}
	return n - 1, nil
}
