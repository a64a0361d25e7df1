package models

import (
	"math"
	"sort"
)

// Vec3 is a 3D vector. Value semantics keep meshes cheaply copyable.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Face is a triangle as three vertex indices, counter-clockwise when
// viewed from outside the surface.
type Face [3]int

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// Mesh is a triangle mesh: vertices, index-aligned per-vertex normals,
// faces, and a bounding box. Produced wholesale by the geometry generator;
// transform passes yield new Mesh values rather than mutating in place.
type Mesh struct {
	Vertices []Vec3
	Normals  []Vec3
	Faces    []Face
	Bounds   Box
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]Vec3, len(m.Vertices)),
		Normals:  make([]Vec3, len(m.Normals)),
		Faces:    make([]Face, len(m.Faces)),
		Bounds:   m.Bounds,
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Normals, m.Normals)
	copy(c.Faces, m.Faces)
	return c
}

// ComputeBounds recomputes the axis-aligned bounding box from the vertices.
func (m *Mesh) ComputeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Box{}
		return
	}
	min, max := m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	m.Bounds = Box{Min: min, Max: max}
}

// ComputeNormals synthesizes per-vertex normals by averaging the normals
// of adjacent faces, then normalizing. Vertices with no adjacent face get
// a zero-length normal replaced by +Z so every normal stays finite.
func (m *Mesh) ComputeNormals() {
	normals := make([]Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		fn := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, idx := range f {
			normals[idx] = normals[idx].Add(fn)
		}
	}
	for i := range normals {
		n := normals[i].Normalize()
		if n.Norm() == 0 {
			n = Vec3{0, 0, 1}
		}
		normals[i] = n
	}
	m.Normals = normals
}

// EdgeCount returns the number of unique undirected edges.
func (m *Mesh) EdgeCount() int {
	type edge [2]int
	seen := make(map[edge]struct{}, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			seen[edge{a, b}] = struct{}{}
		}
	}
	return len(seen)
}

// EulerCharacteristic returns V - E + F, the cheap topology check:
// 2 for a closed genus-0 surface, 0 for genus-1.
func (m *Mesh) EulerCharacteristic() int {
	return len(m.Vertices) - m.EdgeCount() + len(m.Faces)
}

// Validate reports whether every face index is a valid vertex index and
// every normal is finite and index-aligned with the vertices.
func (m *Mesh) Validate() error {
	if len(m.Normals) != len(m.Vertices) {
		return &InputError{Field: "mesh", Reason: "normals not index-aligned with vertices", Index: -1}
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return &InputError{Field: "mesh", Reason: "face index out of range", Index: i}
			}
		}
	}
	for i, n := range m.Normals {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) ||
			math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) || math.IsInf(n.Z, 0) {
			return &InputError{Field: "mesh", Reason: "non-finite normal", Index: i}
		}
	}
	return nil
}

// Adjacency returns, for each vertex, the sorted indices of its neighbors
// across all faces. Built as an explicit index structure so smoothing and
// subdivision never need object graphs with back-references.
func (m *Mesh) Adjacency() [][]int {
	sets := make([]map[int]struct{}, len(m.Vertices))
	for i := range sets {
		sets[i] = make(map[int]struct{})
	}
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if i != j {
					sets[f[i]][f[j]] = struct{}{}
				}
			}
		}
	}
	adj := make([][]int, len(m.Vertices))
	for i, s := range sets {
		nbrs := make([]int, 0, len(s))
		for v := range s {
			nbrs = append(nbrs, v)
		}
		// Deterministic order for reproducible smoothing sums.
		sort.Ints(nbrs)
		adj[i] = nbrs
	}
	return adj
}
