package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tetrahedron() *Mesh {
	m := &Mesh{
		Vertices: []Vec3{
			{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1},
		},
		Faces: []Face{
			{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2},
		},
	}
	m.ComputeNormals()
	m.ComputeBounds()
	return m
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 32.0, a.Dot(b), 1e-12)

	cross := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	assert.Equal(t, Vec3{0, 0, 1}, cross)

	assert.InDelta(t, 1.0, Vec3{3, 4, 0}.Normalize().Norm(), 1e-12)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestComputeNormalsSingleTriangle(t *testing.T) {
	m := &Mesh{
		Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    []Face{{0, 1, 2}},
	}
	m.ComputeNormals()

	require.Len(t, m.Normals, 3)
	for _, n := range m.Normals {
		assert.InDelta(t, 0.0, n.X, 1e-12)
		assert.InDelta(t, 0.0, n.Y, 1e-12)
		assert.InDelta(t, 1.0, n.Z, 1e-12)
	}
}

func TestComputeNormalsIsolatedVertexFallback(t *testing.T) {
	m := &Mesh{
		Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}},
		Faces:    []Face{{0, 1, 2}},
	}
	m.ComputeNormals()
	assert.Equal(t, Vec3{0, 0, 1}, m.Normals[3])
}

func TestEulerCharacteristicTetrahedron(t *testing.T) {
	m := tetrahedron()
	assert.Equal(t, 6, m.EdgeCount())
	assert.Equal(t, 2, m.EulerCharacteristic())
}

func TestValidate(t *testing.T) {
	m := tetrahedron()
	require.NoError(t, m.Validate())

	bad := m.Clone()
	bad.Faces[0][1] = 99
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	short := m.Clone()
	short.Normals = short.Normals[:2]
	assert.Error(t, short.Validate())
}

func TestInputErrorIndexZeroReported(t *testing.T) {
	// A bad index in the first face must still name its position.
	bad := tetrahedron()
	bad.Faces[0][1] = 99
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(index 0)")

	// Errors without an offending element carry no index at all.
	assert.NotContains(t, NewInputError("density", "out of range").Error(), "index")
}

func TestAdjacencySortedAndComplete(t *testing.T) {
	m := tetrahedron()
	adj := m.Adjacency()
	require.Len(t, adj, 4)
	// Every tetrahedron vertex neighbors the other three, in order.
	assert.Equal(t, []int{1, 2, 3}, adj[0])
	assert.Equal(t, []int{0, 2, 3}, adj[1])
	assert.Equal(t, []int{0, 1, 3}, adj[2])
	assert.Equal(t, []int{0, 1, 2}, adj[3])
}

func TestComputeBounds(t *testing.T) {
	m := tetrahedron()
	assert.Equal(t, Vec3{-1, -1, -1}, m.Bounds.Min)
	assert.Equal(t, Vec3{1, 1, 1}, m.Bounds.Max)

	empty := &Mesh{}
	empty.ComputeBounds()
	assert.Equal(t, Box{}, empty.Bounds)
}

func TestCloneIsDeep(t *testing.T) {
	m := tetrahedron()
	c := m.Clone()
	c.Vertices[0] = Vec3{9, 9, 9}
	c.Faces[0][0] = 3
	assert.Equal(t, Vec3{1, 1, 1}, m.Vertices[0])
	assert.Equal(t, 0, m.Faces[0][0])
}
