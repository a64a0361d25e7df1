package export

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/models"
	"patternforge/pkg/geometry"
)

func testMesh() *models.Mesh {
	return geometry.Icosphere(0)
}

// requireSameGeometry checks vertex-count equality and positional
// round-trip fidelity within float32 precision.
func requireSameGeometry(t *testing.T, want, got *models.Mesh) {
	t.Helper()
	require.Equal(t, len(want.Vertices), len(got.Vertices))
	require.Equal(t, len(want.Faces), len(got.Faces))
	for i := range want.Vertices {
		assert.InDelta(t, want.Vertices[i].X, got.Vertices[i].X, 1e-4)
		assert.InDelta(t, want.Vertices[i].Y, got.Vertices[i].Y, 1e-4)
		assert.InDelta(t, want.Vertices[i].Z, got.Vertices[i].Z, 1e-4)
	}
}

func TestSTLBinaryExactSize(t *testing.T) {
	m := testMesh() // 12 vertices, 20 faces
	data, err := EncodeSTLBinary(m)
	require.NoError(t, err)

	assert.Equal(t, 80+4+20*50, len(data))
	assert.Equal(t, uint32(20), binary.LittleEndian.Uint32(data[80:]))
}

func TestSTLBinaryRoundTrip(t *testing.T) {
	m := testMesh()
	data, err := EncodeSTLBinary(m)
	require.NoError(t, err)

	back, err := DecodeSTLBinary(data)
	require.NoError(t, err)
	// Coincident corners merge back to the original vertex count. The
	// decoder assigns indices in face-traversal order, so compare shape
	// properties rather than positions.
	assert.Equal(t, len(m.Vertices), len(back.Vertices))
	assert.Equal(t, len(m.Faces), len(back.Faces))
	assert.Equal(t, 2, back.EulerCharacteristic())
	assert.InDelta(t, m.Bounds.Min.X, back.Bounds.Min.X, 1e-4)
	assert.InDelta(t, m.Bounds.Max.Z, back.Bounds.Max.Z, 1e-4)
}

func TestSTLBinaryRejectsTruncated(t *testing.T) {
	m := testMesh()
	data, _ := EncodeSTLBinary(m)

	_, err := DecodeSTLBinary(data[:60])
	assert.True(t, models.IsInputError(err))
	_, err = DecodeSTLBinary(data[:len(data)-10])
	assert.True(t, models.IsInputError(err))
}

func TestSTLASCIIRoundTrip(t *testing.T) {
	m := testMesh()
	data, err := EncodeSTLASCII(m)
	require.NoError(t, err)
	assert.Contains(t, string(data[:6]), "solid")

	back, err := DecodeSTLASCII(data)
	require.NoError(t, err)
	assert.Equal(t, len(m.Vertices), len(back.Vertices))
	assert.Equal(t, len(m.Faces), len(back.Faces))
	assert.Equal(t, 2, back.EulerCharacteristic())
}

func TestOBJRoundTrip(t *testing.T) {
	m := testMesh()
	data, err := EncodeOBJ(m)
	require.NoError(t, err)

	back, err := DecodeOBJ(data)
	require.NoError(t, err)
	requireSameGeometry(t, m, back)
	require.Len(t, back.Normals, len(m.Normals))
	for i := range m.Normals {
		assert.InDelta(t, m.Normals[i].X, back.Normals[i].X, 1e-9)
	}
}

func TestOBJDecodeErrors(t *testing.T) {
	_, err := DecodeOBJ([]byte("# empty\n"))
	assert.True(t, models.IsInputError(err))

	_, err = DecodeOBJ([]byte("v 0 0 0\nf 1 2 3\n"))
	assert.True(t, models.IsInputError(err), "face index out of range")

	_, err = DecodeOBJ([]byte("v 0 0 bogus\n"))
	assert.True(t, models.IsInputError(err))
}

func TestOBJNegativeIndicesAndFans(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf -4 -3 -2 -1\n"
	m, err := DecodeOBJ([]byte(src))
	require.NoError(t, err)
	assert.Len(t, m.Faces, 2) // quad fanned into two triangles
}

func TestGLTFRoundTrip(t *testing.T) {
	m := testMesh()
	data, err := EncodeGLTF(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":"2.0"`)

	back, err := DecodeGLTF(data)
	require.NoError(t, err)
	requireSameGeometry(t, m, back)
}

func TestGLBLayout(t *testing.T) {
	m := testMesh()
	data, err := EncodeGLB(m)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(data), 12)
	assert.Equal(t, uint32(glbMagic), binary.LittleEndian.Uint32(data))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[8:]))
	assert.Equal(t, uint32(glbChunkJSON), binary.LittleEndian.Uint32(data[16:]))
	// Both chunks are 4-byte aligned.
	assert.Zero(t, binary.LittleEndian.Uint32(data[12:])%4)
	assert.Zero(t, len(data)%4)
}

func TestGLBRoundTrip(t *testing.T) {
	m := testMesh()
	data, err := EncodeGLB(m)
	require.NoError(t, err)

	back, err := DecodeGLB(data)
	require.NoError(t, err)
	requireSameGeometry(t, m, back)
}

func TestGLBRejectsGarbage(t *testing.T) {
	_, err := DecodeGLB([]byte("not a glb"))
	assert.True(t, models.IsInputError(err))
}

func TestEncodeDispatch(t *testing.T) {
	m := testMesh()
	for _, format := range []models.ExportFormat{
		models.FormatSTLBinary, models.FormatSTLASCII, models.FormatOBJ,
		models.FormatGLTF, models.FormatGLB,
	} {
		artifact, err := Encode(m, format)
		require.NoError(t, err, format)
		assert.Equal(t, format, artifact.Format)
		assert.Greater(t, artifact.Len(), 0)

		back, err := Decode(artifact)
		require.NoError(t, err, format)
		assert.Equal(t, len(m.Faces), len(back.Faces), format)
	}

	_, err := Encode(m, models.ExportFormat("dxf"))
	assert.True(t, models.IsInputError(err))

	_, err = Decode(&models.ExportArtifact{Format: "dxf", Data: []byte("x")})
	assert.True(t, models.IsInputError(err))

	_, err = Decode(nil)
	assert.True(t, models.IsInputError(err))
}

func TestEncodeRejectsEmptyMesh(t *testing.T) {
	_, err := Encode(&models.Mesh{}, models.FormatSTLBinary)
	assert.True(t, models.IsInputError(err))
}

func TestFormatForExtension(t *testing.T) {
	f, err := FormatForExtension(".stl")
	require.NoError(t, err)
	assert.Equal(t, models.FormatSTLBinary, f)

	f, err = FormatForExtension("glb")
	require.NoError(t, err)
	assert.Equal(t, models.FormatGLB, f)

	_, err = FormatForExtension(".step")
	assert.True(t, models.IsInputError(err))
}
