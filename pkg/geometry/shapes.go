// Package geometry synthesizes parameterized triangle meshes from
// classified patterns and their point sets, and provides the transform
// passes (subdivision, smoothing, twist, taper, bend, extrusion,
// hollowing, decimation) applied on top of the base shapes.
package geometry

import (
	"math"

	"patternforge/internal/models"
)

// Icosphere returns a unit sphere built by recursive midpoint subdivision
// of an icosahedron. level 0 is the raw icosahedron (12 vertices, 20
// faces); each level quadruples the face count.
func Icosphere(level int) *models.Mesh {
	t := (1 + math.Sqrt(5)) / 2
	verts := []models.Vec3{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}
	faces := []models.Face{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for l := 0; l < level; l++ {
		cache := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if idx, ok := cache[key]; ok {
				return idx
			}
			mid := verts[a].Add(verts[b]).Scale(0.5).Normalize()
			verts = append(verts, mid)
			cache[key] = len(verts) - 1
			return len(verts) - 1
		}
		next := make([]models.Face, 0, len(faces)*4)
		for _, f := range faces {
			a := midpoint(f[0], f[1])
			b := midpoint(f[1], f[2])
			c := midpoint(f[2], f[0])
			next = append(next,
				models.Face{f[0], a, c},
				models.Face{f[1], b, a},
				models.Face{f[2], c, b},
				models.Face{a, b, c})
		}
		faces = next
	}

	m := &models.Mesh{Vertices: verts, Faces: faces}
	finish(m)
	return m
}

// Sphere returns an icosphere scaled to the given radius.
func Sphere(radius float64, level int) *models.Mesh {
	return Ellipsoid(radius, radius, radius, level)
}

// Ellipsoid returns an icosphere with per-axis radii.
func Ellipsoid(rx, ry, rz float64, level int) *models.Mesh {
	m := Icosphere(level)
	for i, v := range m.Vertices {
		m.Vertices[i] = models.Vec3{X: v.X * rx, Y: v.Y * ry, Z: v.Z * rz}
	}
	finish(m)
	return m
}

// Torus returns a ring torus in the XY plane with segU segments around
// the main ring and segV around the tube.
func Torus(majorR, minorR float64, segU, segV int) *models.Mesh {
	return torusMesh(majorR, minorR, segU, segV, 0)
}

// TwistedTorus returns a torus whose tube cross-section rotates by
// twist full phases over one trip around the ring, giving the surface a
// screwed appearance while keeping genus-1 topology.
func TwistedTorus(majorR, minorR float64, segU, segV int, twist float64) *models.Mesh {
	return torusMesh(majorR, minorR, segU, segV, twist)
}

func torusMesh(majorR, minorR float64, segU, segV int, twist float64) *models.Mesh {
	m := &models.Mesh{}
	for u := 0; u < segU; u++ {
		theta := 2 * math.Pi * float64(u) / float64(segU)
		phase := twist * theta
		for v := 0; v < segV; v++ {
			phi := 2*math.Pi*float64(v)/float64(segV) + phase
			r := majorR + minorR*math.Cos(phi)
			m.Vertices = append(m.Vertices, models.Vec3{
				X: r * math.Cos(theta),
				Y: r * math.Sin(theta),
				Z: minorR * math.Sin(phi),
			})
		}
	}
	for u := 0; u < segU; u++ {
		for v := 0; v < segV; v++ {
			a := u*segV + v
			b := u*segV + (v+1)%segV
			c := ((u+1)%segU)*segV + v
			d := ((u+1)%segU)*segV + (v+1)%segV
			m.Faces = append(m.Faces, models.Face{a, c, b}, models.Face{b, c, d})
		}
	}
	finish(m)
	return m
}

// HelixTube sweeps a circular tube along a helical path: turns full
// revolutions climbing to height, capped at both ends.
func HelixTube(helixR, tubeR, height float64, turns float64, segPath, segRing int) *models.Mesh {
	m := &models.Mesh{}
	// Path frames with tangent-orthogonal rings.
	for i := 0; i <= segPath; i++ {
		t := float64(i) / float64(segPath)
		theta := 2 * math.Pi * turns * t
		center := models.Vec3{
			X: helixR * math.Cos(theta),
			Y: helixR * math.Sin(theta),
			Z: height * (t - 0.5),
		}
		tangent := models.Vec3{
			X: -helixR * math.Sin(theta) * 2 * math.Pi * turns,
			Y: helixR * math.Cos(theta) * 2 * math.Pi * turns,
			Z: height,
		}.Normalize()
		normal := models.Vec3{X: math.Cos(theta), Y: math.Sin(theta)}
		binormal := tangent.Cross(normal).Normalize()
		normal = binormal.Cross(tangent).Normalize()
		for j := 0; j < segRing; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segRing)
			offset := normal.Scale(tubeR * math.Cos(phi)).Add(binormal.Scale(tubeR * math.Sin(phi)))
			m.Vertices = append(m.Vertices, center.Add(offset))
		}
	}
	for i := 0; i < segPath; i++ {
		for j := 0; j < segRing; j++ {
			a := i*segRing + j
			b := i*segRing + (j+1)%segRing
			c := (i+1)*segRing + j
			d := (i+1)*segRing + (j+1)%segRing
			m.Faces = append(m.Faces, models.Face{a, c, b}, models.Face{b, c, d})
		}
	}
	// End caps: fan from the ring to its center.
	startCenter := ringCenter(m.Vertices[:segRing])
	endRing := m.Vertices[segPath*segRing:]
	endCenter := ringCenter(endRing)
	si := len(m.Vertices)
	m.Vertices = append(m.Vertices, startCenter, endCenter)
	for j := 0; j < segRing; j++ {
		m.Faces = append(m.Faces, models.Face{si, (j + 1) % segRing, j})
		a := segPath*segRing + j
		b := segPath*segRing + (j+1)%segRing
		m.Faces = append(m.Faces, models.Face{si + 1, a, b})
	}
	finish(m)
	return m
}

func ringCenter(ring []models.Vec3) models.Vec3 {
	var c models.Vec3
	for _, v := range ring {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(ring)))
}

// Prism returns a closed right prism with a regular n-gon cross-section
// centered on the origin, axis along Z.
func Prism(sides int, radius, height float64) *models.Mesh {
	m := &models.Mesh{}
	half := height / 2
	for _, z := range []float64{-half, half} {
		for i := 0; i < sides; i++ {
			theta := 2 * math.Pi * float64(i) / float64(sides)
			m.Vertices = append(m.Vertices, models.Vec3{
				X: radius * math.Cos(theta),
				Y: radius * math.Sin(theta),
				Z: z,
			})
		}
	}
	bottomCenter := len(m.Vertices)
	m.Vertices = append(m.Vertices,
		models.Vec3{Z: -half},
		models.Vec3{Z: half})
	topCenter := bottomCenter + 1

	for i := 0; i < sides; i++ {
		j := (i + 1) % sides
		b0, b1 := i, j
		t0, t1 := sides+i, sides+j
		m.Faces = append(m.Faces,
			models.Face{b0, b1, t1},
			models.Face{b0, t1, t0},
			models.Face{bottomCenter, b1, b0},
			models.Face{topCenter, t0, t1})
	}
	finish(m)
	return m
}

// HexagonalPrism is a six-sided Prism.
func HexagonalPrism(radius, height float64) *models.Mesh {
	return Prism(6, radius, height)
}

// Cuboid returns an axis-aligned box centered on the origin.
func Cuboid(sx, sy, sz float64) *models.Mesh {
	hx, hy, hz := sx/2, sy/2, sz/2
	verts := []models.Vec3{
		{X: -hx, Y: -hy, Z: -hz}, {X: hx, Y: -hy, Z: -hz}, {X: hx, Y: hy, Z: -hz}, {X: -hx, Y: hy, Z: -hz},
		{X: -hx, Y: -hy, Z: hz}, {X: hx, Y: -hy, Z: hz}, {X: hx, Y: hy, Z: hz}, {X: -hx, Y: hy, Z: hz},
	}
	faces := []models.Face{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{3, 0, 4}, {3, 4, 7}, // left
	}
	m := &models.Mesh{Vertices: verts, Faces: faces}
	finish(m)
	return m
}

// Cube is a Cuboid with equal sides.
func Cube(size float64) *models.Mesh {
	return Cuboid(size, size, size)
}

// Pyramid returns a closed pyramid with a regular n-gon base in the
// Z=-height/2 plane and apex above the base centroid.
func Pyramid(sides int, radius, height float64) *models.Mesh {
	m := &models.Mesh{}
	half := height / 2
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / float64(sides)
		m.Vertices = append(m.Vertices, models.Vec3{
			X: radius * math.Cos(theta),
			Y: radius * math.Sin(theta),
			Z: -half,
		})
	}
	apex := len(m.Vertices)
	base := apex + 1
	m.Vertices = append(m.Vertices,
		models.Vec3{Z: half},
		models.Vec3{Z: -half})
	for i := 0; i < sides; i++ {
		j := (i + 1) % sides
		m.Faces = append(m.Faces,
			models.Face{apex, i, j},
			models.Face{base, j, i})
	}
	finish(m)
	return m
}

// Cone is a high-side-count Pyramid.
func Cone(radius, height float64) *models.Mesh {
	return Pyramid(32, radius, height)
}

// finish recomputes derived mesh state after construction or transform.
func finish(m *models.Mesh) {
	m.ComputeNormals()
	m.ComputeBounds()
}
