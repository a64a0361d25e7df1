package geometry

import (
	"math"
	"sort"

	"patternforge/internal/models"
)

// smoothingLambda is the Laplacian step size per smoothing iteration.
const smoothingLambda = 0.5

// Subdivide applies recursive midpoint quadrisection: each level splits
// every triangle into four, sharing midpoints across adjacent faces so
// the surface stays watertight and the Euler characteristic is preserved.
func Subdivide(m *models.Mesh, levels int) *models.Mesh {
	out := m.Clone()
	for l := 0; l < levels; l++ {
		cache := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if idx, ok := cache[key]; ok {
				return idx
			}
			mid := out.Vertices[a].Add(out.Vertices[b]).Scale(0.5)
			out.Vertices = append(out.Vertices, mid)
			cache[key] = len(out.Vertices) - 1
			return len(out.Vertices) - 1
		}
		next := make([]models.Face, 0, len(out.Faces)*4)
		for _, f := range out.Faces {
			a := midpoint(f[0], f[1])
			b := midpoint(f[1], f[2])
			c := midpoint(f[2], f[0])
			next = append(next,
				models.Face{f[0], a, c},
				models.Face{f[1], b, a},
				models.Face{f[2], c, b},
				models.Face{a, b, c})
		}
		out.Faces = next
	}
	finish(out)
	return out
}

// Smooth applies Laplacian smoothing: each iteration moves every vertex
// toward the mean of its neighbors by a fixed step. Vertices without
// neighbors stay put. Zero iterations returns an unchanged copy.
func Smooth(m *models.Mesh, iterations int) *models.Mesh {
	out := m.Clone()
	if iterations <= 0 || len(out.Vertices) == 0 {
		return out
	}
	adj := out.Adjacency()
	for it := 0; it < iterations; it++ {
		next := make([]models.Vec3, len(out.Vertices))
		for i, v := range out.Vertices {
			nbrs := adj[i]
			if len(nbrs) == 0 {
				next[i] = v
				continue
			}
			var mean models.Vec3
			for _, n := range nbrs {
				mean = mean.Add(out.Vertices[n])
			}
			mean = mean.Scale(1 / float64(len(nbrs)))
			next[i] = v.Add(mean.Sub(v).Scale(smoothingLambda))
		}
		out.Vertices = next
	}
	finish(out)
	return out
}

// Twist rotates vertices about the Z axis proportionally to their height:
// angle radians per unit Z relative to the mesh center.
func Twist(m *models.Mesh, angle float64) *models.Mesh {
	out := m.Clone()
	if angle == 0 {
		return out
	}
	midZ := (out.Bounds.Min.Z + out.Bounds.Max.Z) / 2
	for i, v := range out.Vertices {
		theta := angle * (v.Z - midZ)
		c, s := math.Cos(theta), math.Sin(theta)
		out.Vertices[i] = models.Vec3{
			X: v.X*c - v.Y*s,
			Y: v.X*s + v.Y*c,
			Z: v.Z,
		}
	}
	finish(out)
	return out
}

// Taper scales the XY cross-section linearly along Z, from full size at
// the bottom to scale at the top.
func Taper(m *models.Mesh, scale float64) *models.Mesh {
	out := m.Clone()
	if scale == 1 {
		return out
	}
	minZ, maxZ := out.Bounds.Min.Z, out.Bounds.Max.Z
	span := maxZ - minZ
	if span == 0 {
		return out
	}
	for i, v := range out.Vertices {
		t := (v.Z - minZ) / span
		s := 1 + (scale-1)*t
		out.Vertices[i] = models.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z}
	}
	finish(out)
	return out
}

// Bend wraps the mesh around the Y axis by a total of angle radians over
// its Z extent, a circular-arc deformation.
func Bend(m *models.Mesh, angle float64) *models.Mesh {
	out := m.Clone()
	if angle == 0 {
		return out
	}
	minZ, maxZ := out.Bounds.Min.Z, out.Bounds.Max.Z
	span := maxZ - minZ
	if span == 0 {
		return out
	}
	radius := span / angle
	for i, v := range out.Vertices {
		t := (v.Z - minZ) / span
		theta := angle * (t - 0.5)
		r := radius - v.X
		out.Vertices[i] = models.Vec3{
			X: radius - r*math.Cos(theta),
			Y: v.Y,
			Z: r * math.Sin(theta),
		}
	}
	finish(out)
	return out
}

// Extrude displaces vertices along their normals. depth 1.0 is identity;
// the offset is (depth-1)/2 of unit scale, so moderate depths inflate or
// deflate gently.
func Extrude(m *models.Mesh, depth float64) *models.Mesh {
	out := m.Clone()
	if depth == 1 {
		return out
	}
	offset := (depth - 1) * 0.5
	for i, v := range out.Vertices {
		out.Vertices[i] = v.Add(out.Normals[i].Scale(offset))
	}
	finish(out)
	return out
}

// Hollow appends an inward-offset copy of the surface with flipped
// winding, turning a solid shell into a walled one. thickness is the
// inward normal offset of the inner shell.
func Hollow(m *models.Mesh, thickness float64) *models.Mesh {
	out := m.Clone()
	n := len(out.Vertices)
	for i := 0; i < n; i++ {
		out.Vertices = append(out.Vertices, out.Vertices[i].Sub(out.Normals[i].Scale(thickness)))
	}
	for _, f := range m.Faces {
		out.Faces = append(out.Faces, models.Face{f[0] + n, f[2] + n, f[1] + n})
	}
	finish(out)
	return out
}

// Decimate reduces the face count by uniform grid vertex clustering until
// the mesh fits within maxFaces. Cluster representatives are centroid
// positions; degenerate faces collapse away. Meshes already within the
// budget are returned unchanged.
func Decimate(m *models.Mesh, maxFaces int) *models.Mesh {
	if maxFaces <= 0 || len(m.Faces) <= maxFaces {
		return m.Clone()
	}
	// Initial grid resolution from the reduction ratio; coarsen until
	// the face count fits.
	ratio := float64(maxFaces) / float64(len(m.Faces))
	cells := int(math.Max(2, math.Cbrt(float64(len(m.Vertices))*ratio)*2))
	out := clusterPass(m, cells)
	for len(out.Faces) > maxFaces && cells > 2 {
		cells = cells * 2 / 3
		out = clusterPass(m, cells)
	}
	return out
}

func clusterPass(m *models.Mesh, cells int) *models.Mesh {
	size := m.Bounds.Max.Sub(m.Bounds.Min)
	step := math.Max(size.X, math.Max(size.Y, size.Z)) / float64(cells)
	if step == 0 {
		return m.Clone()
	}

	type cellKey [3]int
	keyOf := func(v models.Vec3) cellKey {
		d := v.Sub(m.Bounds.Min)
		return cellKey{int(d.X / step), int(d.Y / step), int(d.Z / step)}
	}

	// First-seen cluster numbering keeps the output vertex order a
	// function of the input order alone.
	cluster := make(map[cellKey]int)
	assign := make([]int, len(m.Vertices))
	var sums []models.Vec3
	var counts []int
	for i, v := range m.Vertices {
		k := keyOf(v)
		idx, ok := cluster[k]
		if !ok {
			idx = len(sums)
			cluster[k] = idx
			sums = append(sums, models.Vec3{})
			counts = append(counts, 0)
		}
		assign[i] = idx
		sums[idx] = sums[idx].Add(v)
		counts[idx]++
	}

	out := &models.Mesh{Vertices: make([]models.Vec3, len(sums))}
	for i := range sums {
		out.Vertices[i] = sums[i].Scale(1 / float64(counts[i]))
	}
	seen := make(map[[3]int]struct{})
	for _, f := range m.Faces {
		a, b, c := assign[f[0]], assign[f[1]], assign[f[2]]
		if a == b || b == c || a == c {
			continue
		}
		// Drop duplicate collapsed faces regardless of rotation.
		key := [3]int{a, b, c}
		sort.Ints(key[:])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Faces = append(out.Faces, models.Face{a, b, c})
	}
	finish(out)
	return out
}
