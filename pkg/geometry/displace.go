package geometry

import (
	"math"
	"sort"

	"patternforge/internal/models"
)

const (
	// baseDisplacement scales the pattern displacement field before the
	// curvature factor is applied.
	baseDisplacement = 0.1

	// minSigma floors the RBF kernel width so sparse point sets still
	// produce smooth bumps rather than spikes.
	minSigma = 0.05
)

// DisplacementField is a smooth scalar field over the unit square built
// from weighted pattern points with Gaussian radial basis kernels. The
// field peaks near strong points and is normalized so its maximum over
// the points is 1.
type DisplacementField struct {
	points []models.Point
	sigma  float64
	scale  float64
}

// NewDisplacementField builds the field from a point set. The kernel
// width adapts to the set: half the median pairwise distance, floored at
// minSigma. An empty set yields a zero field.
func NewDisplacementField(ps *models.PointSet) *DisplacementField {
	f := &DisplacementField{sigma: minSigma, scale: 1}
	if ps == nil || len(ps.Points) == 0 {
		return f
	}
	f.points = ps.Points

	if len(ps.Points) > 1 {
		var dists []float64
		for i := 0; i < len(ps.Points); i++ {
			for j := i + 1; j < len(ps.Points); j++ {
				dists = append(dists, math.Hypot(
					ps.Points[i].X-ps.Points[j].X,
					ps.Points[i].Y-ps.Points[j].Y))
			}
		}
		sort.Float64s(dists)
		sigma := dists[len(dists)/2] / 2
		if sigma > minSigma {
			f.sigma = sigma
		}
	}

	max := 0.0
	for _, p := range f.points {
		if v := f.raw(p.X, p.Y); v > max {
			max = v
		}
	}
	if max > 0 {
		f.scale = 1 / max
	}
	return f
}

func (f *DisplacementField) raw(u, v float64) float64 {
	inv := 1 / (2 * f.sigma * f.sigma)
	sum := 0.0
	for _, p := range f.points {
		du, dv := u-p.X, v-p.Y
		sum += p.Weight * math.Exp(-(du*du+dv*dv)*inv)
	}
	return sum
}

// At evaluates the normalized field at (u, v) in the unit square.
func (f *DisplacementField) At(u, v float64) float64 {
	if len(f.points) == 0 {
		return 0
	}
	return f.raw(u, v) * f.scale
}

// Displace pushes mesh vertices along their normals by the pattern field,
// imprinting the 2D structure onto the surface. Vertices map to field
// coordinates through the mesh's XY bounding box; curvature in [-1, 1]
// controls the imprint strength and direction.
func Displace(m *models.Mesh, field *DisplacementField, curvature float64) *models.Mesh {
	out := m.Clone()
	if field == nil || len(field.points) == 0 {
		return out
	}
	spanX := out.Bounds.Max.X - out.Bounds.Min.X
	spanY := out.Bounds.Max.Y - out.Bounds.Min.Y
	if spanX == 0 || spanY == 0 {
		return out
	}
	amplitude := baseDisplacement * (1 + curvature)
	if amplitude == 0 {
		return out
	}
	for i, v := range out.Vertices {
		u := (v.X - out.Bounds.Min.X) / spanX
		w := (v.Y - out.Bounds.Min.Y) / spanY
		out.Vertices[i] = v.Add(out.Normals[i].Scale(amplitude * field.At(u, w)))
	}
	finish(out)
	return out
}
