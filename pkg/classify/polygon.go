package classify

import (
	"math"

	"patternforge/pkg/analysis"
)

// polygonVertexCount approximates the contour with the Douglas-Peucker
// algorithm at a perimeter-relative tolerance and returns the vertex
// count. Counts outside the recognized polygon range return 0.
func polygonVertexCount(c *analysis.Contour) int {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	eps := polygonEpsilon * c.Perimeter()
	if eps <= 0 {
		return 0
	}
	pts := make([][2]float64, n)
	for i, p := range c.Points {
		pts[i] = [2]float64{float64(p[0]), float64(p[1])}
	}

	// Split the closed trace at the two mutually farthest of four
	// extreme points so each half is an open polyline.
	a, b := splitIndices(pts)
	if a > b {
		a, b = b, a
	}
	half1 := douglasPeucker(pts[a:b+1], eps)
	var second [][2]float64
	second = append(second, pts[b:]...)
	second = append(second, pts[:a+1]...)
	half2 := douglasPeucker(second, eps)

	// Join the halves into one cycle; each half includes both split
	// points, so drop the shared ends.
	cycle := append([][2]float64{}, half1...)
	cycle = append(cycle, half2[1:len(half2)-1]...)
	cycle = pruneCollinear(cycle)

	vertices := len(cycle)
	if vertices < minPolygonVertices || vertices > maxPolygonVertices {
		return 0
	}
	return vertices
}

// collinearDeg is the turning angle below which a cycle vertex is treated
// as lying on a straight edge. Split points land mid-edge and must not
// inflate the vertex count.
const collinearDeg = 15.0

func pruneCollinear(cycle [][2]float64) [][2]float64 {
	if len(cycle) < 4 {
		return cycle
	}
	var out [][2]float64
	n := len(cycle)
	for i := 0; i < n; i++ {
		prev := cycle[(i-1+n)%n]
		cur := cycle[i]
		next := cycle[(i+1)%n]
		a1 := math.Atan2(cur[1]-prev[1], cur[0]-prev[0])
		a2 := math.Atan2(next[1]-cur[1], next[0]-cur[0])
		turn := math.Abs(a2 - a1)
		if turn > math.Pi {
			turn = 2*math.Pi - turn
		}
		if turn*180/math.Pi >= collinearDeg {
			out = append(out, cur)
		}
	}
	return out
}

// splitIndices picks the two farthest-apart extreme points of the trace.
func splitIndices(pts [][2]float64) (int, int) {
	minXi, maxXi, minYi, maxYi := 0, 0, 0, 0
	for i, p := range pts {
		if p[0] < pts[minXi][0] {
			minXi = i
		}
		if p[0] > pts[maxXi][0] {
			maxXi = i
		}
		if p[1] < pts[minYi][1] {
			minYi = i
		}
		if p[1] > pts[maxYi][1] {
			maxYi = i
		}
	}
	if dist(pts[minXi], pts[maxXi]) >= dist(pts[minYi], pts[maxYi]) {
		return minXi, maxXi
	}
	return minYi, maxYi
}

// douglasPeucker simplifies an open polyline, keeping points farther than
// eps from the chord between the retained endpoints.
func douglasPeucker(pts [][2]float64, eps float64) [][2]float64 {
	if len(pts) < 3 {
		return pts
	}
	maxD, maxI := 0.0, 0
	for i := 1; i < len(pts)-1; i++ {
		if d := perpDistance(pts[i], pts[0], pts[len(pts)-1]); d > maxD {
			maxD, maxI = d, i
		}
	}
	if maxD <= eps {
		return [][2]float64{pts[0], pts[len(pts)-1]}
	}
	left := douglasPeucker(pts[:maxI+1], eps)
	right := douglasPeucker(pts[maxI:], eps)
	return append(left[:len(left)-1], right...)
}

func perpDistance(p, a, b [2]float64) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return dist(p, a)
	}
	return math.Abs(dy*p[0]-dx*p[1]+b[0]*a[1]-b[1]*a[0]) / length
}

func dist(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
