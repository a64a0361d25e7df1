package analysis

import (
	"math"

	"patternforge/internal/models"
)

// Contour is an ordered boundary trace of one connected edge component.
// Points are pixel coordinates in trace order.
type Contour struct {
	Points [][2]int
}

// Perimeter returns the closed trace length in pixels.
func (c *Contour) Perimeter() float64 {
	n := len(c.Points)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		p, q := c.Points[i], c.Points[(i+1)%n]
		total += math.Hypot(float64(q[0]-p[0]), float64(q[1]-p[1]))
	}
	return total
}

// Area returns the enclosed area via the shoelace formula. Open or thin
// traces yield near-zero area.
func (c *Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p, q := c.Points[i], c.Points[(i+1)%n]
		sum += float64(p[0]*q[1] - q[0]*p[1])
	}
	return math.Abs(sum) / 2
}

// Circularity returns 4*pi*Area/Perimeter^2, 1.0 for a perfect circle.
func (c *Contour) Circularity() float64 {
	p := c.Perimeter()
	if p == 0 {
		return 0
	}
	return 4 * math.Pi * c.Area() / (p * p)
}

// Centroid returns the mean trace position.
func (c *Contour) Centroid() (float64, float64) {
	if len(c.Points) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, p := range c.Points {
		sx += float64(p[0])
		sy += float64(p[1])
	}
	n := float64(len(c.Points))
	return sx / n, sy / n
}

// Moore neighborhood in clockwise order starting west.
var moore = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// FindContours labels 8-connected edge components in raster-scan order
// and traces each component boundary. Components smaller than minPixels
// are dropped as noise.
func FindContours(edges *models.EdgeMap, minPixels int) []Contour {
	w, h := edges.Width, edges.Height
	visited := make([]bool, w*h)
	var contours []Contour

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if visited[i] || !edges.IsEdge(x, y) {
				continue
			}
			size := flood(edges, visited, x, y)
			if size < minPixels {
				continue
			}
			trace := mooreTrace(edges, x, y, 4*size+8)
			contours = append(contours, Contour{Points: trace})
		}
	}
	return contours
}

// LargestContour returns the contour with the longest perimeter, nil when
// none exist. Ties keep the earlier (raster-order) contour.
func LargestContour(contours []Contour) *Contour {
	var best *Contour
	bestP := -1.0
	for i := range contours {
		if p := contours[i].Perimeter(); p > bestP {
			best, bestP = &contours[i], p
		}
	}
	return best
}

// flood marks the 8-connected component containing (x, y) and returns its
// pixel count.
func flood(edges *models.EdgeMap, visited []bool, x, y int) int {
	w := edges.Width
	stack := [][2]int{{x, y}}
	visited[y*w+x] = true
	size := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p[0]+dx, p[1]+dy
				if nx < 0 || ny < 0 || nx >= edges.Width || ny >= edges.Height {
					continue
				}
				j := ny*w + nx
				if !visited[j] && edges.IsEdge(nx, ny) {
					visited[j] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}
		}
	}
	return size
}

// mooreTrace follows the component boundary clockwise from its
// topmost-leftmost pixel. maxSteps bounds the walk for safety on
// pathological shapes.
func mooreTrace(edges *models.EdgeMap, sx, sy, maxSteps int) [][2]int {
	pts := [][2]int{{sx, sy}}
	cx, cy := sx, sy
	dir := 0
	for step := 0; step < maxSteps; step++ {
		found := false
		for i := 0; i < 8; i++ {
			d := (dir + i) % 8
			nx, ny := cx+moore[d][0], cy+moore[d][1]
			if edges.IsEdge(nx, ny) {
				cx, cy = nx, ny
				dir = (d + 6) % 8
				found = true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		if cx == sx && cy == sy {
			break
		}
		pts = append(pts, [2]int{cx, cy})
	}
	return pts
}
