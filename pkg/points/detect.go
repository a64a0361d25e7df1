package points

import (
	"math"

	"patternforge/internal/models"
)

// corners finds structure-tensor (Harris) corner responses on the edge
// map, returning local maxima in raster order. Gradients are rebuilt from
// the stored magnitude and angle.
func corners(edges *models.EdgeMap) [][2]int {
	w, h := edges.Width, edges.Height
	ix := make([]float64, w*h)
	iy := make([]float64, w*h)
	for i := range edges.Magnitude {
		ix[i] = edges.Magnitude[i] * math.Cos(edges.Angle[i])
		iy[i] = edges.Magnitude[i] * math.Sin(edges.Angle[i])
	}

	response := make([]float64, w*h)
	maxR := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sxx, syy, sxy float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					i := (y+dy)*w + (x + dx)
					sxx += ix[i] * ix[i]
					syy += iy[i] * iy[i]
					sxy += ix[i] * iy[i]
				}
			}
			det := sxx*syy - sxy*sxy
			trace := sxx + syy
			r := det - harrisK*trace*trace
			response[y*w+x] = r
			if r > maxR {
				maxR = r
			}
		}
	}
	if maxR <= 0 {
		return nil
	}

	threshold := harrisRelThreshold * maxR
	var out [][2]int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r := response[y*w+x]
			if r < threshold || !edges.IsEdge(x, y) {
				continue
			}
			isMax := true
			for dy := -1; dy <= 1 && isMax; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if response[(y+dy)*w+(x+dx)] > r {
						isMax = false
						break
					}
				}
			}
			if isMax {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// intersections finds edge pixels whose 8-neighborhood contains enough
// other edge pixels to indicate crossing strokes rather than a curve.
func intersections(edges *models.EdgeMap) [][2]int {
	var out [][2]int
	for y := 0; y < edges.Height; y++ {
		for x := 0; x < edges.Width; x++ {
			if !edges.IsEdge(x, y) {
				continue
			}
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if edges.IsEdge(x+dx, y+dy) {
						n++
					}
				}
			}
			if n >= intersectionNeighbors {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}
