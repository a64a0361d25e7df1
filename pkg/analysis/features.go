package analysis

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"patternforge/internal/models"
)

const (
	// angleBins quantizes edge orientations into 5-degree buckets over
	// the 0-180 half circle.
	angleBins = 36

	// maxDominantAngles caps the reported histogram peaks.
	maxDominantAngles = 5

	// minContourPixels drops connected components below this size.
	minContourPixels = 8

	// Complexity blend weights: edge density, contour richness,
	// orientation variety.
	densityComplexityWeight = 0.3
	contourComplexityWeight = 0.4
	angleComplexityWeight   = 0.3

	// contourSaturation is the contour count at which the contour term
	// of the complexity score saturates to 1.
	contourSaturation = 20
)

// ExtractFeatures measures the geometric features of the pattern:
// bounding box, centroid, median radius, orientation histogram peaks,
// radial intensity profile, and a composite complexity score. A blank
// image yields zeroed features centered on the image middle.
func (a *Analyzer) ExtractFeatures(img *models.RasterImage, edges *models.EdgeMap, sym *models.SymmetryProfile) (*models.GeometryFeatures, error) {
	if img == nil || edges == nil {
		return nil, models.NewInputError("analysis", "nil raster or edge map")
	}

	cx, cy := sym.CenterX, sym.CenterY
	feats := &models.GeometryFeatures{CentroidX: cx, CentroidY: cy}

	// Edge pixel pass: bounding box, radial distances, orientation bins.
	minX, minY := img.Width, img.Height
	maxX, maxY := -1, -1
	var dists []float64
	bins := make([]int, angleBins)
	for y := 0; y < edges.Height; y++ {
		for x := 0; x < edges.Width; x++ {
			if !edges.IsEdge(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
			dists = append(dists, math.Hypot(float64(x)-cx, float64(y)-cy))

			// Edge orientation is perpendicular to the gradient.
			deg := edges.AngleAt(x, y)*180/math.Pi + 90
			deg = math.Mod(math.Mod(deg, 180)+180, 180)
			bins[int(deg/180*angleBins)%angleBins]++
		}
	}
	if maxX < 0 {
		return feats, nil
	}
	feats.BoundingBox = models.Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
	feats.Radius = median(dists)
	feats.EdgeDensity = float64(len(dists)) / float64(img.Width*img.Height)
	feats.DominantAngles = dominantAngles(bins)

	feats.RadialProfile = radialProfile(img, cx, cy)
	feats.RepetitionFrequency = countPeaks(feats.RadialProfile)
	feats.ContourCount = len(FindContours(edges, minContourPixels))

	contourTerm := math.Min(1, float64(feats.ContourCount)/contourSaturation)
	angleTerm := float64(len(feats.DominantAngles)) / maxDominantAngles
	feats.Complexity = densityComplexityWeight*math.Min(1, feats.EdgeDensity*10) +
		contourComplexityWeight*contourTerm +
		angleComplexityWeight*angleTerm

	a.log.Debug("features extracted",
		zap.Float64("radius", feats.Radius),
		zap.Int("contours", feats.ContourCount),
		zap.Int("repetition", feats.RepetitionFrequency),
		zap.Float64("complexity", feats.Complexity))
	return feats, nil
}

// dominantAngles returns the bin-center angles of histogram peaks that
// beat their immediate neighbors, strongest first capped at
// maxDominantAngles, then reported ascending.
func dominantAngles(bins []int) []float64 {
	type peak struct {
		bin   int
		count int
	}
	var peaks []peak
	n := len(bins)
	for i := 0; i < n; i++ {
		c := bins[i]
		if c == 0 {
			continue
		}
		prev := bins[(i-1+n)%n]
		next := bins[(i+1)%n]
		if c >= prev && c >= next {
			peaks = append(peaks, peak{bin: i, count: c})
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].count > peaks[j].count })
	if len(peaks) > maxDominantAngles {
		peaks = peaks[:maxDominantAngles]
	}
	angles := make([]float64, len(peaks))
	for i, p := range peaks {
		angles[i] = (float64(p.bin) + 0.5) * 180 / angleBins
	}
	sort.Float64s(angles)
	return angles
}

// radialProfile averages intensity over concentric 1-pixel rings around
// the centroid out to the farthest image corner.
func radialProfile(img *models.RasterImage, cx, cy float64) []float64 {
	maxR := 0.0
	for _, corner := range [4][2]float64{{0, 0}, {float64(img.Width - 1), 0}, {0, float64(img.Height - 1)}, {float64(img.Width - 1), float64(img.Height - 1)}} {
		if d := math.Hypot(corner[0]-cx, corner[1]-cy); d > maxR {
			maxR = d
		}
	}
	nbins := int(maxR) + 1
	sums := make([]float64, nbins)
	counts := make([]int, nbins)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r := int(math.Hypot(float64(x)-cx, float64(y)-cy))
			if r >= nbins {
				r = nbins - 1
			}
			sums[r] += img.Pixels[y*img.Width+x]
			counts[r]++
		}
	}
	profile := make([]float64, nbins)
	for i := range sums {
		if counts[i] > 0 {
			profile[i] = sums[i] / float64(counts[i])
		}
	}
	return profile
}

// countPeaks counts local maxima of the profile that rise above its mean,
// a proxy for periodic ring structure.
func countPeaks(profile []float64) int {
	if len(profile) < 3 {
		return 0
	}
	mean := 0.0
	for _, v := range profile {
		mean += v
	}
	mean /= float64(len(profile))
	peaks := 0
	for i := 1; i < len(profile)-1; i++ {
		if profile[i] > mean && profile[i] > profile[i-1] && profile[i] >= profile[i+1] {
			peaks++
		}
	}
	return peaks
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
