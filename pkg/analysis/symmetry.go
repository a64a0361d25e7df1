package analysis

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"patternforge/internal/models"
)

// rotationCandidates are the tested rotation angles in degrees, ascending
// so the highest-order symmetry is found first.
var rotationCandidates = []float64{30, 45, 60, 72, 90, 120, 180}

// reflectionCandidates are the tested mirror axis angles in degrees.
var reflectionCandidates = []float64{0, 45, 90, 135}

// Composite score weights: rotational correlation dominates, reflection
// axis coverage refines.
const (
	rotationScoreWeight   = 0.6
	reflectionScoreWeight = 0.4
	maxReflectionAxes     = 4
)

// symmetryMaskSigma widens the structure mask so a one-pixel resampling
// misalignment does not sink the correlation of a true symmetry.
const symmetryMaskSigma = 2.0

// DetectSymmetry measures rotational and reflective symmetry about the
// content centroid. Correlation runs on a blurred edge-strength mask
// rather than raw intensity: filled shapes overlap themselves heavily
// under any rotation, but their outlines only align at true symmetry
// angles. A blank image yields order 1 with no axes.
func (a *Analyzer) DetectSymmetry(img *models.RasterImage, edges *models.EdgeMap) (*models.SymmetryProfile, error) {
	if img == nil {
		return nil, models.NewInputError("image", "nil raster")
	}
	cx, cy, mass := centroid(img)
	profile := &models.SymmetryProfile{
		RotationalOrder: 1,
		CenterX:         cx,
		CenterY:         cy,
	}
	if mass == 0 {
		return profile, nil
	}

	mask := symmetryMask(img, edges)

	bestScore := 0.0
	for _, deg := range rotationCandidates {
		rotated := resample(mask, cx, cy, func(x, y float64) (float64, float64) {
			theta := -deg * math.Pi / 180
			c, s := math.Cos(theta), math.Sin(theta)
			return x*c - y*s, x*s + y*c
		})
		score := mappedCorrelation(mask.Pixels, rotated)
		if score > bestScore {
			bestScore = score
		}
		if profile.RotationalOrder == 1 && score >= a.opts.SymmetryThreshold {
			profile.RotationalOrder = int(math.Round(360 / deg))
		}
	}
	profile.RotationScore = bestScore

	for _, deg := range reflectionCandidates {
		flipped := resample(mask, cx, cy, func(x, y float64) (float64, float64) {
			theta := deg * math.Pi / 180
			dx, dy := math.Cos(theta), math.Sin(theta)
			dot := x*dx + y*dy
			return 2*dot*dx - x, 2*dot*dy - y
		})
		if mappedCorrelation(mask.Pixels, flipped) >= a.opts.SymmetryThreshold {
			profile.ReflectionAxes = append(profile.ReflectionAxes, deg)
		}
	}

	profile.Score = rotationScoreWeight*profile.RotationScore +
		reflectionScoreWeight*float64(len(profile.ReflectionAxes))/maxReflectionAxes
	a.log.Debug("symmetry detected",
		zap.Int("order", profile.RotationalOrder),
		zap.Float64("rotation_score", profile.RotationScore),
		zap.Int("reflection_axes", len(profile.ReflectionAxes)))
	return profile, nil
}

// symmetryMask builds the blurred edge-strength buffer the correlations
// run on. An existing edge map is reused; otherwise raw Sobel magnitude
// is computed in place.
func symmetryMask(img *models.RasterImage, edges *models.EdgeMap) *models.RasterImage {
	var mag []float64
	if edges != nil && edges.Width == img.Width && edges.Height == img.Height {
		mag = edges.Magnitude
	} else {
		mag, _ = gradients(img)
	}
	work := &models.RasterImage{Width: img.Width, Height: img.Height, Pixels: mag}
	return blurred(work, symmetryMaskSigma)
}

// centroid returns the intensity-weighted content center and total mass.
// A blank raster centers on the image middle with zero mass.
func centroid(img *models.RasterImage) (cx, cy, mass float64) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.Pixels[y*img.Width+x]
			cx += float64(x) * v
			cy += float64(y) * v
			mass += v
		}
	}
	if mass == 0 {
		return float64(img.Width-1) / 2, float64(img.Height-1) / 2, 0
	}
	return cx / mass, cy / mass, mass
}

// resample builds a transformed copy of the raster. transform maps
// destination coordinates (relative to the center) to source coordinates;
// sampling is bilinear with zero fill outside the image.
func resample(img *models.RasterImage, cx, cy float64, transform func(x, y float64) (float64, float64)) []float64 {
	out := make([]float64, len(img.Pixels))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			sx, sy := transform(float64(x)-cx, float64(y)-cy)
			out[y*img.Width+x] = bilinear(img, sx+cx, sy+cy)
		}
	}
	return out
}

func bilinear(img *models.RasterImage, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	v00 := img.At(ix, iy)
	v10 := img.At(ix+1, iy)
	v01 := img.At(ix, iy+1)
	v11 := img.At(ix+1, iy+1)
	top := v00*(1-fx) + v10*fx
	bot := v01*(1-fx) + v11*fx
	return top*(1-fy) + bot*fy
}

// mappedCorrelation computes the Pearson correlation of two intensity
// buffers mapped from [-1, 1] to [0, 1]. Zero-variance input scores 0.
func mappedCorrelation(a, b []float64) float64 {
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0
	}
	return (r + 1) / 2
}
