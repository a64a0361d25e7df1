package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/models"
)

// synthRaster renders a binary pattern into a size x size raster. The
// predicate receives coordinates relative to the image center.
func synthRaster(size int, inside func(dx, dy float64) bool) *models.RasterImage {
	pixels := make([]float64, size*size)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if inside(float64(x)-c, float64(y)-c) {
				pixels[y*size+x] = 1
			}
		}
	}
	return &models.RasterImage{Width: size, Height: size, Pixels: pixels}
}

func ring(radius, thickness float64) func(dx, dy float64) bool {
	return func(dx, dy float64) bool {
		return math.Abs(math.Hypot(dx, dy)-radius) < thickness/2
	}
}

// spokes renders n equal arms radiating from the center.
func spokes(n int, maxR float64) func(dx, dy float64) bool {
	period := 2 * math.Pi / float64(n)
	return func(dx, dy float64) bool {
		r := math.Hypot(dx, dy)
		if r < 3 || r > maxR {
			return false
		}
		theta := math.Mod(math.Atan2(dy, dx)+2*math.Pi, period)
		d := math.Min(theta, period-theta)
		return d < 0.12
	}
}

func TestDetectEdgesBlankImage(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(64, func(dx, dy float64) bool { return false })

	edges, err := a.DetectEdges(img)
	require.NoError(t, err)
	assert.Equal(t, 0, edges.EdgeCount())
}

func TestDetectEdgesRejectsBadRaster(t *testing.T) {
	a := New(Options{}, nil)

	_, err := a.DetectEdges(nil)
	assert.True(t, models.IsInputError(err))

	_, err = a.DetectEdges(&models.RasterImage{Width: 4, Height: 4, Pixels: make([]float64, 3)})
	assert.True(t, models.IsInputError(err))
}

func TestDetectEdgesCircle(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(101, ring(30, 3))

	edges, err := a.DetectEdges(img)
	require.NoError(t, err)
	require.Greater(t, edges.EdgeCount(), 50)

	// Edge responses concentrate around the drawn radius.
	c := 50.0
	for y := 0; y < edges.Height; y++ {
		for x := 0; x < edges.Width; x++ {
			if edges.IsEdge(x, y) {
				d := math.Hypot(float64(x)-c, float64(y)-c)
				assert.InDelta(t, 30, d, 6, "edge pixel at (%d,%d) far from the ring", x, y)
			}
		}
	}
}

func TestDetectSymmetryBlankImage(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(64, func(dx, dy float64) bool { return false })

	sym, err := a.DetectSymmetry(img, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sym.RotationalOrder)
	assert.Empty(t, sym.ReflectionAxes)
	assert.InDelta(t, 31.5, sym.CenterX, 1e-9)
	assert.InDelta(t, 31.5, sym.CenterY, 1e-9)
}

func TestDetectSymmetrySixSpokes(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(101, spokes(6, 40))

	sym, err := a.DetectSymmetry(img, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, sym.RotationalOrder)
	assert.Greater(t, sym.RotationScore, 0.85)
	assert.InDelta(t, 50, sym.CenterX, 1.0)
	assert.InDelta(t, 50, sym.CenterY, 1.0)
}

func TestDetectSymmetryRotationInvariance(t *testing.T) {
	// The spoke pattern itself rotated by its own period must detect the
	// same order.
	a := New(Options{}, nil)
	base := spokes(6, 40)
	rot := math.Pi / 3
	rotated := synthRaster(101, func(dx, dy float64) bool {
		c, s := math.Cos(rot), math.Sin(rot)
		return base(dx*c-dy*s, dx*s+dy*c)
	})

	sym, err := a.DetectSymmetry(rotated, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, sym.RotationalOrder)
}

func TestReflectionAxesCross(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(101, func(dx, dy float64) bool {
		if math.Abs(dx) > 40 || math.Abs(dy) > 40 {
			return false
		}
		return math.Abs(dx) < 3 || math.Abs(dy) < 3
	})

	sym, err := a.DetectSymmetry(img, nil)
	require.NoError(t, err)
	assert.Contains(t, sym.ReflectionAxes, 0.0)
	assert.Contains(t, sym.ReflectionAxes, 90.0)
	assert.Greater(t, sym.Score, 0.5)
}

func TestExtractFeaturesCircle(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(101, ring(30, 3))
	res, err := a.Analyze(context.Background(), img)
	require.NoError(t, err)

	feats := res.Features
	assert.InDelta(t, 30, feats.Radius, 5)
	assert.Greater(t, feats.EdgeDensity, 0.0)
	assert.GreaterOrEqual(t, feats.ContourCount, 1)
	assert.GreaterOrEqual(t, feats.Complexity, 0.0)
	assert.LessOrEqual(t, feats.Complexity, 1.0)
	assert.NotEmpty(t, feats.RadialProfile)
	assert.GreaterOrEqual(t, feats.RepetitionFrequency, 1)
	assert.Greater(t, feats.BoundingBox.W, 50)
}

func TestExtractFeaturesBlank(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(32, func(dx, dy float64) bool { return false })
	res, err := a.Analyze(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Features.Radius)
	assert.Equal(t, 0, res.Features.ContourCount)
	assert.Empty(t, res.Features.DominantAngles)
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(64, ring(20, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, img)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeEdgesSkipsSymmetry(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(101, ring(30, 3))

	res, err := a.AnalyzeEdges(context.Background(), img)
	require.NoError(t, err)
	assert.Nil(t, res.Symmetry)
	assert.Greater(t, res.Edges.EdgeCount(), 50)
	require.NotNil(t, res.Features)
	assert.InDelta(t, 50, res.Features.CentroidX, 3)
	assert.InDelta(t, 50, res.Features.CentroidY, 3)
}

func TestFindContoursCountsComponents(t *testing.T) {
	a := New(Options{}, nil)
	img := synthRaster(121, func(dx, dy float64) bool {
		r := math.Hypot(dx, dy)
		return math.Abs(r-20) < 1.5 || math.Abs(r-45) < 1.5
	})
	edges, err := a.DetectEdges(img)
	require.NoError(t, err)

	contours := FindContours(edges, 8)
	assert.GreaterOrEqual(t, len(contours), 2)

	largest := LargestContour(contours)
	require.NotNil(t, largest)
	assert.Greater(t, largest.Circularity(), 0.6)
	cx, cy := largest.Centroid()
	assert.InDelta(t, 60, cx, 3)
	assert.InDelta(t, 60, cy, 3)
}

func TestOptionsSanitize(t *testing.T) {
	o := Options{LowThreshold: 0.5, HighThreshold: 0.2}.Sanitize()
	assert.Less(t, o.LowThreshold, o.HighThreshold)

	d := Options{}.Sanitize()
	assert.Equal(t, DefaultOptions(), d)
}
