package points

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"patternforge/internal/models"
	"patternforge/pkg/analysis"
)

func analyzeRing(t *testing.T) *analysis.Result {
	t.Helper()
	size := 101
	pixels := make([]float64, size*size)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if math.Abs(math.Hypot(float64(x)-c, float64(y)-c)-30) < 1.5 {
				pixels[y*size+x] = 1
			}
		}
	}
	img := &models.RasterImage{Width: size, Height: size, Pixels: pixels}
	res, err := analysis.New(analysis.Options{}, nil).Analyze(context.Background(), img)
	require.NoError(t, err)
	return res
}

func TestExtractValidatesParams(t *testing.T) {
	res := analyzeRing(t)
	e := New(nil)

	cases := []models.ExtractionParams{
		func() models.ExtractionParams { p := models.DefaultExtractionParams(); p.Density = 1.5; return p }(),
		func() models.ExtractionParams { p := models.DefaultExtractionParams(); p.Threshold = -0.1; return p }(),
		func() models.ExtractionParams { p := models.DefaultExtractionParams(); p.MinDistance = -1; return p }(),
		func() models.ExtractionParams { p := models.DefaultExtractionParams(); p.MaxPoints = 0; return p }(),
	}
	for _, p := range cases {
		_, err := e.Extract(res, p)
		assert.True(t, models.IsInputError(err), "params %+v should be rejected", p)
	}
}

func TestExtractEmptyPattern(t *testing.T) {
	img := &models.RasterImage{Width: 32, Height: 32, Pixels: make([]float64, 1024)}
	res, err := analysis.New(analysis.Options{}, nil).Analyze(context.Background(), img)
	require.NoError(t, err)

	set, err := New(nil).Extract(res, models.DefaultExtractionParams())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestExtractRingProducesPoints(t *testing.T) {
	res := analyzeRing(t)
	params := models.DefaultExtractionParams()
	params.Threshold = 0.2

	set, err := New(nil).Extract(res, params)
	require.NoError(t, err)
	require.Greater(t, set.Len(), 4)
	assert.LessOrEqual(t, set.Len(), params.MaxPoints)

	for _, p := range set.Points {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
		assert.GreaterOrEqual(t, p.Weight, 0.0)
		assert.LessOrEqual(t, p.Weight, 1.0)
		assert.NotEmpty(t, p.Kind)
	}
}

func TestExtractIncludesSymmetryCenter(t *testing.T) {
	res := analyzeRing(t)
	params := models.DefaultExtractionParams()

	set, err := New(nil).Extract(res, params)
	require.NoError(t, err)

	found := false
	for _, p := range set.Points {
		if p.Kind == models.FeatureSymmetryCenter && math.Hypot(p.X-0.5, p.Y-0.5) < 0.05 {
			found = true
		}
	}
	assert.True(t, found, "symmetry center missing from the set")
}

func TestExtractDeterministic(t *testing.T) {
	res := analyzeRing(t)
	e := New(nil)
	params := models.DefaultExtractionParams()

	first, err := e.Extract(res, params)
	require.NoError(t, err)
	second, err := e.Extract(res, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractRespectsSpacing(t *testing.T) {
	res := analyzeRing(t)
	rapid.Check(t, func(rt *rapid.T) {
		params := models.DefaultExtractionParams()
		params.MinDistance = rapid.Float64Range(0.01, 0.2).Draw(rt, "minDist")
		params.Threshold = rapid.Float64Range(0, 0.6).Draw(rt, "threshold")
		params.Density = rapid.Float64Range(0, 1).Draw(rt, "density")

		set, err := New(nil).Extract(res, params)
		if err != nil {
			rt.Fatalf("extract failed: %v", err)
		}
		for i := 0; i < set.Len(); i++ {
			for j := i + 1; j < set.Len(); j++ {
				d := math.Hypot(set.Points[i].X-set.Points[j].X, set.Points[i].Y-set.Points[j].Y)
				if d < params.MinDistance {
					rt.Fatalf("points %d and %d are %.4f apart, below %.4f", i, j, d, params.MinDistance)
				}
			}
		}
	})
}

func TestDensityScalesCount(t *testing.T) {
	res := analyzeRing(t)
	e := New(nil)

	sparse := models.DefaultExtractionParams()
	sparse.Density = 0
	sparse.Threshold = 0.1
	sparse.MinDistance = 0.005

	dense := sparse
	dense.Density = 1

	low, err := e.Extract(res, sparse)
	require.NoError(t, err)
	high, err := e.Extract(res, dense)
	require.NoError(t, err)

	assert.LessOrEqual(t, low.Len(), high.Len())
	assert.LessOrEqual(t, low.Len(), 32)
}

func TestTargetCount(t *testing.T) {
	p := models.DefaultExtractionParams()
	p.MaxPoints = 100

	p.Density = 0
	assert.Equal(t, 32, targetCount(p))
	p.Density = 1
	assert.Equal(t, 100, targetCount(p))

	p.MaxPoints = 10
	assert.Equal(t, 10, targetCount(p))
}

func TestExtractRejectsIncompleteResult(t *testing.T) {
	_, err := New(nil).Extract(nil, models.DefaultExtractionParams())
	assert.True(t, models.IsInputError(err))
}
