package classify

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/models"
	"patternforge/pkg/analysis"
	"patternforge/pkg/geometry"
)

func analyze(t *testing.T, size int, inside func(dx, dy float64) bool) *analysis.Result {
	t.Helper()
	pixels := make([]float64, size*size)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if inside(float64(x)-c, float64(y)-c) {
				pixels[y*size+x] = 1
			}
		}
	}
	img := &models.RasterImage{Width: size, Height: size, Pixels: pixels}
	res, err := analysis.New(analysis.Options{}, nil).Analyze(context.Background(), img)
	require.NoError(t, err)
	return res
}

func TestClassifyConcentricCircles(t *testing.T) {
	// Five rings. The outermost trace simplifies to a small vertex
	// count, but its roundness keeps it out of the polygon rule.
	res := analyze(t, 201, func(dx, dy float64) bool {
		r := math.Hypot(dx, dy)
		for ring := 15.0; ring <= 75; ring += 15 {
			if math.Abs(r-ring) < 1.5 {
				return true
			}
		}
		return false
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternCircular, cls.Primary.Type)
	assert.Greater(t, cls.Primary.Confidence, 0.8)
	assert.Equal(t, models.ShapeSphere, geometry.ResolveShape(models.ShapeAuto, cls))
}

func TestClassifyHexagon(t *testing.T) {
	// Filled regular hexagon, flat side up.
	apothem := 40.0
	res := analyze(t, 121, func(dx, dy float64) bool {
		for i := 0; i < 6; i++ {
			theta := math.Pi/6 + math.Pi/3*float64(i)
			if dx*math.Cos(theta)+dy*math.Sin(theta) > apothem {
				return false
			}
		}
		return true
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternHexagonal, cls.Primary.Type)
	assert.Equal(t, 6, cls.PolygonVertices)
	assert.Equal(t, 6, cls.SymmetryOrder)
}

// hexOutline is the outline band of a flat-top regular hexagon with the
// given apothem, centered at (cx, cy).
func hexOutline(cx, cy, apothem float64) func(dx, dy float64) bool {
	return func(dx, dy float64) bool {
		px, py := dx-cx, dy-cy
		d := -math.MaxFloat64
		for i := 0; i < 6; i++ {
			theta := math.Pi/6 + math.Pi/3*float64(i)
			if p := px*math.Cos(theta) + py*math.Sin(theta); p > d {
				d = p
			}
		}
		return math.Abs(d-apothem) < 1.2
	}
}

func TestClassifyHexagonTiling(t *testing.T) {
	// A center cell and its six neighbors sharing walls. The merged
	// lattice is one edge component, so the unit cell only survives in
	// the wall orientations and the six-fold rotational order.
	apothem := 24.0
	cells := [][2]float64{{0, 0}}
	for i := 0; i < 6; i++ {
		theta := math.Pi/6 + math.Pi/3*float64(i)
		cells = append(cells, [2]float64{2 * apothem * math.Cos(theta), 2 * apothem * math.Sin(theta)})
	}
	res := analyze(t, 201, func(dx, dy float64) bool {
		for _, c := range cells {
			if hexOutline(c[0], c[1], apothem)(dx, dy) {
				return true
			}
		}
		return false
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, 6, cls.SymmetryOrder)
	assert.Equal(t, models.PatternHexagonal, cls.Primary.Type)
	assert.Equal(t, models.ShapeHexagonalPrism, geometry.ResolveShape(models.ShapeAuto, cls))
}

func TestClassifySquareGridIsLinear(t *testing.T) {
	// Grid lines every 20 pixels. The lattice trace simplifies to a
	// square, but the repeating axis-aligned structure wins.
	res := analyze(t, 181, func(dx, dy float64) bool {
		x, y := dx+90, dy+90
		return math.Mod(x, 20) < 2 || math.Mod(y, 20) < 2
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternLinear, cls.Primary.Type)
	assert.Equal(t, models.ShapeWireframeSurface, geometry.ResolveShape(models.ShapeAuto, cls))
}

func TestClassifySquare(t *testing.T) {
	res := analyze(t, 121, func(dx, dy float64) bool {
		return math.Abs(dx) < 35 && math.Abs(dy) < 35
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternPolygonal, cls.Primary.Type)
	assert.Equal(t, 4, cls.PolygonVertices)
}

func TestClassifySpiral(t *testing.T) {
	// Archimedean arc sweeping one turn within the atan2 range, so the
	// radius grows monotonically with the polar angle.
	res := analyze(t, 151, func(dx, dy float64) bool {
		r := math.Hypot(dx, dy)
		if r < 4 || r > 65 {
			return false
		}
		theta := math.Atan2(dy, dx) // (-pi, pi]
		want := 12 + (theta+math.Pi)/(2*math.Pi)*50
		return math.Abs(r-want) < 2.5
	})

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternSpiral, cls.Primary.Type)
	assert.Greater(t, cls.Primary.Confidence, 0.6)
}

func TestClassifyBlankFallsBackToMixed(t *testing.T) {
	res := analyze(t, 64, func(dx, dy float64) bool { return false })

	cls, err := New(nil).Classify(res)
	require.NoError(t, err)
	assert.Equal(t, models.PatternMixed, cls.Primary.Type)
	assert.LessOrEqual(t, cls.Primary.Confidence, 0.45)
}

func TestSecondaryScoresSortedDescending(t *testing.T) {
	res := analyze(t, 121, func(dx, dy float64) bool {
		return math.Abs(math.Hypot(dx, dy)-40) < 1.5
	})
	cls, err := New(nil).Classify(res)
	require.NoError(t, err)

	require.NotEmpty(t, cls.Secondary)
	for i := 1; i < len(cls.Secondary); i++ {
		assert.GreaterOrEqual(t, cls.Secondary[i-1].Confidence, cls.Secondary[i].Confidence)
	}
	for _, s := range cls.Secondary {
		assert.NotEqual(t, cls.Primary.Type, s.Type)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	res := analyze(t, 121, func(dx, dy float64) bool {
		return math.Abs(math.Hypot(dx, dy)-40) < 1.5
	})
	c := New(nil)
	first, err := c.Classify(res)
	require.NoError(t, err)
	second, err := c.Classify(res)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommendationsWithinBounds(t *testing.T) {
	res := analyze(t, 121, func(dx, dy float64) bool {
		return math.Abs(math.Hypot(dx, dy)-40) < 1.5
	})
	cls, err := New(nil).Classify(res)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, cls.RecommendedSubdivision, 1)
	assert.LessOrEqual(t, cls.RecommendedSubdivision, 4)
	assert.GreaterOrEqual(t, cls.RecommendedSmoothing, 0)
	assert.LessOrEqual(t, cls.RecommendedSmoothing, 3)
}

func TestClassifyRejectsIncompleteResult(t *testing.T) {
	_, err := New(nil).Classify(nil)
	assert.True(t, models.IsInputError(err))
}

func TestRanks(t *testing.T) {
	r := ranks([]float64{10, 30, 20})
	assert.Equal(t, []float64{1, 3, 2}, r)

	// Ties receive their average rank.
	r = ranks([]float64{5, 5, 1})
	assert.Equal(t, []float64{2.5, 2.5, 1}, r)
}
