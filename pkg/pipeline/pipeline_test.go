package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/models"
	"patternforge/pkg/config"
	"patternforge/pkg/export"
)

func ringImage(size int, radius float64) *models.RasterImage {
	pixels := make([]float64, size*size)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if math.Abs(math.Hypot(float64(x)-c, float64(y)-c)-radius) < 1.5 {
				pixels[y*size+x] = 1
			}
		}
	}
	return &models.RasterImage{Width: size, Height: size, Pixels: pixels}
}

func TestRunFullFlow(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), ringImage(101, 30), models.FormatSTLBinary)
	require.NoError(t, err)

	require.NotNil(t, res.Analysis)
	require.NotNil(t, res.Classification)
	require.NotNil(t, res.Points)
	require.NotNil(t, res.Mesh)
	require.NotNil(t, res.Artifact)

	assert.Equal(t, models.PatternCircular, res.Classification.Primary.Type)
	assert.Greater(t, res.Points.Len(), 0)
	assert.Greater(t, len(res.Mesh.Faces), 0)
	assert.Equal(t, models.FormatSTLBinary, res.Artifact.Format)

	// The artifact decodes back to a mesh of the same face count.
	back, err := export.Decode(res.Artifact)
	require.NoError(t, err)
	assert.Equal(t, len(res.Mesh.Faces), len(back.Faces))
}

func TestRunBlankImageStillExports(t *testing.T) {
	p := New(nil, nil)
	img := &models.RasterImage{Width: 64, Height: 64, Pixels: make([]float64, 64*64)}

	res, err := p.Run(context.Background(), img, models.FormatOBJ)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Points.Len())
	assert.Greater(t, len(res.Mesh.Faces), 0)
	assert.Greater(t, res.Artifact.Len(), 0)
}

func TestAnalyzeEnforcesImageLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Limits.MaxImageDimension = 64
	p := New(cfg, nil)

	_, err := p.Analyze(context.Background(), ringImage(101, 30))
	require.Error(t, err)
	assert.True(t, models.IsResourceLimit(err))

	_, err = p.Analyze(context.Background(), nil)
	assert.True(t, models.IsInputError(err))
}

func TestAdjustPointsReproducible(t *testing.T) {
	p := New(nil, nil)
	analysis, err := p.Analyze(context.Background(), ringImage(101, 30))
	require.NoError(t, err)

	base := models.DefaultExtractionParams()
	first, err := p.ExtractPoints(analysis, base)
	require.NoError(t, err)

	// Adjust away and back: same cached analysis, same parameters, same
	// point set.
	loose := base
	loose.Threshold = 0.1
	adjusted, err := p.AdjustPoints(analysis, loose)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, adjusted.Len(), first.Len())

	back, err := p.AdjustPoints(analysis, base)
	require.NoError(t, err)
	assert.Equal(t, first, back)
}

func stripesImage(size, pitch int) *models.RasterImage {
	pixels := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x%pitch < 2 {
				pixels[y*size+x] = 1
			}
		}
	}
	return &models.RasterImage{Width: size, Height: size, Pixels: pixels}
}

func TestRunStripesResolveWireframeSurface(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), stripesImage(101, 12), models.FormatSTLBinary)
	require.NoError(t, err)

	assert.Equal(t, models.PatternLinear, res.Classification.Primary.Type)
	require.NoError(t, res.Mesh.Validate())
	assert.Greater(t, len(res.Mesh.Faces), 0)

	back, err := export.Decode(res.Artifact)
	require.NoError(t, err)
	assert.Equal(t, len(res.Mesh.Faces), len(back.Faces))
}

func TestExtractPointsEnforcesPointLimit(t *testing.T) {
	p := New(nil, nil)
	analysis, err := p.Analyze(context.Background(), ringImage(101, 30))
	require.NoError(t, err)

	params := models.DefaultExtractionParams()
	params.MaxPoints = 1_000_000_000

	_, err = p.ExtractPoints(analysis, params)
	require.Error(t, err)
	assert.True(t, models.IsResourceLimit(err))

	_, err = p.AdjustPoints(analysis, params)
	assert.True(t, models.IsResourceLimit(err))
}

func TestGenerateUsesConfiguredShape(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Geometry.Shape = string(models.ShapeTorus)
	p := New(cfg, nil)

	mesh, err := p.Generate(nil, nil, cfg.GeometryParams())
	require.NoError(t, err)
	assert.Equal(t, 0, mesh.EulerCharacteristic())
}

func TestRunHonorsCancellation(t *testing.T) {
	p := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, ringImage(101, 30), models.FormatSTLBinary)
	assert.ErrorIs(t, err, context.Canceled)
}
