package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1.4, cfg.Analysis.BlurSigma)
	assert.Equal(t, 0.85, cfg.Analysis.SymmetryThreshold)
	assert.Equal(t, string(models.ShapeAuto), cfg.Geometry.Shape)
	assert.Equal(t, 1024, cfg.Limits.MaxImageDimension)
	assert.Equal(t, 10000, cfg.Limits.MaxPoints)
	assert.Equal(t, "stl-binary", cfg.Output.Format)

	// Sections mirror the documented model defaults.
	assert.Equal(t, models.DefaultExtractionParams(), cfg.ExtractionParams())
	assert.Equal(t, models.DefaultGeometryParams(), cfg.GeometryParams())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
analysis:
  blurSigma: 2.0
extraction:
  maxPoints: 250
geometry:
  shape: torus
  subdivisionLevel: 2
limits:
  maxFaces: 5000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Analysis.BlurSigma)
	assert.Equal(t, 250, cfg.Extraction.MaxPoints)
	assert.Equal(t, "torus", cfg.Geometry.Shape)
	assert.Equal(t, 2, cfg.Geometry.SubdivisionLevel)
	assert.Equal(t, 5000, cfg.Limits.MaxFaces)

	// Unset fields keep their defaults.
	assert.Equal(t, 0.85, cfg.Analysis.SymmetryThreshold)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Geometry.Hollow = true
	cfg.Geometry.WallThickness = 0.25
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}
