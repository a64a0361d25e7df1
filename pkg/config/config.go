// Package config provides configuration loading and management for
// patternforge. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"patternforge/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Analysis parameters
	Analysis struct {
		// BlurSigma is the Gaussian pre-smoothing strength in pixels
		BlurSigma float64 `yaml:"blurSigma"`

		// LowThreshold is the lower Canny hysteresis bound
		LowThreshold float64 `yaml:"lowThreshold"`

		// HighThreshold is the upper Canny hysteresis bound
		HighThreshold float64 `yaml:"highThreshold"`

		// SymmetryThreshold is the minimum correlation for a symmetry match
		SymmetryThreshold float64 `yaml:"symmetryThreshold"`
	} `yaml:"analysis"`

	// Point extraction parameters
	Extraction struct {
		// Density softly controls the target point count, in [0, 1]
		Density float64 `yaml:"density"`

		// Threshold filters candidates by relative weight, in [0, 1]
		Threshold float64 `yaml:"threshold"`

		// MinDistance is the minimum pairwise point spacing in
		// normalized coordinates
		MinDistance float64 `yaml:"minDistance"`

		// MaxPoints caps the extracted point count
		MaxPoints int `yaml:"maxPoints"`
	} `yaml:"extraction"`

	// Geometry generation parameters
	Geometry struct {
		// Shape selects the target shape; "auto" resolves from the
		// pattern classification
		Shape string `yaml:"shape"`

		// ExtrusionDepth displaces vertices along their normals
		ExtrusionDepth float64 `yaml:"extrusionDepth"`

		// Curvature scales the pattern displacement field, in [-1, 1]
		Curvature float64 `yaml:"curvature"`

		// SubdivisionLevel is the recursive refinement depth
		SubdivisionLevel int `yaml:"subdivisionLevel"`

		// SmoothingIterations is the number of Laplacian passes
		SmoothingIterations int `yaml:"smoothingIterations"`

		// PatternScale is the overall model size multiplier
		PatternScale float64 `yaml:"patternScale"`

		// Hollow emits an inner shell at WallThickness
		Hollow bool `yaml:"hollow"`

		// WallThickness is the inner shell offset when hollow
		WallThickness float64 `yaml:"wallThickness"`

		// TwistAngle is radians of twist per unit height
		TwistAngle float64 `yaml:"twistAngle"`

		// TaperScale is the cross-section scale at the top
		TaperScale float64 `yaml:"taperScale"`

		// BendAngle is the total bend in radians
		BendAngle float64 `yaml:"bendAngle"`
	} `yaml:"geometry"`

	// Resource ceilings checked before synthesis
	Limits struct {
		// MaxImageDimension bounds the input raster size; the CLI
		// downsamples larger images to fit before analysis
		MaxImageDimension int `yaml:"maxImageDimension"`

		// MaxFaces bounds the projected face count of generated meshes
		MaxFaces int `yaml:"maxFaces"`

		// MaxPoints bounds the point-count cap a caller may request
		MaxPoints int `yaml:"maxPoints"`
	} `yaml:"limits"`

	// Output parameters
	Output struct {
		// Format is the export format when not derived from the output
		// file extension
		Format string `yaml:"format"`

		// SaveEdgeMap dumps the detected edge map next to the output
		SaveEdgeMap bool `yaml:"saveEdgeMap"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default analysis parameters
	cfg.Analysis.BlurSigma = 1.4
	cfg.Analysis.LowThreshold = 0.1
	cfg.Analysis.HighThreshold = 0.3
	cfg.Analysis.SymmetryThreshold = 0.85

	// Set default extraction parameters from the documented defaults
	ep := models.DefaultExtractionParams()
	cfg.Extraction.Density = ep.Density
	cfg.Extraction.Threshold = ep.Threshold
	cfg.Extraction.MinDistance = ep.MinDistance
	cfg.Extraction.MaxPoints = ep.MaxPoints

	// Set default geometry parameters
	gp := models.DefaultGeometryParams()
	cfg.Geometry.Shape = string(models.ShapeAuto)
	cfg.Geometry.ExtrusionDepth = gp.ExtrusionDepth
	cfg.Geometry.Curvature = gp.Curvature
	cfg.Geometry.SubdivisionLevel = gp.SubdivisionLevel
	cfg.Geometry.SmoothingIterations = gp.SmoothingIterations
	cfg.Geometry.PatternScale = gp.PatternScale
	cfg.Geometry.Hollow = gp.Hollow
	cfg.Geometry.WallThickness = gp.WallThickness
	cfg.Geometry.TwistAngle = gp.TwistAngle
	cfg.Geometry.TaperScale = gp.TaperScale
	cfg.Geometry.BendAngle = gp.BendAngle

	// Set default resource limits
	cfg.Limits.MaxImageDimension = 1024
	cfg.Limits.MaxFaces = 400000
	cfg.Limits.MaxPoints = 10000

	// Set default output parameters
	cfg.Output.Format = "stl-binary"
	cfg.Output.SaveEdgeMap = false
	cfg.Output.Verbose = true

	return cfg
}

// ExtractionParams converts the extraction section to the model type.
func (c *Config) ExtractionParams() models.ExtractionParams {
	p := models.DefaultExtractionParams()
	p.Density = c.Extraction.Density
	p.Threshold = c.Extraction.Threshold
	p.MinDistance = c.Extraction.MinDistance
	p.MaxPoints = c.Extraction.MaxPoints
	return p
}

// GeometryParams converts the geometry section to the model type.
func (c *Config) GeometryParams() models.GeometryParams {
	return models.GeometryParams{
		ExtrusionDepth:      c.Geometry.ExtrusionDepth,
		Curvature:           c.Geometry.Curvature,
		SubdivisionLevel:    c.Geometry.SubdivisionLevel,
		SmoothingIterations: c.Geometry.SmoothingIterations,
		PatternScale:        c.Geometry.PatternScale,
		Hollow:              c.Geometry.Hollow,
		WallThickness:       c.Geometry.WallThickness,
		TwistAngle:          c.Geometry.TwistAngle,
		TaperScale:          c.Geometry.TaperScale,
		BendAngle:           c.Geometry.BendAngle,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
