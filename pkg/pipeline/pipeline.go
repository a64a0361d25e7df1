// Package pipeline wires the processing stages into one orchestrated
// flow: raster analysis, pattern classification, point extraction, mesh
// generation, and export. Each stage is also callable on its own so
// interactive callers can re-run a late stage with new parameters
// without repeating the earlier ones.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"patternforge/internal/models"
	"patternforge/pkg/analysis"
	"patternforge/pkg/classify"
	"patternforge/pkg/config"
	"patternforge/pkg/export"
	"patternforge/pkg/geometry"
	"patternforge/pkg/points"
)

// Pipeline owns the configured stage instances. Safe for concurrent use;
// all per-run state lives in Result values.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger

	analyzer   *analysis.Analyzer
	classifier *classify.Classifier
	extractor  *points.Extractor
	generator  *geometry.Generator
}

// New builds a Pipeline from configuration. A nil config uses defaults;
// a nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg: cfg,
		log: log,
		analyzer: analysis.New(analysis.Options{
			BlurSigma:         cfg.Analysis.BlurSigma,
			LowThreshold:      cfg.Analysis.LowThreshold,
			HighThreshold:     cfg.Analysis.HighThreshold,
			SymmetryThreshold: cfg.Analysis.SymmetryThreshold,
		}, log.Named("analysis")),
		classifier: classify.New(log.Named("classify")),
		extractor:  points.New(log.Named("points")),
		generator:  geometry.NewGenerator(log.Named("geometry"), cfg.Limits.MaxFaces),
	}
}

// Result collects the outputs of a full pipeline run. Partial runs leave
// later fields nil.
type Result struct {
	Analysis       *analysis.Result
	Classification *models.PatternClassification
	Points         *models.PointSet
	Mesh           *models.Mesh
	Artifact       *models.ExportArtifact
}

// Analyze measures the raster. The input size is checked against the
// configured ceiling before any work happens.
func (p *Pipeline) Analyze(ctx context.Context, img *models.RasterImage) (*analysis.Result, error) {
	if img == nil {
		return nil, models.NewInputError("image", "nil raster")
	}
	if max := p.cfg.Limits.MaxImageDimension; max > 0 {
		if img.Width > max || img.Height > max {
			dim := img.Width
			if img.Height > dim {
				dim = img.Height
			}
			return nil, &models.ResourceLimitError{Resource: "image dimension", Requested: dim, Limit: max}
		}
	}
	return p.analyzer.Analyze(ctx, img)
}

// Classify assigns the pattern type from an analysis result.
func (p *Pipeline) Classify(res *analysis.Result) (*models.PatternClassification, error) {
	return p.classifier.Classify(res)
}

// ExtractPoints builds the significant point set from an analysis result.
// The requested point cap is checked against the configured ceiling
// before any candidate work happens.
func (p *Pipeline) ExtractPoints(res *analysis.Result, params models.ExtractionParams) (*models.PointSet, error) {
	if max := p.cfg.Limits.MaxPoints; max > 0 && params.MaxPoints > max {
		return nil, &models.ResourceLimitError{Resource: "point count", Requested: params.MaxPoints, Limit: max}
	}
	return p.extractor.Extract(res, params)
}

// AdjustPoints re-extracts with new parameters against a cached analysis,
// skipping edge and symmetry detection entirely. Extraction is pure, so
// adjusting back to earlier parameters reproduces the earlier set.
func (p *Pipeline) AdjustPoints(res *analysis.Result, params models.ExtractionParams) (*models.PointSet, error) {
	return p.ExtractPoints(res, params)
}

// Generate synthesizes the mesh for an extracted pattern.
func (p *Pipeline) Generate(ps *models.PointSet, cls *models.PatternClassification, params models.GeometryParams) (*models.Mesh, error) {
	return p.generator.Generate(ps, cls, models.ShapeKind(p.cfg.Geometry.Shape), params)
}

// Export serializes a mesh in the requested format.
func (p *Pipeline) Export(mesh *models.Mesh, format models.ExportFormat) (*models.ExportArtifact, error) {
	return export.Encode(mesh, format)
}

// Run executes the full flow and returns every intermediate product.
// Stages fail fast; a degenerate (blank) input flows through as empty
// values and still exports a valid base shape.
func (p *Pipeline) Run(ctx context.Context, img *models.RasterImage, format models.ExportFormat) (*Result, error) {
	res := &Result{}
	var err error

	if res.Analysis, err = p.Analyze(ctx, img); err != nil {
		return res, fmt.Errorf("analyzing pattern: %w", err)
	}
	if res.Classification, err = p.Classify(res.Analysis); err != nil {
		return res, fmt.Errorf("classifying pattern: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}

	if res.Points, err = p.ExtractPoints(res.Analysis, p.cfg.ExtractionParams()); err != nil {
		return res, fmt.Errorf("extracting points: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return res, err
	}

	params := p.cfg.GeometryParams()
	if res.Mesh, err = p.Generate(res.Points, res.Classification, params); err != nil {
		return res, fmt.Errorf("generating mesh: %w", err)
	}
	if res.Artifact, err = p.Export(res.Mesh, format); err != nil {
		return res, fmt.Errorf("exporting mesh: %w", err)
	}

	p.log.Info("pipeline complete",
		zap.String("pattern", string(res.Classification.Primary.Type)),
		zap.Int("points", res.Points.Len()),
		zap.Int("faces", len(res.Mesh.Faces)),
		zap.String("format", string(format)),
		zap.Int("bytes", res.Artifact.Len()))
	return res, nil
}
