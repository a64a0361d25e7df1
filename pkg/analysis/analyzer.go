// Package analysis measures the structure of a 2D pattern raster: edge
// responses, rotational and reflective symmetry, and the geometric
// features later consumed by classification and point extraction.
package analysis

import (
	"context"

	"go.uber.org/zap"

	"patternforge/internal/models"
	"patternforge/pkg/raster"
)

// Options tune the analyzer stages. Zero values fall back to the
// documented defaults via Sanitize.
type Options struct {
	// BlurSigma is the Gaussian pre-smoothing strength in pixels.
	BlurSigma float64

	// LowThreshold, HighThreshold are the Canny hysteresis bounds on the
	// normalized gradient magnitude.
	LowThreshold  float64
	HighThreshold float64

	// SymmetryThreshold is the minimum mapped correlation for a rotation
	// or reflection candidate to count.
	SymmetryThreshold float64
}

// DefaultOptions returns the standard analyzer tuning.
func DefaultOptions() Options {
	return Options{
		BlurSigma:         1.4,
		LowThreshold:      0.1,
		HighThreshold:     0.3,
		SymmetryThreshold: 0.85,
	}
}

// Sanitize fills unset fields with their defaults and orders the
// hysteresis bounds.
func (o Options) Sanitize() Options {
	def := DefaultOptions()
	if o.BlurSigma <= 0 {
		o.BlurSigma = def.BlurSigma
	}
	if o.LowThreshold <= 0 {
		o.LowThreshold = def.LowThreshold
	}
	if o.HighThreshold <= 0 {
		o.HighThreshold = def.HighThreshold
	}
	if o.HighThreshold < o.LowThreshold {
		o.LowThreshold, o.HighThreshold = o.HighThreshold, o.LowThreshold
	}
	if o.SymmetryThreshold <= 0 || o.SymmetryThreshold > 1 {
		o.SymmetryThreshold = def.SymmetryThreshold
	}
	return o
}

// Analyzer runs the measurement stages over a raster. Safe for concurrent
// use; it holds no per-image state.
type Analyzer struct {
	opts Options
	log  *zap.Logger
}

// New creates an Analyzer. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{opts: opts.Sanitize(), log: log}
}

// Result bundles the full analysis of one raster.
type Result struct {
	Edges    *models.EdgeMap
	Symmetry *models.SymmetryProfile
	Features *models.GeometryFeatures
}

// Analyze runs edge detection, symmetry detection, and feature extraction
// in sequence. The context is checked between stages so long analyses can
// be cancelled.
func (a *Analyzer) Analyze(ctx context.Context, img *models.RasterImage) (*Result, error) {
	edges, err := a.DetectEdges(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym, err := a.DetectSymmetry(img, edges)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feats, err := a.ExtractFeatures(img, edges, sym)
	if err != nil {
		return nil, err
	}
	a.log.Info("analysis complete",
		zap.Int("edge_pixels", edges.EdgeCount()),
		zap.Int("rotational_order", sym.RotationalOrder),
		zap.Float64("complexity", feats.Complexity))
	return &Result{Edges: edges, Symmetry: sym, Features: feats}, nil
}

// AnalyzeEdges runs edge detection and feature extraction without the
// symmetry sweep, for callers that only need the edge map. The returned
// Result leaves Symmetry nil; features center on the content centroid
// with no rotational order.
func (a *Analyzer) AnalyzeEdges(ctx context.Context, img *models.RasterImage) (*Result, error) {
	edges, err := a.DetectEdges(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cx, cy, _ := centroid(img)
	feats, err := a.ExtractFeatures(img, edges, &models.SymmetryProfile{
		CenterX:         cx,
		CenterY:         cy,
		RotationalOrder: 1,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Edges: edges, Features: feats}, nil
}

func blurred(img *models.RasterImage, sigma float64) *models.RasterImage {
	return raster.GaussianBlur(img, sigma)
}
