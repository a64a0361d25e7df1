// Package points turns an analyzed pattern into a weighted 2D point set:
// edge samples, corners, line intersections, and the symmetry center with
// its radial samples. Extraction is a pure function of its inputs, so the
// same analysis and parameters always produce the same set.
package points

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"patternforge/internal/models"
	"patternforge/pkg/analysis"
)

const (
	// cornerBoost scales corner weights above plain edge samples.
	cornerBoost = 1.5

	// centerBoost doubles the symmetry-center weight. It is the single
	// most structurally important point.
	centerBoost = 2.0

	// radialSamples is the number of rays sampled around the symmetry
	// center.
	radialSamples = 8

	// harrisK is the structure-tensor response constant.
	harrisK = 0.04

	// harrisRelThreshold drops corner responses below this fraction of
	// the maximum response.
	harrisRelThreshold = 0.01

	// intersectionNeighbors is the minimum count of 8-neighborhood edge
	// pixels marking a crossing rather than a simple curve.
	intersectionNeighbors = 4

	// minTargetBase is the floor of the density-scaled target count.
	minTargetBase = 32

	// contourSampleStride samples every n-th traced contour pixel.
	contourSampleStride = 4
)

// Extractor produces point sets. Safe for concurrent use.
type Extractor struct {
	log *zap.Logger
}

// New creates an Extractor. A nil logger disables logging.
func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

type candidate struct {
	x, y   float64 // normalized [0, 1]
	weight float64
	kind   models.FeatureKind
}

// Extract builds the significant point set of an analyzed pattern. A
// pattern with no edges yields an empty set, not an error; invalid
// parameters fail with an input error before any work happens.
func (e *Extractor) Extract(res *analysis.Result, params models.ExtractionParams) (*models.PointSet, error) {
	if res == nil || res.Edges == nil || res.Symmetry == nil {
		return nil, models.NewInputError("analysis", "incomplete analysis result")
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	edges, sym := res.Edges, res.Symmetry

	set := &models.PointSet{Params: params}
	if edges.EdgeCount() == 0 {
		return set, nil
	}

	cands := e.collect(edges, sym, params)
	normalizeWeights(cands)

	// Threshold, then order by weight with a fixed positional tie-break
	// so equal-weight candidates resolve the same way every run.
	kept := cands[:0]
	for _, c := range cands {
		if c.weight >= params.Threshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].weight != kept[j].weight {
			return kept[i].weight > kept[j].weight
		}
		if kept[i].y != kept[j].y {
			return kept[i].y < kept[j].y
		}
		return kept[i].x < kept[j].x
	})

	selected := suppress(kept, params.MinDistance)
	if target := targetCount(params); len(selected) > target {
		selected = selected[:target]
	}

	set.Points = make([]models.Point, len(selected))
	for i, c := range selected {
		set.Points[i] = models.Point{X: c.x, Y: c.y, Weight: c.weight, Kind: c.kind}
	}
	e.log.Debug("points extracted",
		zap.Int("candidates", len(cands)),
		zap.Int("selected", len(set.Points)))
	return set, nil
}

func validateParams(p models.ExtractionParams) error {
	if p.Density < 0 || p.Density > 1 {
		return models.NewInputError("density", "must be in [0, 1], got %v", p.Density)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return models.NewInputError("threshold", "must be in [0, 1], got %v", p.Threshold)
	}
	if p.MinDistance < 0 {
		return models.NewInputError("min_distance", "must be non-negative, got %v", p.MinDistance)
	}
	if p.MaxPoints <= 0 {
		return models.NewInputError("max_points", "must be positive, got %d", p.MaxPoints)
	}
	return nil
}

// collect gathers candidates in a fixed order: contour edge samples,
// corners, intersections, then the symmetry center and its radial
// samples.
func (e *Extractor) collect(edges *models.EdgeMap, sym *models.SymmetryProfile, params models.ExtractionParams) []candidate {
	w, h := float64(edges.Width), float64(edges.Height)
	norm := func(x, y float64) (float64, float64) {
		return x / math.Max(w-1, 1), y / math.Max(h-1, 1)
	}
	var cands []candidate

	for _, contour := range analysis.FindContours(edges, 8) {
		for i := 0; i < len(contour.Points); i += contourSampleStride {
			p := contour.Points[i]
			nx, ny := norm(float64(p[0]), float64(p[1]))
			cands = append(cands, candidate{
				x: nx, y: ny,
				weight: params.WeightEdges * edges.MagnitudeAt(p[0], p[1]),
				kind:   models.FeatureEdge,
			})
		}
	}

	for _, p := range corners(edges) {
		nx, ny := norm(float64(p[0]), float64(p[1]))
		cands = append(cands, candidate{
			x: nx, y: ny,
			weight: params.WeightEdges * cornerBoost * edges.MagnitudeAt(p[0], p[1]),
			kind:   models.FeatureCorner,
		})
	}

	for _, p := range intersections(edges) {
		nx, ny := norm(float64(p[0]), float64(p[1]))
		cands = append(cands, candidate{
			x: nx, y: ny,
			weight: params.WeightIntersections,
			kind:   models.FeatureIntersection,
		})
	}

	cx, cy := norm(sym.CenterX, sym.CenterY)
	cands = append(cands, candidate{
		x: cx, y: cy,
		weight: params.WeightSymmetry * centerBoost,
		kind:   models.FeatureSymmetryCenter,
	})
	cands = append(cands, radialCandidates(edges, sym, params.WeightSymmetry)...)
	return cands
}

// radialCandidates samples the strongest edge pixel along evenly spaced
// rays from the symmetry center, tying the set to the pattern's angular
// structure.
func radialCandidates(edges *models.EdgeMap, sym *models.SymmetryProfile, weight float64) []candidate {
	w, h := float64(edges.Width), float64(edges.Height)
	maxR := math.Hypot(w, h) / 2
	var cands []candidate
	for i := 0; i < radialSamples; i++ {
		theta := 2 * math.Pi * float64(i) / radialSamples
		dx, dy := math.Cos(theta), math.Sin(theta)
		bestMag, bestR := 0.0, -1.0
		for r := 1.0; r < maxR; r++ {
			x := int(math.Round(sym.CenterX + r*dx))
			y := int(math.Round(sym.CenterY + r*dy))
			if x < 0 || y < 0 || x >= edges.Width || y >= edges.Height {
				break
			}
			if m := edges.MagnitudeAt(x, y); m > bestMag {
				bestMag, bestR = m, r
			}
		}
		if bestR < 0 || bestMag < models.EdgeThreshold {
			continue
		}
		cands = append(cands, candidate{
			x:      (sym.CenterX + bestR*dx) / math.Max(w-1, 1),
			y:      (sym.CenterY + bestR*dy) / math.Max(h-1, 1),
			weight: weight * bestMag,
			kind:   models.FeatureSymmetryCenter,
		})
	}
	return cands
}

// normalizeWeights rescales candidate weights so the strongest is 1.
func normalizeWeights(cands []candidate) {
	max := 0.0
	for _, c := range cands {
		if c.weight > max {
			max = c.weight
		}
	}
	if max == 0 {
		return
	}
	for i := range cands {
		cands[i].weight /= max
	}
}

// suppress greedily keeps candidates in order, skipping any within
// minDist of an already kept point. Input must be sorted by priority.
func suppress(cands []candidate, minDist float64) []candidate {
	if minDist <= 0 {
		return cands
	}
	var kept []candidate
	for _, c := range cands {
		ok := true
		for _, k := range kept {
			if math.Hypot(c.x-k.x, c.y-k.y) < minDist {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}
	return kept
}

// targetCount scales the point budget by density between a small base
// and the hard cap.
func targetCount(p models.ExtractionParams) int {
	base := minTargetBase
	if p.MaxPoints < base {
		base = p.MaxPoints
	}
	return base + int(p.Density*float64(p.MaxPoints-base))
}
