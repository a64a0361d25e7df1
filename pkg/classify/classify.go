// Package classify assigns a pattern category to an analyzed raster and
// derives generation defaults from it. Classification is rule-ordered:
// the first matching rule sets the primary type, and all other candidate
// scores are reported as runner-ups.
package classify

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"patternforge/internal/models"
	"patternforge/pkg/analysis"
)

const (
	// spiralCorrelation is the minimum absolute Spearman correlation
	// between edge-pixel angle and radius for a spiral match.
	spiralCorrelation = 0.6

	// circularityThreshold is the roundness above which the dominant
	// contour reads as a circle. Digitized traces run below the analytic
	// 4*pi*A/P^2 of their shape, so this sits well under 1.
	circularityThreshold = 0.8

	// ringCircularity is the looser roundness bound used when several
	// concentric intensity rings are present.
	ringCircularity = 0.6

	// minRadialOrder is the smallest rotational order treated as a
	// spoke pattern.
	minRadialOrder = 3

	// Polygon approximation bounds.
	minPolygonVertices = 3
	maxPolygonVertices = 8
	polygonEpsilon     = 0.02 // fraction of perimeter

	// strongLinearScore is the linear confidence at which a repeating
	// axis-aligned pattern outranks the polygon rule. A grid's lattice
	// trace simplifies to a small vertex count, so the polygon rule
	// would otherwise claim it.
	strongLinearScore = 0.75

	// mixedConfidenceCap bounds the fallback confidence: an unmatched
	// pattern is never reported with high certainty.
	mixedConfidenceCap = 0.45
)

// Classifier assigns pattern types. Safe for concurrent use.
type Classifier struct {
	log *zap.Logger
}

// New creates a Classifier. A nil logger disables logging.
func New(log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{log: log}
}

// Classify runs the rule ladder over an analysis result. It never fails
// on degenerate content; a pattern matching no rule classifies as mixed
// with capped confidence.
func (c *Classifier) Classify(res *analysis.Result) (*models.PatternClassification, error) {
	if res == nil || res.Edges == nil || res.Symmetry == nil || res.Features == nil {
		return nil, models.NewInputError("analysis", "incomplete analysis result")
	}
	edges, sym, feats := res.Edges, res.Symmetry, res.Features

	contours := analysis.FindContours(edges, 8)
	largest := analysis.LargestContour(contours)

	spiralRho := spiralCorrelationOf(edges, sym)
	circularity := 0.0
	vertices := 0
	if largest != nil {
		circularity = largest.Circularity()
		vertices = polygonVertexCount(largest)
	}
	// A tiled pattern's dominant trace is no recognizable polygon, but
	// with six-fold symmetry the unit cell still is, so consult the
	// component contours before giving up on the hexagon.
	if vertices != 6 && sym.RotationalOrder == 6 {
		for i := range contours {
			if polygonVertexCount(&contours[i]) == 6 {
				vertices = 6
				break
			}
		}
	}

	scores := []models.TypeScore{
		{Type: models.PatternSpiral, Confidence: clamp01(math.Abs(spiralRho))},
		{Type: models.PatternCircular, Confidence: circularScore(circularity, feats)},
		{Type: models.PatternRadial, Confidence: radialScore(sym)},
		{Type: models.PatternPolygonal, Confidence: polygonScore(vertices, circularity)},
		{Type: models.PatternHexagonal, Confidence: hexagonalScore(vertices, circularity, feats, sym)},
		{Type: models.PatternLinear, Confidence: linearScore(edges, feats, circularity)},
	}

	primary := pickPrimary(scores, spiralRho, circularity, vertices, feats, sym)
	secondary := runnerUps(scores, primary.Type)

	cls := &models.PatternClassification{
		Primary:         primary,
		Secondary:       secondary,
		SymmetryOrder:   sym.RotationalOrder,
		PolygonVertices: vertices,
	}
	cls.RecommendedSubdivision, cls.RecommendedSmoothing = recommend(primary.Type, feats)

	c.log.Info("pattern classified",
		zap.String("primary", string(primary.Type)),
		zap.Float64("confidence", primary.Confidence),
		zap.Int("symmetry_order", sym.RotationalOrder),
		zap.Int("polygon_vertices", vertices))
	return cls, nil
}

// pickPrimary walks the rules in precedence order. Spiral wins over
// circular because a spiral also correlates with concentric structure.
// The hexagonal promotion comes next: six-fold symmetry plus a six-vertex
// contour is unambiguous even when figure roundness is high. A strongly
// repeating axis-aligned pattern (grid, stripes) reads linear before the
// polygon rule can claim its lattice trace. The polygon rule itself only
// accepts figures whose roundness stays below the circle band, so
// digitized circles fall through to the circular rule.
func pickPrimary(scores []models.TypeScore, rho, circularity float64, vertices int, feats *models.GeometryFeatures, sym *models.SymmetryProfile) models.TypeScore {
	get := func(t models.PatternType) models.TypeScore {
		for _, s := range scores {
			if s.Type == t {
				return s
			}
		}
		return models.TypeScore{Type: t}
	}

	if math.Abs(rho) > spiralCorrelation {
		return get(models.PatternSpiral)
	}
	if hexagonalMatch(vertices, circularity, feats, sym) {
		return get(models.PatternHexagonal)
	}
	if s := get(models.PatternLinear); s.Confidence >= strongLinearScore {
		return s
	}
	if vertices >= minPolygonVertices && vertices <= maxPolygonVertices &&
		circularity < circularityThreshold {
		return get(models.PatternPolygonal)
	}
	if circularity > circularityThreshold ||
		(feats.RepetitionFrequency >= 2 && circularity > ringCircularity) {
		return get(models.PatternCircular)
	}
	if sym.RotationalOrder >= minRadialOrder && circularity < ringCircularity {
		return get(models.PatternRadial)
	}
	if s := get(models.PatternLinear); s.Confidence >= 0.5 {
		return s
	}
	conf := math.Min(mixedConfidenceCap, 0.2+feats.Complexity/2)
	return models.TypeScore{Type: models.PatternMixed, Confidence: conf}
}

// runnerUps returns all non-primary scores sorted by descending
// confidence, ties broken by the fixed rule order.
func runnerUps(scores []models.TypeScore, primary models.PatternType) []models.TypeScore {
	out := make([]models.TypeScore, 0, len(scores))
	for _, s := range scores {
		if s.Type != primary {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// spiralCorrelationOf computes the Spearman rank correlation between
// edge-pixel polar angle and radius about the symmetry center. A spiral
// winds monotonically, so |rho| approaches 1.
func spiralCorrelationOf(edges *models.EdgeMap, sym *models.SymmetryProfile) float64 {
	var angles, radii []float64
	for y := 0; y < edges.Height; y++ {
		for x := 0; x < edges.Width; x++ {
			if !edges.IsEdge(x, y) {
				continue
			}
			dx, dy := float64(x)-sym.CenterX, float64(y)-sym.CenterY
			angles = append(angles, math.Atan2(dy, dx))
			radii = append(radii, math.Hypot(dx, dy))
		}
	}
	if len(angles) < 8 {
		return 0
	}
	rho := stat.Correlation(ranks(angles), ranks(radii), nil)
	if math.IsNaN(rho) {
		return 0
	}
	return rho
}

// ranks returns average fractional ranks, making the downstream Pearson
// correlation a Spearman correlation.
func ranks(vals []float64) []float64 {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	out := make([]float64, len(vals))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && vals[idx[j+1]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

func circularScore(circularity float64, feats *models.GeometryFeatures) float64 {
	ring := math.Min(1, float64(feats.RepetitionFrequency)/3)
	return clamp01(0.7*circularity + 0.3*ring)
}

func radialScore(sym *models.SymmetryProfile) float64 {
	if sym.RotationalOrder < minRadialOrder {
		return clamp01(sym.RotationScore / 2)
	}
	return clamp01(sym.Score)
}

func polygonScore(vertices int, circularity float64) float64 {
	if vertices < minPolygonVertices || vertices > maxPolygonVertices ||
		circularity >= circularityThreshold {
		return 0
	}
	// A stable small vertex count is itself strong evidence; roundness
	// only shades the confidence.
	return clamp01(0.7 + 0.2*(1-circularity))
}

// hexagonalMatch requires six-fold rotational symmetry plus structural
// evidence of the hexagon: either a six-vertex contour, or wall
// orientations 60 degrees apart on a rounded figure. A connected tiling
// merges its cells into one lattice component whose boundary trace is no
// hexagon, so the wall orientations are what remain of the unit cell.
func hexagonalMatch(vertices int, circularity float64, feats *models.GeometryFeatures, sym *models.SymmetryProfile) bool {
	if sym.RotationalOrder != 6 {
		return false
	}
	if vertices == 6 {
		return true
	}
	return circularity > ringCircularity && hexWallOrientations(feats.DominantAngles)
}

// hexWallOrientations reports whether at least two dominant edge
// orientations sit a multiple of 60 degrees apart, the signature of
// hexagon walls. A square grid's 0/90 pair does not qualify.
func hexWallOrientations(angles []float64) bool {
	if len(angles) < 2 {
		return false
	}
	base := angles[0]
	matched := 0
	for _, a := range angles[1:] {
		d := math.Mod(math.Abs(a-base), 60)
		if d > 30 {
			d = 60 - d
		}
		if d <= 12 {
			matched++
		}
	}
	return matched >= 1
}

func hexagonalScore(vertices int, circularity float64, feats *models.GeometryFeatures, sym *models.SymmetryProfile) float64 {
	if hexagonalMatch(vertices, circularity, feats, sym) {
		return clamp01(0.6 + 0.4*sym.Score)
	}
	if vertices == 6 {
		return 0.5
	}
	return 0
}

// linearScore is high when edge orientations concentrate on one axis or
// an axis-aligned pair. A square grid carries rotational order 4, so no
// symmetry restriction applies; elongated low-roundness traces are the
// discriminator, and compact figures are excluded by the roundness gate.
func linearScore(edges *models.EdgeMap, feats *models.GeometryFeatures, circularity float64) float64 {
	if circularity > ringCircularity {
		return 0
	}
	frac := axisAlignment(edges)
	if frac == 0 {
		return 0
	}
	score := 0.6 * frac
	if feats.RepetitionFrequency >= 2 {
		score += 0.25
	}
	if feats.ContourCount >= 2 {
		score += 0.15
	}
	return clamp01(score)
}

const alignmentBins = 36 // 5 degree bins over the 0-180 orientation range

// axisAlignment returns the fraction of edge pixels whose along-edge
// orientation lies within three bins of the strongest perpendicular axis
// pair. Weighting by pixel count keeps stray histogram peaks from
// diluting the alignment the way a peak count would.
func axisAlignment(edges *models.EdgeMap) float64 {
	var bins [alignmentBins]int
	total := 0
	for y := 0; y < edges.Height; y++ {
		for x := 0; x < edges.Width; x++ {
			if !edges.IsEdge(x, y) {
				continue
			}
			deg := edges.AngleAt(x, y)*180/math.Pi + 90
			deg = math.Mod(math.Mod(deg, 180)+180, 180)
			bins[int(deg/180*alignmentBins)%alignmentBins]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	half := alignmentBins / 2
	bestAxis, bestCount := 0, -1
	for i := 0; i < half; i++ {
		if c := bins[i] + bins[i+half]; c > bestCount {
			bestAxis, bestCount = i, c
		}
	}
	aligned := 0
	for i := 0; i < alignmentBins; i++ {
		d := (i - bestAxis%half + half) % half
		if d > half/2 {
			d = half - d
		}
		if d <= 3 {
			aligned += bins[i]
		}
	}
	return float64(aligned) / float64(total)
}

// recommend derives generation defaults: complex patterns get more
// subdivision; curved families get smoothing passes.
func recommend(primary models.PatternType, feats *models.GeometryFeatures) (subdivision, smoothing int) {
	subdivision = 1 + int(feats.Complexity*3)
	if subdivision > 4 {
		subdivision = 4
	}
	switch primary {
	case models.PatternCircular, models.PatternSpiral, models.PatternMixed:
		smoothing = 1 + int(feats.Complexity*2)
	default:
		smoothing = int(feats.Complexity * 2)
	}
	if smoothing > 3 {
		smoothing = 3
	}
	return subdivision, smoothing
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
