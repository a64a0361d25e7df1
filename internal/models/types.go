// Package models holds the data entities shared between pipeline stages.
// Every entity is created by one stage and consumed read-only by the next;
// none is mutated after construction, so concurrent re-runs may share them.
package models

// RasterImage is a decoded grayscale raster plus an optional color buffer.
// Pixels hold per-pixel intensity in [0, 1], row-major. Immutable once loaded.
type RasterImage struct {
	Width  int
	Height int

	// Pixels is the luminance-weighted grayscale intensity, one value per
	// pixel, row-major ([y*Width+x]).
	Pixels []float64

	// Color optionally keeps the original RGBA bytes (4 per pixel) for
	// callers that want to re-render the source. Nil when the input was
	// already grayscale.
	Color []uint8
}

// At returns the intensity at (x, y). Out-of-range coordinates return 0.
func (r *RasterImage) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}
	return r.Pixels[y*r.Width+x]
}

// EdgeMap is the per-pixel edge response of a RasterImage.
// Magnitude holds the blended edge strength in [0, 1] and Angle the
// gradient direction in radians. Read-only downstream of the analyzer.
type EdgeMap struct {
	Width     int
	Height    int
	Magnitude []float64
	Angle     []float64
}

// EdgeThreshold is the magnitude above which a pixel counts as an edge.
const EdgeThreshold = 0.2

// IsEdge reports whether the pixel at (x, y) is an edge pixel.
func (e *EdgeMap) IsEdge(x, y int) bool {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return false
	}
	return e.Magnitude[y*e.Width+x] >= EdgeThreshold
}

// MagnitudeAt returns the edge response at (x, y), 0 outside the map.
func (e *EdgeMap) MagnitudeAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return 0
	}
	return e.Magnitude[y*e.Width+x]
}

// AngleAt returns the gradient angle at (x, y), 0 outside the map.
func (e *EdgeMap) AngleAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return 0
	}
	return e.Angle[y*e.Width+x]
}

// EdgeCount returns the number of edge pixels.
func (e *EdgeMap) EdgeCount() int {
	n := 0
	for _, m := range e.Magnitude {
		if m >= EdgeThreshold {
			n++
		}
	}
	return n
}

// SymmetryProfile describes the detected symmetry of a pattern.
// RotationalOrder is 1 when no rotational symmetry passed the correlation
// threshold; that is a valid degenerate result, not an error.
type SymmetryProfile struct {
	// RotationalOrder is the smallest n such that rotating by 360/n degrees
	// maps the pattern onto itself within correlation tolerance. 1 = none.
	RotationalOrder int

	// RotationScore is the best rotation correlation in [0, 1].
	RotationScore float64

	// ReflectionAxes lists mirror axis angles in degrees (0-180) whose
	// flip correlation passed the threshold.
	ReflectionAxes []float64

	// Score is the composite symmetry score:
	// 0.6*RotationScore + 0.4*(len(ReflectionAxes)/4).
	Score float64

	// CenterX, CenterY are the content centroid in pixel coordinates,
	// used as the rotation center.
	CenterX float64
	CenterY float64
}

// Rect is an axis-aligned pixel-space rectangle (x, y, width, height).
type Rect struct {
	X, Y, W, H int
}

// GeometryFeatures are the raw geometric measurements of a pattern,
// consumed by the classifier and by auto parameter selection.
type GeometryFeatures struct {
	BoundingBox Rect

	// CentroidX, CentroidY are the intensity-weighted content centroid.
	CentroidX float64
	CentroidY float64

	// Radius is the median distance from the centroid to edge pixels,
	// 0 when there are no edges.
	Radius float64

	// DominantAngles are the top edge-orientation histogram peaks in
	// degrees (0-180), ascending.
	DominantAngles []float64

	// RadialProfile holds the mean intensity per radius step from the
	// centroid outward. Empty for degenerate content.
	RadialProfile []float64

	// RepetitionFrequency is the number of periodic peaks in the radial
	// intensity profile, 0 when no repetition was found.
	RepetitionFrequency int

	// EdgeDensity is edge pixels over total pixels.
	EdgeDensity float64

	// ContourCount is the number of connected edge components.
	ContourCount int

	// Complexity is the composite complexity score in [0, 1].
	Complexity float64
}

// PatternType enumerates the recognized pattern categories.
type PatternType string

const (
	PatternCircular  PatternType = "circular"
	PatternRadial    PatternType = "radial"
	PatternSpiral    PatternType = "spiral"
	PatternPolygonal PatternType = "polygonal"
	PatternHexagonal PatternType = "hexagonal"
	PatternLinear    PatternType = "linear"
	PatternMixed     PatternType = "mixed"
)

// TypeScore pairs a pattern type with a confidence in [0, 1].
type TypeScore struct {
	Type       PatternType
	Confidence float64
}

// PatternClassification is the classifier output: a primary type, the
// runner-up types by descending confidence, and auxiliary measurements
// used for auto shape and parameter resolution.
type PatternClassification struct {
	Primary   TypeScore
	Secondary []TypeScore

	// SymmetryOrder echoes the detected rotational order.
	SymmetryOrder int

	// PolygonVertices is the stable vertex count of the dominant contour
	// polygon approximation, 0 when no polygon was found.
	PolygonVertices int

	// RecommendedSubdivision and RecommendedSmoothing are generation
	// defaults derived from pattern complexity and symmetry.
	RecommendedSubdivision int
	RecommendedSmoothing   int
}

// FeatureKind labels how a significant point was detected.
type FeatureKind string

const (
	FeatureEdge           FeatureKind = "edge"
	FeatureCorner         FeatureKind = "corner"
	FeatureIntersection   FeatureKind = "intersection"
	FeatureSymmetryCenter FeatureKind = "symmetry-center"
)

// Point is a significant 2D point in normalized image coordinates.
type Point struct {
	// X, Y are normalized to [0, 1] relative to image dimensions.
	X float64
	Y float64

	// Weight is the relative significance, normalized to [0, 1] within
	// the owning PointSet.
	Weight float64

	Kind FeatureKind
}

// ExtractionParams are the knobs of the point extractor. Each field is
// independently defaulted by DefaultExtractionParams.
type ExtractionParams struct {
	// Density in [0, 1] softly controls the target point count.
	Density float64

	// Threshold in [0, 1] filters candidates by relative weight.
	Threshold float64

	// MinDistance is the minimum pairwise distance between returned
	// points, in normalized coordinates.
	MinDistance float64

	// Per-kind weight multipliers.
	WeightEdges         float64
	WeightIntersections float64
	WeightSymmetry      float64

	// MaxPoints is the hard cap on the returned point count.
	MaxPoints int
}

// DefaultExtractionParams mirrors the documented per-field defaults.
func DefaultExtractionParams() ExtractionParams {
	return ExtractionParams{
		Density:             1.0,
		Threshold:           0.5,
		MinDistance:         0.02,
		WeightEdges:         1.0,
		WeightIntersections: 1.5,
		WeightSymmetry:      1.2,
		MaxPoints:           1000,
	}
}

// PointSet is an ordered sequence of points plus the parameters that
// produced it. Immutable once returned; re-extraction yields a new value.
type PointSet struct {
	Points []Point
	Params ExtractionParams
}

// Len returns the number of points.
func (ps *PointSet) Len() int { return len(ps.Points) }

// ShapeKind enumerates the target 3D shapes.
type ShapeKind string

const (
	ShapeAuto             ShapeKind = "auto"
	ShapeSphere           ShapeKind = "sphere"
	ShapeTorus            ShapeKind = "torus"
	ShapeEllipsoid        ShapeKind = "ellipsoid"
	ShapeCone             ShapeKind = "cone"
	ShapeCube             ShapeKind = "cube"
	ShapeCuboid           ShapeKind = "cuboid"
	ShapeHexagonalPrism   ShapeKind = "hexagonal_prism"
	ShapePyramid          ShapeKind = "pyramid"
	ShapeHelix            ShapeKind = "helix"
	ShapeTwistedTorus     ShapeKind = "twisted_torus"
	ShapeWireframeSurface ShapeKind = "wireframe_surface"
)

// GeometryParams control mesh synthesis and the optional transform passes.
type GeometryParams struct {
	// ExtrusionDepth displaces vertices along their normals; 1.0 = none.
	ExtrusionDepth float64

	// Curvature in [-1, 1] scales the pattern displacement field.
	Curvature float64

	// SubdivisionLevel in [0, 5] applies recursive triangle quadrisection.
	SubdivisionLevel int

	// SmoothingIterations applies Laplacian smoothing passes; 0 = none.
	SmoothingIterations int

	// PatternScale is the overall size multiplier, > 0.
	PatternScale float64

	// Hollow emits an inward-offset inner shell at WallThickness.
	Hollow        bool
	WallThickness float64

	// TwistAngle is radians of twist per unit along Z; 0 = none.
	TwistAngle float64

	// TaperScale is the cross-section scale at the top of the Z range;
	// 1.0 = none.
	TaperScale float64

	// BendAngle is the total bend in radians around the Z range; 0 = none.
	BendAngle float64
}

// DefaultGeometryParams mirrors the documented per-field defaults.
func DefaultGeometryParams() GeometryParams {
	return GeometryParams{
		ExtrusionDepth:      1.0,
		Curvature:           0.0,
		SubdivisionLevel:    0,
		SmoothingIterations: 0,
		PatternScale:        1.0,
		Hollow:              false,
		WallThickness:       0.1,
		TwistAngle:          0,
		TaperScale:          1.0,
		BendAngle:           0,
	}
}

// ExportFormat tags a serialized mesh artifact.
type ExportFormat string

const (
	FormatSTLBinary ExportFormat = "stl-binary"
	FormatSTLASCII  ExportFormat = "stl-ascii"
	FormatOBJ       ExportFormat = "obj"
	FormatGLTF      ExportFormat = "gltf"
	FormatGLB       ExportFormat = "glb"
)

// ExportArtifact is a serialized mesh: a byte buffer plus its format tag.
// Purely derived from a Mesh; no independent lifecycle.
type ExportArtifact struct {
	Format ExportFormat
	Data   []byte
}

// Len returns the byte length of the artifact.
func (a *ExportArtifact) Len() int { return len(a.Data) }
