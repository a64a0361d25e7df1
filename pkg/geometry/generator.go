package geometry

import (
	"math"

	"go.uber.org/zap"

	"patternforge/internal/models"
)

// Default mesh resolutions per shape family.
const (
	sphereBaseLevel = 2
	torusSegU       = 48
	torusSegV       = 24
	helixSegPath    = 96
	helixSegRing    = 12
	surfaceGrid     = 24

	// MaxSubdivisionLevel bounds the recursive quadrisection depth.
	MaxSubdivisionLevel = 5

	// DefaultMaxFaces is the synthesis face budget when the caller does
	// not configure one.
	DefaultMaxFaces = 400000
)

// Generator synthesizes meshes from classified patterns. Safe for
// concurrent use.
type Generator struct {
	log      *zap.Logger
	maxFaces int
}

// NewGenerator creates a Generator with the given face budget; a budget
// of 0 uses DefaultMaxFaces. A nil logger disables logging.
func NewGenerator(log *zap.Logger, maxFaces int) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	if maxFaces <= 0 {
		maxFaces = DefaultMaxFaces
	}
	return &Generator{log: log, maxFaces: maxFaces}
}

// ResolveShape maps a pattern classification to a concrete shape.
// Explicit shapes pass through; auto resolves from the primary pattern
// type, falling back to a sphere without classification.
func ResolveShape(shape models.ShapeKind, cls *models.PatternClassification) models.ShapeKind {
	if shape != models.ShapeAuto && shape != "" {
		return shape
	}
	if cls == nil {
		return models.ShapeSphere
	}
	switch cls.Primary.Type {
	case models.PatternCircular:
		return models.ShapeSphere
	case models.PatternRadial:
		return models.ShapeTorus
	case models.PatternSpiral:
		return models.ShapeHelix
	case models.PatternPolygonal:
		switch {
		case cls.PolygonVertices == 3:
			return models.ShapePyramid
		case cls.PolygonVertices == 4:
			return models.ShapeCube
		default:
			return models.ShapeHexagonalPrism
		}
	case models.PatternHexagonal:
		return models.ShapeHexagonalPrism
	case models.PatternLinear:
		return models.ShapeWireframeSurface
	default:
		return models.ShapeEllipsoid
	}
}

// Generate builds the mesh for a pattern: base shape, pattern
// displacement from the point set, then the requested transform passes.
// Parameter validation and the face-budget check run before any geometry
// is synthesized.
func (g *Generator) Generate(ps *models.PointSet, cls *models.PatternClassification, shape models.ShapeKind, params models.GeometryParams) (*models.Mesh, error) {
	resolved := ResolveShape(shape, cls)
	if err := validateGeometryParams(resolved, params); err != nil {
		return nil, err
	}
	if err := g.checkBudget(resolved, params); err != nil {
		return nil, err
	}

	mesh, analyticSubdiv := baseShape(resolved, params)
	if !analyticSubdiv && params.SubdivisionLevel > 0 {
		mesh = Subdivide(mesh, params.SubdivisionLevel)
	}

	if ps != nil && len(ps.Points) > 0 {
		mesh = Displace(mesh, NewDisplacementField(ps), params.Curvature)
	}
	if params.ExtrusionDepth != 1 {
		mesh = Extrude(mesh, params.ExtrusionDepth)
	}
	if params.TwistAngle != 0 {
		mesh = Twist(mesh, params.TwistAngle)
	}
	if params.TaperScale != 1 {
		mesh = Taper(mesh, params.TaperScale)
	}
	if params.BendAngle != 0 {
		mesh = Bend(mesh, params.BendAngle)
	}
	if params.SmoothingIterations > 0 {
		mesh = Smooth(mesh, params.SmoothingIterations)
	}
	if params.Hollow {
		mesh = Hollow(mesh, params.WallThickness)
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	g.log.Info("mesh generated",
		zap.String("shape", string(resolved)),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("faces", len(mesh.Faces)))
	return mesh, nil
}

func validateGeometryParams(shape models.ShapeKind, p models.GeometryParams) error {
	switch shape {
	case models.ShapeSphere, models.ShapeTorus, models.ShapeEllipsoid,
		models.ShapeCone, models.ShapeCube, models.ShapeCuboid,
		models.ShapeHexagonalPrism, models.ShapePyramid, models.ShapeHelix,
		models.ShapeTwistedTorus, models.ShapeWireframeSurface:
	default:
		return models.NewInputError("shape", "unknown shape %q", string(shape))
	}
	if p.SubdivisionLevel < 0 || p.SubdivisionLevel > MaxSubdivisionLevel {
		return models.NewInputError("subdivision_level", "must be in [0, %d], got %d", MaxSubdivisionLevel, p.SubdivisionLevel)
	}
	if p.SmoothingIterations < 0 {
		return models.NewInputError("smoothing_iterations", "must be non-negative, got %d", p.SmoothingIterations)
	}
	if p.PatternScale <= 0 {
		return models.NewInputError("pattern_scale", "must be positive, got %v", p.PatternScale)
	}
	if p.Curvature < -1 || p.Curvature > 1 {
		return models.NewInputError("curvature", "must be in [-1, 1], got %v", p.Curvature)
	}
	if p.Hollow && p.WallThickness <= 0 {
		return models.NewInputError("wall_thickness", "must be positive when hollow, got %v", p.WallThickness)
	}
	return nil
}

// checkBudget projects the face count of the finished mesh and rejects
// the request before synthesis when it would exceed the budget.
func (g *Generator) checkBudget(shape models.ShapeKind, p models.GeometryParams) error {
	faces := baseFaceCount(shape) * int(math.Pow(4, float64(p.SubdivisionLevel)))
	if p.Hollow {
		faces *= 2
	}
	if faces > g.maxFaces {
		return &models.ResourceLimitError{Resource: "mesh faces", Requested: faces, Limit: g.maxFaces}
	}
	return nil
}

func baseFaceCount(shape models.ShapeKind) int {
	switch shape {
	case models.ShapeSphere, models.ShapeEllipsoid:
		return 20 * 1 << (2 * sphereBaseLevel)
	case models.ShapeTorus, models.ShapeTwistedTorus:
		return 2 * torusSegU * torusSegV
	case models.ShapeHelix:
		return 2*helixSegPath*helixSegRing + 2*helixSegRing
	case models.ShapeCone:
		return 64
	case models.ShapeCube, models.ShapeCuboid:
		return 12
	case models.ShapeHexagonalPrism:
		return 24
	case models.ShapePyramid:
		return 8
	case models.ShapeWireframeSurface:
		return 2 * (surfaceGrid - 1) * (surfaceGrid - 1)
	default:
		return 0
	}
}

// baseShape builds the unsubdivided mesh for a shape at the pattern
// scale. The second return reports whether subdivision was already folded
// into the analytic construction, which keeps spheres round instead of
// refining a polyhedral approximation.
func baseShape(shape models.ShapeKind, p models.GeometryParams) (*models.Mesh, bool) {
	s := p.PatternScale
	switch shape {
	case models.ShapeSphere:
		return Sphere(s, sphereBaseLevel+p.SubdivisionLevel), true
	case models.ShapeEllipsoid:
		return Ellipsoid(s, 0.75*s, 0.6*s, sphereBaseLevel+p.SubdivisionLevel), true
	case models.ShapeTorus:
		k := 1 << p.SubdivisionLevel
		return Torus(s, 0.3*s, torusSegU*k, torusSegV*k), true
	case models.ShapeTwistedTorus:
		k := 1 << p.SubdivisionLevel
		return TwistedTorus(s, 0.3*s, torusSegU*k, torusSegV*k, 3), true
	case models.ShapeHelix:
		k := 1 << p.SubdivisionLevel
		return HelixTube(0.6*s, 0.15*s, 1.5*s, 3, helixSegPath*k, helixSegRing*k), true
	case models.ShapeCone:
		return Cone(0.8*s, 1.5*s), false
	case models.ShapeCube:
		return Cube(1.2 * s), false
	case models.ShapeCuboid:
		return Cuboid(1.5*s, s, 0.75*s), false
	case models.ShapeHexagonalPrism:
		return HexagonalPrism(0.8*s, 1.2*s), false
	case models.ShapePyramid:
		return Pyramid(4, 0.9*s, 1.3*s), false
	case models.ShapeWireframeSurface:
		return surfaceMesh(s), false
	default:
		return Sphere(s, sphereBaseLevel+p.SubdivisionLevel), true
	}
}

// surfaceMesh builds a flat triangulated grid over the pattern footprint.
// Pattern relief is applied afterwards by the displacement pass, whose
// normals on a flat sheet point straight up.
func surfaceMesh(scale float64) *models.Mesh {
	m := &models.Mesh{}
	n := surfaceGrid
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			u := float64(i)/float64(n-1) - 0.5
			v := float64(j)/float64(n-1) - 0.5
			m.Vertices = append(m.Vertices, models.Vec3{X: 2 * u * scale, Y: 2 * v * scale})
		}
	}
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a := j*n + i
			b := j*n + i + 1
			c := (j+1)*n + i
			d := (j+1)*n + i + 1
			m.Faces = append(m.Faces, models.Face{a, b, d}, models.Face{a, d, c})
		}
	}
	finish(m)
	return m
}
