package geometry

import "math"

type ShapeKind string

const (
	KindBox     ShapeKind = "box"
	KindTrd     ShapeKind = "trd"
	KindTube    ShapeKind = "tube"
	KindTubeSeg ShapeKind = "tube_seg"
)

// Shape is the solid attached to a logical volume. Every shape exposes
// the half extents of its bounding box, so callers that only need a
// vertical extent can treat all non-segment shapes alike.
type Shape interface {
	Kind() ShapeKind
	// HalfExtents returns the bounding-box half lengths along x, y, z.
	HalfExtents() Vec3
}

// HalfHeight is the bounding-box half extent along y.
func HalfHeight(s Shape) float64 {
	return s.HalfExtents().Y
}

type Box struct {
	DX, DY, DZ float64
}

func (b *Box) Kind() ShapeKind { return KindBox }

func (b *Box) HalfExtents() Vec3 { return Vec3{b.DX, b.DY, b.DZ} }

// Trd is a trapezoid whose x and y half lengths change linearly from
// -DZ to +DZ.
type Trd struct {
	DX1, DX2, DY1, DY2, DZ float64
}

func (t *Trd) Kind() ShapeKind { return KindTrd }

func (t *Trd) HalfExtents() Vec3 {
	return Vec3{math.Max(t.DX1, t.DX2), math.Max(t.DY1, t.DY2), t.DZ}
}

type Tube struct {
	RMin, RMax, DZ float64
}

func (t *Tube) Kind() ShapeKind { return KindTube }

func (t *Tube) HalfExtents() Vec3 { return Vec3{t.RMax, t.RMax, t.DZ} }

// TubeSegment is a tube restricted to the azimuthal range [Phi1, Phi2],
// angles in degrees.
type TubeSegment struct {
	RMin, RMax, DZ float64
	Phi1, Phi2     float64
}

func (t *TubeSegment) Kind() ShapeKind { return KindTubeSeg }

// MidRadius is halfway between the inner and outer radius.
func (t *TubeSegment) MidRadius() float64 {
	return 0.5 * (t.RMin + t.RMax)
}

// HalfExtents bounds the annular sector: its corner points plus every
// axis crossing that falls inside the phi range. Non-finite angles are
// treated as a full ring.
func (t *TubeSegment) HalfExtents() Vec3 {
	phi1, span := normalizePhi(t.Phi1, t.Phi2)
	phi2 := phi1 + span

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	include := func(r, deg float64) {
		s, c := math.Sincos(deg * math.Pi / 180)
		minX, maxX = math.Min(minX, r*c), math.Max(maxX, r*c)
		minY, maxY = math.Min(minY, r*s), math.Max(maxY, r*s)
	}
	for _, r := range []float64{t.RMin, t.RMax} {
		include(r, phi1)
		include(r, phi2)
	}
	// phi1 is in [0, 360) and span in (0, 360], so at most four crossings.
	for axis := math.Ceil(phi1/90) * 90; axis < phi2; axis += 90 {
		include(t.RMax, axis)
	}
	return Vec3{(maxX - minX) / 2, (maxY - minY) / 2, t.DZ}
}

// normalizePhi maps the range [phi1, phi2] to a start in [0, 360) and a
// positive span of at most 360 degrees.
func normalizePhi(phi1, phi2 float64) (start, span float64) {
	if math.IsInf(phi1, 0) || math.IsNaN(phi1) || math.IsInf(phi2, 0) || math.IsNaN(phi2) {
		return 0, 360
	}
	span = math.Mod(phi2-phi1, 360)
	if span <= 0 {
		span += 360
	}
	start = math.Mod(phi1, 360)
	if start < 0 {
		start += 360
	}
	return start, span
}
