package geometry

import "math"

// Vec3 is a point in either a node's local frame or the world frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform is an affine placement: rotate, then translate.
type Transform struct {
	Rotation    [9]float64 // row-major 3x3
	Translation Vec3
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Translate returns a pure translation.
func Translate(x, y, z float64) Transform {
	t := Identity()
	t.Translation = Vec3{x, y, z}
	return t
}

// RotationXYZ builds Rz·Ry·Rx from angles in degrees, so x is applied
// first.
func RotationXYZ(ax, ay, az float64) [9]float64 {
	rx := axisRotation(0, ax)
	ry := axisRotation(1, ay)
	rz := axisRotation(2, az)
	return mul3(rz, mul3(ry, rx))
}

func axisRotation(axis int, deg float64) [9]float64 {
	s, c := math.Sincos(deg * math.Pi / 180)
	switch axis {
	case 0:
		return [9]float64{1, 0, 0, 0, c, -s, 0, s, c}
	case 1:
		return [9]float64{c, 0, s, 0, 1, 0, -s, 0, c}
	default:
		return [9]float64{c, -s, 0, s, c, 0, 0, 0, 1}
	}
}

func mul3(a, b [9]float64) [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
		}
	}
	return out
}

func (t Transform) rotate(p Vec3) Vec3 {
	r := t.Rotation
	return Vec3{
		X: r[0]*p.X + r[1]*p.Y + r[2]*p.Z,
		Y: r[3]*p.X + r[4]*p.Y + r[5]*p.Z,
		Z: r[6]*p.X + r[7]*p.Y + r[8]*p.Z,
	}
}

// LocalToMaster maps a point from the transform's local frame into its
// mother frame.
func (t Transform) LocalToMaster(p Vec3) Vec3 {
	q := t.rotate(p)
	return Vec3{q.X + t.Translation.X, q.Y + t.Translation.Y, q.Z + t.Translation.Z}
}

// Compose returns the transform equivalent to applying child first and
// then t.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Rotation:    mul3(t.Rotation, child.Rotation),
		Translation: t.LocalToMaster(child.Translation),
	}
}
