package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat is a column-major 4x4 affine matrix.
type Mat = mgl64.Mat4

// Quat is a unit rotation quaternion.
type Quat = mgl64.Quat

// Axes used when composing rotations.
var (
	AxisX = V(1, 0, 0)
	AxisY = V(0, 1, 0)
	AxisZ = V(0, 0, 1)
)

// Rotator is an Euler rotation in degrees: pitch about Y, yaw about Z and
// roll about X, applied roll first.
type Rotator struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// Quat converts the rotator to a quaternion.
func (r Rotator) Quat() Quat {
	return mgl64.AnglesToQuat(radians(r.Yaw), radians(r.Pitch), radians(r.Roll), mgl64.ZYX)
}

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis Vec, angle float64) Quat {
	return mgl64.QuatRotate(angle, toMgl(Normalize(axis)))
}

// IdentityQuat returns the no-op rotation.
func IdentityQuat() Quat {
	return mgl64.QuatIdent()
}

// Rotate applies q to v.
func Rotate(q Quat, v Vec) Vec {
	return fromMgl(q.Rotate(toMgl(v)))
}

// Transform is a rigid placement with per-axis scale. The zero Rotation and
// zero Scale are read as identity so that the zero Transform is the identity.
type Transform struct {
	Translation Vec
	Rotation    Quat
	Scale       Vec
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent(), Scale: Splat(1)}
}

// Translation returns a pure translation.
func Translation(t Vec) Transform {
	x := Identity()
	x.Translation = t
	return x
}

// NewTransform builds a transform from a rotator, position and scale.
func NewTransform(r Rotator, t Vec, s Vec) Transform {
	return Transform{Translation: t, Rotation: r.Quat(), Scale: s}
}

func (t Transform) rotation() Quat {
	if t.Rotation == (Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation.Normalize()
}

func (t Transform) scale() Vec {
	if t.Scale == (Vec{}) {
		return Splat(1)
	}
	return t.Scale
}

// Matrix returns T * R * S.
func (t Transform) Matrix() Mat {
	s := t.scale()
	m := mgl64.Translate3D(t.Translation.X, t.Translation.Y, t.Translation.Z)
	m = m.Mul4(t.rotation().Mat4())
	return m.Mul4(mgl64.Scale3D(s.X, s.Y, s.Z))
}

// TransformFromMatrix decomposes an affine matrix without shear into
// translation, rotation and scale. A mirrored matrix gets a negative X
// scale.
func TransformFromMatrix(m Mat) Transform {
	t := Vec{X: m[12], Y: m[13], Z: m[14]}
	cx := Vec{X: m[0], Y: m[1], Z: m[2]}
	cy := Vec{X: m[4], Y: m[5], Z: m[6]}
	cz := Vec{X: m[8], Y: m[9], Z: m[10]}
	s := V(Length(cx), Length(cy), Length(cz))
	if s.X < Epsilon || s.Y < Epsilon || s.Z < Epsilon {
		return Transform{Translation: t, Rotation: mgl64.QuatIdent(), Scale: s}
	}
	if m.Det() < 0 {
		s.X = -s.X
	}
	r := mgl64.Mat4{
		m[0] / s.X, m[1] / s.X, m[2] / s.X, 0,
		m[4] / s.Y, m[5] / s.Y, m[6] / s.Y, 0,
		m[8] / s.Z, m[9] / s.Z, m[10] / s.Z, 0,
		0, 0, 0, 1,
	}
	return Transform{Translation: t, Rotation: mgl64.Mat4ToQuat(r).Normalize(), Scale: s}
}

// TransformPosition applies the transform to a point.
func (t Transform) TransformPosition(p Vec) Vec {
	return TransformPosition(t.Matrix(), p)
}

// UnitAxis returns the transformed direction of a basis axis.
func (t Transform) UnitAxis(axis Vec) Vec {
	return Normalize(Rotate(t.rotation(), axis))
}

// ConcatenateRotation post-multiplies the rotation by q, rotating in the
// transform's local frame.
func (t Transform) ConcatenateRotation(q Quat) Transform {
	t.Rotation = t.rotation().Mul(q).Normalize()
	return t
}

// IsIdentity reports whether the transform leaves points unchanged.
func (t Transform) IsIdentity() bool {
	q := t.rotation()
	return t.Translation == (Vec{}) && t.scale() == Splat(1) &&
		math.Abs(math.Abs(q.W)-1) < Epsilon
}

// Identity4 returns the identity matrix.
func Identity4() Mat {
	return mgl64.Ident4()
}

// TransformPosition applies m to a point.
func TransformPosition(m Mat, p Vec) Vec {
	return fromMgl(mgl64.TransformCoordinate(toMgl(p), m))
}

// TransformVector applies the linear part of m to a direction.
func TransformVector(m Mat, v Vec) Vec {
	return fromMgl(mgl64.TransformNormal(toMgl(v), m))
}

// Inverse returns the inverse of m.
func Inverse(m Mat) Mat {
	return m.Inv()
}

// Determinant returns det(m).
func Determinant(m Mat) float64 {
	return m.Det()
}

func toMgl(v Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) Vec {
	return Vec{X: v[0], Y: v[1], Z: v[2]}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return radians(deg)
}
