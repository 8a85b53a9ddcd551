// Package quaternion implements a unit quaternion sample type: Hamilton
// product, inverse, gravity/yaw-pitch-roll extraction, and spherical linear
// interpolation (SLERP) with its colinear and antipodal edge cases.
package quaternion

import (
	"math"
	"strconv"

	"github.com/kauailabs/sf2go/pkg/quantity"
)

// Quaternion is a four-component rotation value (w, x, y, z). As an
// orientation it is expected to be a unit quaternion: w²+x²+y²+z² ≈ 1.
type Quaternion struct {
	W, X, Y, Z float32
}

// Identity returns the identity rotation (1, 0, 0, 0).
func Identity() Quaternion { return Quaternion{W: 1} }

// CopyFrom overwrites q with other's components, in place.
func (q *Quaternion) CopyFrom(other *Quaternion) {
	*q = *other
}

// CloneNew allocates an independent copy of q.
func (q *Quaternion) CloneNew() Quaternion {
	return *q
}

// Multiply computes the Hamilton product q*other and stores it in q. The
// operation is non-commutative.
func (q *Quaternion) Multiply(other *Quaternion) {
	w := q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z
	x := q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y
	y := q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X
	z := q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W
	q.W, q.X, q.Y, q.Z = w, x, y, z
}

// Conjugate negates the vector part (x, y, z), in place.
func (q *Quaternion) Conjugate() {
	q.X = -q.X
	q.Y = -q.Y
	q.Z = -q.Z
}

// Dot returns the 4-vector dot product of a and b.
func Dot(a, b *Quaternion) float64 {
	return float64(a.W)*float64(b.W) + float64(a.X)*float64(b.X) + float64(a.Y)*float64(b.Y) + float64(a.Z)*float64(b.Z)
}

// Inverse conjugates q then divides each component by dot(q, q), in place.
func (q *Quaternion) Inverse() {
	q.Conjugate()
	d := Dot(q, q)
	if d == 0 {
		return
	}
	q.W = float32(float64(q.W) / d)
	q.X = float32(float64(q.X) / d)
	q.Y = float32(float64(q.Y) / d)
	q.Z = float32(float64(q.Z) / d)
}

// Difference computes out = a⁻¹ * b.
func Difference(a, b *Quaternion, out *Quaternion) {
	inv := *a
	inv.Inverse()
	inv.Multiply(b)
	*out = inv
}

// Gravity extracts the gravity vector implied by q as an orientation.
func (q *Quaternion) Gravity() (gx, gy, gz float64) {
	w, x, y, z := float64(q.W), float64(q.X), float64(q.Y), float64(q.Z)
	gx = 2 * (x*z - w*y)
	gy = 2 * (w*x + y*z)
	gz = w*w - x*x - y*y + z*z
	return gx, gy, gz
}

// YawPitchRollRadians derives yaw, pitch and roll in radians from q via the
// classical gravity-vector formulas. Callers scale to degrees as needed.
func (q *Quaternion) YawPitchRollRadians() (yaw, pitch, roll float64) {
	w, x, y, z := float64(q.W), float64(q.X), float64(q.Y), float64(q.Z)
	gx, gy, gz := q.Gravity()

	yaw = math.Atan2(2*(x*y-w*z), 2*(w*w+x*x)-1)
	pitch = math.Atan(gy / math.Sqrt(gx*gx+gz*gz))
	roll = math.Atan(gx / math.Sqrt(gy*gy+gz*gz))
	return yaw, pitch, roll
}

// Interpolate computes the SLERP of q (from) and to at ratio t in [0,1],
// writing the result to out. q and to are left unchanged.
//
// Edge cases, both normative:
//   - cosθ ≥ 1 (colinear, same direction): out = q, returned verbatim.
//   - |sinθ| < 0.001 (antipodal/degenerate, including cosθ ≤ -1): out is
//     the componentwise average 0.5*q + 0.5*to, not a meaningful rotation —
//     callers must not treat this branch's result as a valid orientation,
//     only as the documented degenerate behavior.
//
// cosθ ≤ -1 deliberately falls into the antipodal branch rather than the
// colinear one: treating it as colinear would return q verbatim for exact
// opposites, which isn't the degenerate average the antipodal case calls
// for.
func (q *Quaternion) Interpolate(to *Quaternion, t float64, out *Quaternion) {
	cosTheta := Dot(q, to)

	if cosTheta >= 1 {
		*out = *q
		return
	}

	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	if math.Abs(sinTheta) < 0.001 {
		out.W = 0.5*q.W + 0.5*to.W
		out.X = 0.5*q.X + 0.5*to.X
		out.Y = 0.5*q.Y + 0.5*to.Y
		out.Z = 0.5*q.Z + 0.5*to.Z
		return
	}

	theta := math.Acos(cosTheta)
	a := math.Sin((1-t)*theta) / sinTheta
	b := math.Sin(t*theta) / sinTheta

	out.W = float32(a*float64(q.W) + b*float64(to.W))
	out.X = float32(a*float64(q.X) + b*float64(to.X))
	out.Y = float32(a*float64(q.Y) + b*float64(to.Y))
	out.Z = float32(a*float64(q.Z) + b*float64(to.Z))
}

// PrintableParts appends w, x, y, z (in that order) to out.
func (q *Quaternion) PrintableParts(out *[]string) {
	*out = append(*out,
		strconv.FormatFloat(float64(q.W), 'g', -1, 32),
		strconv.FormatFloat(float64(q.X), 'g', -1, 32),
		strconv.FormatFloat(float64(q.Y), 'g', -1, 32),
		strconv.FormatFloat(float64(q.Z), 'g', -1, 32),
	)
}

// PrintableStrings implements quantity.Quantity.
func (q *Quaternion) PrintableStrings() []string {
	var out []string
	q.PrintableParts(&out)
	return out
}

// ContainedQuantities decomposes q into four named scalar quantities.
func (q *Quaternion) ContainedQuantities() ([]quantity.Quantity, bool) {
	return []quantity.Quantity{
		&quantity.Scalar{Value: q.W, Unit: quantity.Unitless.Primary},
		&quantity.Scalar{Value: q.X, Unit: quantity.Unitless.Primary},
		&quantity.Scalar{Value: q.Y, Unit: quantity.Unitless.Primary},
		&quantity.Scalar{Value: q.Z, Unit: quantity.Unitless.Primary},
	}, true
}

// ContainedQuantityNames returns the names of the four decomposed scalars.
func (q *Quaternion) ContainedQuantityNames() ([]string, bool) {
	return []string{"W", "X", "Y", "Z"}, true
}
