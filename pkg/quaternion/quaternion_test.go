package quaternion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const tolerance = 1e-4

func approxEqualOpt() cmp.Option {
	return cmpopts.EquateApprox(0, tolerance)
}

func TestMultiplyIdentity(t *testing.T) {
	q := Quaternion{W: 0.7071, X: 0, Y: 0, Z: 0.7071}
	id := Identity()
	got := q
	got.Multiply(&id)
	if diff := cmp.Diff(q, got, approxEqualOpt()); diff != "" {
		t.Errorf("q*identity mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiplyAssociative(t *testing.T) {
	a := Quaternion{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5}
	b := Quaternion{W: 0.7071, X: 0, Y: 0.7071, Z: 0}
	c := Quaternion{W: 0, X: 1, Y: 0, Z: 0}

	ab := a
	ab.Multiply(&b)
	left := ab
	left.Multiply(&c)

	bc := b
	bc.Multiply(&c)
	right := a
	right.Multiply(&bc)

	if diff := cmp.Diff(left, right, approxEqualOpt()); diff != "" {
		t.Errorf("(a*b)*c != a*(b*c) (-left +right):\n%s", diff)
	}
}

func TestConjugateInvolution(t *testing.T) {
	q := Quaternion{W: 0.1, X: 0.2, Y: 0.3, Z: 0.9}
	got := q
	got.Conjugate()
	got.Conjugate()
	if got != q {
		t.Errorf("conjugate(conjugate(q)) = %+v, want %+v", got, q)
	}
}

func TestInverseIdentity(t *testing.T) {
	w, x, y, z := 0.7071, 0.0, 0.7071, 0.0
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	q := Quaternion{W: float32(w / n), X: float32(x / n), Y: float32(y / n), Z: float32(z / n)}

	inv := q
	inv.Inverse()

	got := q
	got.Multiply(&inv)

	want := Identity()
	if diff := cmp.Diff(want, got, approxEqualOpt()); diff != "" {
		t.Errorf("q*q^-1 != identity (-want +got):\n%s", diff)
	}
}

// Scenario D: colinear SLERP returns the first operand verbatim.
func TestSlerpColinear(t *testing.T) {
	q := Quaternion{W: 1}
	var out Quaternion
	q.Interpolate(&q, 0.3, &out)
	if out != q {
		t.Errorf("slerp(q,q,0.3) = %+v, want %+v", out, q)
	}
}

// Scenario E: antipodal SLERP takes the degenerate componentwise-average
// branch, not a meaningful rotation.
func TestSlerpAntipodalDegenerateAverage(t *testing.T) {
	a := Quaternion{W: 1}
	b := Quaternion{W: -1}
	var out Quaternion
	a.Interpolate(&b, 0.5, &out)

	want := Quaternion{}
	if out != want {
		t.Errorf("antipodal slerp = %+v, want degenerate average %+v", out, want)
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := Quaternion{W: 1}
	b := Quaternion{W: 0.7071, X: 0, Y: 0, Z: 0.7071}

	var out0, out1 Quaternion
	a.Interpolate(&b, 0, &out0)
	a.Interpolate(&b, 1, &out1)

	if diff := cmp.Diff(a, out0, approxEqualOpt()); diff != "" {
		t.Errorf("slerp(a,b,0) != a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b, out1, approxEqualOpt()); diff != "" {
		t.Errorf("slerp(a,b,1) != b (-want +got):\n%s", diff)
	}
}

// Scenario C: bracketed SLERP of a 90-degree z rotation at the midpoint
// approximates the 45-degree z rotation.
func TestSlerpQuarterTurn(t *testing.T) {
	a := Identity()
	b := Quaternion{W: float32(math.Cos(math.Pi / 4)), Z: float32(math.Sin(math.Pi / 4))}

	var out Quaternion
	a.Interpolate(&b, 0.5, &out)

	want := Quaternion{W: float32(math.Cos(math.Pi / 8)), Z: float32(math.Sin(math.Pi / 8))}
	if diff := cmp.Diff(want, out, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Errorf("slerp quarter turn mismatch (-want +got):\n%s", diff)
	}
}

// Invariant 5: SLERP's rotation angle from qa grows linearly with t.
func TestSlerpAngleIsLinearInT(t *testing.T) {
	qa := Identity()
	qb := Quaternion{W: float32(math.Cos(math.Pi / 3)), Y: float32(math.Sin(math.Pi / 3))}

	var prevAngle float64
	for i, tRatio := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		var out Quaternion
		qa.Interpolate(&qb, tRatio, &out)
		angle := math.Acos(clamp(Dot(&qa, &out), -1, 1))
		expected := tRatio * math.Acos(clamp(Dot(&qa, &qb), -1, 1))
		if math.Abs(angle-expected) > 1e-3 {
			t.Errorf("t=%v: angle=%v, want≈%v", tRatio, angle, expected)
		}
		if i > 0 && angle < prevAngle-1e-9 {
			t.Errorf("angle decreased between steps: %v then %v", prevAngle, angle)
		}
		prevAngle = angle
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func TestYawPitchRollIdentity(t *testing.T) {
	q := Identity()
	yaw, pitch, roll := q.YawPitchRollRadians()
	for name, v := range map[string]float64{"yaw": yaw, "pitch": pitch, "roll": roll} {
		if math.Abs(v) > 1e-6 {
			t.Errorf("%s = %v, want ≈0 for identity orientation", name, v)
		}
	}
}

func TestContainedQuantities(t *testing.T) {
	q := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	names, ok := q.ContainedQuantityNames()
	if !ok {
		t.Fatal("expected ContainedQuantityNames to report ok=true")
	}
	want := []string{"W", "X", "Y", "Z"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	quantities, ok := q.ContainedQuantities()
	if !ok || len(quantities) != 4 {
		t.Fatalf("expected 4 contained quantities, got %d (ok=%v)", len(quantities), ok)
	}
}
