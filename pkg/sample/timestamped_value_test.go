package sample

import (
	"testing"

	"github.com/kauailabs/sf2go/pkg/quantity"
)

type scalarValue = TimestampedValue[quantity.Scalar, *quantity.Scalar]

// The original implementation computed out.timestamp = (to.ts-from.ts)*ratio,
// dropping the from.ts offset, so every interpolated sample's timestamp was
// just the scaled delta rather than a point between the two endpoints.
func TestInterpolateTimestampIncludesFromOffset(t *testing.T) {
	from := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 1}, 1000)
	to := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 3}, 2000)

	var out scalarValue
	from.Interpolate(&to, 0.25, &out)

	if got, want := out.Timestamp, int64(1250); got != want {
		t.Errorf("Timestamp = %d, want %d", got, want)
	}
	if got, want := out.Value.Value, float32(1.5); got != want {
		t.Errorf("Value = %v, want %v", got, want)
	}
}

func TestInterpolateMarksInterpolatedFlag(t *testing.T) {
	from := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 1}, 0)
	to := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 2}, 100)

	var out scalarValue
	from.Interpolate(&to, 0.5, &out)

	if !out.Valid() {
		t.Error("interpolated sample should be valid")
	}
	if !out.Interpolated() {
		t.Error("interpolated sample should have the interpolated flag set")
	}
}

func TestClearInterpolatedKeepsValidFlag(t *testing.T) {
	from := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 1}, 0)
	to := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 2}, 100)

	var interpolated scalarValue
	from.Interpolate(&to, 0.5, &interpolated)
	if !interpolated.Interpolated() {
		t.Fatal("setup: expected interpolated flag set")
	}

	interpolated.ClearInterpolated()
	if interpolated.Interpolated() {
		t.Error("ClearInterpolated did not clear the flag")
	}
	if !interpolated.Valid() {
		t.Error("ClearInterpolated must not clear validity")
	}
}

func TestCopyFromOverwritesValueAndTimestamp(t *testing.T) {
	dst := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 0}, 0)
	src := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 9}, 500)

	dst.CopyFrom(&src)
	if dst.Value.Value != 9 || dst.Timestamp != 500 {
		t.Errorf("CopyFrom = {%v %v}, want {9 500}", dst.Value.Value, dst.Timestamp)
	}
	if !dst.Valid() || dst.Interpolated() {
		t.Error("CopyFrom must mark valid and not interpolated")
	}
}

func TestCloneNewIsIndependent(t *testing.T) {
	original := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 5}, 1)
	clone := original.CloneNew()
	clone.Value.Value = 99

	if original.Value.Value == clone.Value.Value {
		t.Error("CloneNew did not produce an independent copy")
	}
}

func TestPrintableParts(t *testing.T) {
	v := New[quantity.Scalar, *quantity.Scalar](quantity.Scalar{Value: 4}, 0)
	var parts []string
	v.PrintableParts(&parts)
	if len(parts) != 1 || parts[0] != "4" {
		t.Errorf("PrintableParts = %v, want [\"4\"]", parts)
	}
}
