package history

import "github.com/kauailabs/sf2go/pkg/quantity"

// Sample is the capability set a value type T must provide, via its pointer
// type, to be stored and interpolated by a TimeHistory. This replaces the
// original design's cyclic pair of interfaces (a "sample" interface
// referencing an "interpolator" interface that referenced the sample type
// back) with one set bound monomorphically at TimeHistory construction —
// there is no dynamic dispatch in the hot path.
//
// T is normally a TimestampedValue[V] for some inner value type V: the
// timestamp and interpolated-flag bookkeeping live here, not on the bare
// sensor value.
//
// PT is always *T in practice; the split exists only so the interface can
// name pointer-receiver methods as a type constraint.
type Sample[T any] interface {
	*T

	// CopyFrom overwrites the receiver with other's value, in place, and
	// marks the receiver valid.
	CopyFrom(other *T)
	// Interpolate computes the sample at ratio t in [0,1] between the
	// receiver and to, writing the result to out and marking out
	// interpolated. The receiver and to are left unchanged.
	Interpolate(to *T, ratio float64, out *T)
	// CloneNew allocates an independent copy. Used only at TimeHistory
	// construction to pre-fill slots from a prototype.
	CloneNew() T
	// PrintableParts appends the value's printable fields to out.
	PrintableParts(out *[]string)
	// ContainedQuantities/ContainedQuantityNames report a compound
	// value's component quantities, or (nil, false) for a scalar.
	ContainedQuantities() ([]quantity.Quantity, bool)
	ContainedQuantityNames() ([]string, bool)
	// SampleTimestamp returns the sensor timestamp carried by the sample,
	// in the resolution implicit in the enclosing TimeHistory.
	SampleTimestamp() int64
	// ClearInterpolated clears the INTERPOLATED flag, used when Get
	// returns an exact match rather than a synthesized one.
	ClearInterpolated()
}
