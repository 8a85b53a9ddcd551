package sample

import "github.com/kauailabs/sf2go/pkg/quantity"

const (
	flagValid        uint8 = 1 << 0
	flagInterpolated uint8 = 1 << 1
)

// TimestampedValue wraps an inner value V (accessed through pointer type PV)
// with a sensor timestamp and validity/interpolated flags. It is allocated
// once per history.TimeHistory ring slot and mutated in place thereafter —
// it is never freed until the owning history is destroyed.
type TimestampedValue[V any, PV Value[V]] struct {
	Value     V
	Timestamp int64
	flags     uint8
}

// New constructs a TimestampedValue carrying value at ts, marked valid.
func New[V any, PV Value[V]](value V, ts int64) TimestampedValue[V, PV] {
	return TimestampedValue[V, PV]{Value: value, Timestamp: ts, flags: flagValid}
}

// Valid reports whether the slot currently holds a live sample.
func (v *TimestampedValue[V, PV]) Valid() bool { return v.flags&flagValid != 0 }

// Interpolated reports whether the slot was synthesized by Interpolate
// rather than copied verbatim from a real sample.
func (v *TimestampedValue[V, PV]) Interpolated() bool { return v.flags&flagInterpolated != 0 }

// ClearInterpolated clears the INTERPOLATED flag, used by TimeHistory.Get
// when it returns an exact match.
func (v *TimestampedValue[V, PV]) ClearInterpolated() {
	v.flags &^= flagInterpolated
}

// CopyFrom overwrites v with other's value and timestamp, in place, marking
// v valid and not interpolated.
func (v *TimestampedValue[V, PV]) CopyFrom(other *TimestampedValue[V, PV]) {
	PV(&v.Value).CopyFrom(&other.Value)
	v.Timestamp = other.Timestamp
	v.flags = flagValid
}

// Interpolate computes the sample at ratio between v (from) and to, writing
// the result to out, including out's timestamp.
//
// The original source computed out.timestamp = (to.ts-from.ts)*ratio,
// dropping the from.ts offset — every interpolated sample's timestamp was
// just the scaled delta, not a point between from.ts and to.ts. Corrected
// to the formula callers actually assume: from.ts + (to.ts-from.ts)*ratio.
func (v *TimestampedValue[V, PV]) Interpolate(to *TimestampedValue[V, PV], ratio float64, out *TimestampedValue[V, PV]) {
	PV(&v.Value).Interpolate(&to.Value, ratio, &out.Value)
	out.Timestamp = v.Timestamp + int64(float64(to.Timestamp-v.Timestamp)*ratio)
	out.flags = flagValid | flagInterpolated
}

// CloneNew allocates an independent copy of v, used only at TimeHistory
// construction to pre-fill slots from a prototype.
func (v *TimestampedValue[V, PV]) CloneNew() TimestampedValue[V, PV] {
	return TimestampedValue[V, PV]{
		Value:     PV(&v.Value).CloneNew(),
		Timestamp: v.Timestamp,
		flags:     v.flags,
	}
}

// PrintableParts appends the inner value's printable fields to out.
func (v *TimestampedValue[V, PV]) PrintableParts(out *[]string) {
	PV(&v.Value).PrintableParts(out)
}

// ContainedQuantities delegates to the inner value.
func (v *TimestampedValue[V, PV]) ContainedQuantities() ([]quantity.Quantity, bool) {
	return PV(&v.Value).ContainedQuantities()
}

// ContainedQuantityNames delegates to the inner value.
func (v *TimestampedValue[V, PV]) ContainedQuantityNames() ([]string, bool) {
	return PV(&v.Value).ContainedQuantityNames()
}

// SampleTimestamp returns the sensor timestamp carried by v.
func (v *TimestampedValue[V, PV]) SampleTimestamp() int64 { return v.Timestamp }
