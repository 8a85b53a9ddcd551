// Package sample implements TimestampedValue, the generic sample wrapper
// that composes an inner value type's copy/interpolate/printable contract
// with the timestamp and validity/interpolated-flag bookkeeping a
// history.TimeHistory needs.
package sample

import "github.com/kauailabs/sf2go/pkg/quantity"

// Value is the contract an inner sample value type V must satisfy, via its
// pointer type PV, to be wrapped in a TimestampedValue. Quaternion and
// quantity.Scalar both satisfy it.
type Value[V any] interface {
	*V

	CopyFrom(other *V)
	Interpolate(to *V, ratio float64, out *V)
	CloneNew() V
	PrintableParts(out *[]string)
	ContainedQuantities() ([]quantity.Quantity, bool)
	ContainedQuantityNames() ([]string, bool)
}
