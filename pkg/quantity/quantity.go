package quantity

import "strconv"

// Quantity is a self-describing numeric value. A compound quantity reports
// its contained parts; a scalar quantity reports a single printable string
// and no contained parts.
type Quantity interface {
	PrintableStrings() []string
	ContainedQuantities() ([]Quantity, bool)
	ContainedQuantityNames() ([]string, bool)
}

// Scalar is a single float32 value with linear interpolation. It is the
// simplest concrete Quantity and also satisfies the sample contract used by
// history.TimeHistory.
type Scalar struct {
	Value float32
	Unit  Unit
}

func (s *Scalar) CopyFrom(other *Scalar) {
	s.Value = other.Value
	s.Unit = other.Unit
}

// Interpolate computes the value at ratio t between s (from) and to,
// writing the result to out. out = from + (to-from)*ratio.
//
// The original implementation dropped the ratio term entirely (out =
// from+delta), which meant every interpolated scalar silently reported the
// "to" endpoint's value regardless of t. Corrected here.
func (s *Scalar) Interpolate(to *Scalar, t float64, out *Scalar) {
	delta := float64(to.Value - s.Value)
	out.Value = s.Value + float32(delta*t)
	out.Unit = s.Unit
}

func (s *Scalar) CloneNew() Scalar {
	return Scalar{Value: s.Value, Unit: s.Unit}
}

func (s *Scalar) PrintableParts(out *[]string) {
	*out = append(*out, strconv.FormatFloat(float64(s.Value), 'g', -1, 32))
}

func (s *Scalar) PrintableStrings() []string {
	var out []string
	s.PrintableParts(&out)
	return out
}

func (s *Scalar) ContainedQuantities() ([]Quantity, bool) {
	return nil, false
}

func (s *Scalar) ContainedQuantityNames() ([]string, bool) {
	return nil, false
}
