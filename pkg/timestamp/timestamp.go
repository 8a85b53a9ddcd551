// Package timestamp implements a multi-resolution time value with unit
// conversion (exact toward finer resolutions, truncating toward coarser
// ones), plus the immutable metadata describing the clock a timestamp was
// read from.
package timestamp

import "fmt"

// Resolution is the unit a Timestamp's Count is expressed in.
type Resolution int

const (
	Second Resolution = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (r Resolution) String() string {
	switch r {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	default:
		return "unknown"
	}
}

// nanosPerUnit is the number of nanoseconds in one unit of each resolution.
var nanosPerUnit = map[Resolution]int64{
	Second:      1_000_000_000,
	Millisecond: 1_000_000,
	Microsecond: 1_000,
	Nanosecond:  1,
}

// Timestamp is an integer count at a given resolution.
type Timestamp struct {
	Count      int64
	Resolution Resolution
}

// New constructs a Timestamp from an integer count at the given resolution.
func New(count int64, res Resolution) Timestamp {
	return Timestamp{Count: count, Resolution: res}
}

// NewFromSeconds constructs a Timestamp from a floating-point second count,
// truncating to the requested resolution.
func NewFromSeconds(seconds float64, res Resolution) Timestamp {
	unitsPerSecond := float64(nanosPerUnit[Second]) / float64(nanosPerUnit[res])
	return Timestamp{Count: int64(seconds * unitsPerSecond), Resolution: res}
}

// convert rescales Count from its stored resolution to the target
// resolution. Upscaling (target is finer) multiplies; downscaling (target is
// coarser) divides with truncation toward zero.
func (t Timestamp) convert(target Resolution) int64 {
	from := nanosPerUnit[t.Resolution]
	to := nanosPerUnit[target]
	if from == to {
		return t.Count
	}
	if from > to {
		// target is finer-grained: multiply.
		return t.Count * (from / to)
	}
	// target is coarser-grained: divide, truncating toward zero.
	return t.Count / (to / from)
}

// Nanoseconds returns the count rescaled to nanosecond resolution.
func (t Timestamp) Nanoseconds() int64 { return t.convert(Nanosecond) }

// Microseconds returns the count rescaled to microsecond resolution.
func (t Timestamp) Microseconds() int64 { return t.convert(Microsecond) }

// Milliseconds returns the count rescaled to millisecond resolution.
func (t Timestamp) Milliseconds() int64 { return t.convert(Millisecond) }

// Seconds returns the count rescaled to seconds, as a float.
func (t Timestamp) Seconds() float64 {
	return float64(t.Count) / (float64(nanosPerUnit[Second]) / float64(nanosPerUnit[t.Resolution]))
}

// SetResolution rewrites the resolution tag in place without rescaling the
// stored count. Callers must only use this on a freshly constructed
// Timestamp that will be assigned a real count before first use — it does
// not convert between clocks.
func (t *Timestamp) SetResolution(r Resolution) {
	t.Resolution = r
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d%s", t.Count, t.Resolution)
}

// Scope describes which clock domain a timestamp was read from.
type Scope int

const (
	PerSensor Scope = iota
	PerProcessor
	NetworkSynchronized
)

func (s Scope) String() string {
	switch s {
	case PerSensor:
		return "per-sensor"
	case PerProcessor:
		return "per-processor"
	case NetworkSynchronized:
		return "network-synchronized"
	default:
		return "unknown"
	}
}

// Basis describes the zero point of a clock.
type Basis int

const (
	Epoch Basis = iota
	SinceLastBoot
)

func (b Basis) String() string {
	switch b {
	case Epoch:
		return "epoch"
	case SinceLastBoot:
		return "since-last-boot"
	default:
		return "unknown"
	}
}

// Info is immutable metadata describing a clock: its scope, basis,
// resolution, accuracy, drift, and average latency, plus a default
// Timestamp prototype used to pre-fill fresh history slots.
type Info struct {
	Scope                 Scope
	Basis                 Basis
	ResolutionSeconds     float64
	AccuracySeconds       float64
	DriftSecondsPerHour   float64
	AverageLatencySeconds float64
	Default               Timestamp
}

func (i Info) String() string {
	return fmt.Sprintf("Info{scope=%s basis=%s res=%gs accuracy=±%gs drift=%gs/h latency=%gs}",
		i.Scope, i.Basis, i.ResolutionSeconds, i.AccuracySeconds, i.DriftSecondsPerHour, i.AverageLatencySeconds)
}
