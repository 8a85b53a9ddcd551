// Package quantity implements the self-describing numeric value layer
// (scalars and compound quantities) and the flat unit/unit-family metadata
// used to label them. The original design nested unit types several levels
// deep; here it collapses to one flat record plus a constant registry, since
// the hierarchy was presentation metadata only and never touched arithmetic.
package quantity

// Unit is a name, an abbreviation, and a pair of pure conversion functions
// to and from the family's primary unit.
type Unit struct {
	Name         string
	Abbreviation string
	ToPrimary    func(float64) float64
	FromPrimary  func(float64) float64
}

// Family groups one primary unit with zero or more secondary units that
// convert to and from it.
type Family struct {
	Primary   Unit
	Secondary []Unit
}

func identity(x float64) float64 { return x }

// Package-level unit-family singletons. Construction is pure, so these are
// safe to initialize once at package load and shared for the process
// lifetime — there is no teardown.
var (
	Meters = Family{
		Primary: Unit{Name: "meter", Abbreviation: "m", ToPrimary: identity, FromPrimary: identity},
		Secondary: []Unit{
			{Name: "centimeter", Abbreviation: "cm", ToPrimary: func(x float64) float64 { return x / 100 }, FromPrimary: func(x float64) float64 { return x * 100 }},
			{Name: "foot", Abbreviation: "ft", ToPrimary: func(x float64) float64 { return x * 0.3048 }, FromPrimary: func(x float64) float64 { return x / 0.3048 }},
		},
	}

	Seconds = Family{
		Primary: Unit{Name: "second", Abbreviation: "s", ToPrimary: identity, FromPrimary: identity},
		Secondary: []Unit{
			{Name: "millisecond", Abbreviation: "ms", ToPrimary: func(x float64) float64 { return x / 1000 }, FromPrimary: func(x float64) float64 { return x * 1000 }},
			{Name: "microsecond", Abbreviation: "us", ToPrimary: func(x float64) float64 { return x / 1_000_000 }, FromPrimary: func(x float64) float64 { return x * 1_000_000 }},
		},
	}

	Degrees = Family{
		Primary: Unit{Name: "radian", Abbreviation: "rad", ToPrimary: identity, FromPrimary: identity},
		Secondary: []Unit{
			{Name: "degree", Abbreviation: "deg",
				ToPrimary:   func(x float64) float64 { return x * (3.14159265358979323846 / 180) },
				FromPrimary: func(x float64) float64 { return x * (180 / 3.14159265358979323846) },
			},
		},
	}

	// Unitless is used for quantities with no physical unit (e.g. the
	// dimensionless components of a unit quaternion).
	Unitless = Family{
		Primary: Unit{Name: "unitless", Abbreviation: "", ToPrimary: identity, FromPrimary: identity},
	}
)
