// Package price holds the user-adjustable max-price ceiling sent with each
// recommendation request.
package price

import "strconv"

const (
	// Min is the lowest selectable ceiling.
	Min = 0
	// Max is the highest selectable ceiling and doubles as the "no upper bound"
	// sentinel.
	Max = 10000
	// Step is the increment used by Increase and Decrease.
	Step = 50
	// Default is the initial ceiling.
	Default = 1000
)

// Bound is the effective price limit for one request.
type Bound struct {
	Value     int
	Unbounded bool
}

// String renders the bound for logs.
func (b Bound) String() string {
	if b.Unbounded {
		return "unbounded"
	}
	return strconv.Itoa(b.Value)
}

// Ceiling is a value in [Min, Max] snapped to Step. The zero value is a ceiling of
// 0; use New for the default.
type Ceiling struct {
	value int
}

// New returns a ceiling set to v after clamping and snapping.
func New(v int) Ceiling {
	var c Ceiling
	c.Set(v)
	return c
}

// Value returns the current ceiling.
func (c Ceiling) Value() int {
	return c.value
}

// Set clamps v to [Min, Max] and rounds it to the nearest Step.
func (c *Ceiling) Set(v int) {
	if v < Min {
		v = Min
	}
	if v > Max {
		v = Max
	}
	v = (v + Step/2) / Step * Step
	if v > Max {
		v = Max
	}
	c.value = v
}

// Increase moves the ceiling up by one step.
func (c *Ceiling) Increase() {
	c.Set(c.value + Step)
}

// Decrease moves the ceiling down by one step.
func (c *Ceiling) Decrease() {
	c.Set(c.value - Step)
}

// IsUnbounded reports whether the ceiling sits on the sentinel.
func (c Ceiling) IsUnbounded() bool {
	return c.value >= Max
}

// Bound converts the ceiling into the limit sent to the service. The sentinel
// becomes an unbounded limit rather than a literal 10000.
func (c Ceiling) Bound() Bound {
	if c.IsUnbounded() {
		return Bound{Unbounded: true}
	}
	return Bound{Value: c.value}
}

// Label is the display form: the sentinel reads "10000+".
func (c Ceiling) Label() string {
	if c.IsUnbounded() {
		return strconv.Itoa(Max) + "+"
	}
	return strconv.Itoa(c.value)
}

// Fraction is the ceiling's position in [0, 1] for slider rendering.
func (c Ceiling) Fraction() float64 {
	return float64(c.value-Min) / float64(Max-Min)
}
