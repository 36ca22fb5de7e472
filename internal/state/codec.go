// Package state packs the variant state of a registered block type into a
// single integer. Each declared property claims a bit field sized for its
// value domain; the packed integer is the only representation that crosses
// the scripting boundary or the wire, so the property list itself must be
// supplied out-of-band to decode it.
package state

import (
	"fmt"
	"math/bits"
)

// Direction is a block-facing direction. Ordinal order matters: it is the
// index used when a direction property is encoded.
type Direction int

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var directionNames = [...]string{"down", "up", "north", "south", "west", "east"}

func (d Direction) String() string {
	if d < Down || d > East {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection resolves a lowercase direction name.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if s == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Property is one finite-domain block state property. Values are addressed
// by index into the property's ordered domain.
type Property interface {
	Name() string
	NumValues() int
}

// BoolProperty has the two-value domain [false, true].
type BoolProperty struct {
	PropName string
}

func (p BoolProperty) Name() string   { return p.PropName }
func (p BoolProperty) NumValues() int { return 2 }

// ValueIndex returns the encoding index for a bool value.
func (p BoolProperty) ValueIndex(v bool) int {
	if v {
		return 1
	}
	return 0
}

// IntProperty covers the inclusive range [Min, Max]. Value index i maps to
// the concrete value Min+i.
type IntProperty struct {
	PropName string
	Min, Max int
}

func (p IntProperty) Name() string   { return p.PropName }
func (p IntProperty) NumValues() int { return p.Max - p.Min + 1 }

// ValueIndex returns the encoding index for a concrete value, or -1 when the
// value is outside the range.
func (p IntProperty) ValueIndex(v int) int {
	if v < p.Min || v > p.Max {
		return -1
	}
	return v - p.Min
}

// DirectionProperty allows an explicit subset of the six directions, in the
// declared order.
type DirectionProperty struct {
	PropName string
	Allowed  []Direction
}

func (p DirectionProperty) Name() string   { return p.PropName }
func (p DirectionProperty) NumValues() int { return len(p.Allowed) }

// ValueIndex returns the index of d within the allowed subset, or -1.
func (p DirectionProperty) ValueIndex(d Direction) int {
	for i, a := range p.Allowed {
		if a == d {
			return i
		}
	}
	return -1
}

// HorizontalDirections is the allowed set for a horizontal-facing property.
func HorizontalDirections() []Direction {
	return []Direction{North, South, East, West}
}

// AllDirections is the full six-direction set.
func AllDirections() []Direction {
	return []Direction{Down, Up, North, South, West, East}
}

// ErrInvalidValue is wrapped by Encode when a value index falls outside its
// property's domain.
var ErrInvalidValue = fmt.Errorf("state: value index out of domain")

// BitsFor returns the width of the bit field a domain of n values occupies.
// Domains of one value (or fewer) carry no information and take no bits.
func BitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Bits returns the total bit width of a property list.
func Bits(props []Property) int {
	total := 0
	for _, p := range props {
		total += BitsFor(p.NumValues())
	}
	return total
}

// Encode packs one value index per property into a single integer. Fields
// are laid out LSB-first in declaration order. The encoding is injective
// over the Cartesian product of all property domains.
func Encode(props []Property, values []int) (uint64, error) {
	if len(values) != len(props) {
		return 0, fmt.Errorf("state: %d values for %d properties", len(values), len(props))
	}
	var encoded uint64
	shift := 0
	for i, p := range props {
		n := p.NumValues()
		if values[i] < 0 || values[i] >= n {
			return 0, fmt.Errorf("%w: property %q index %d (domain %d)", ErrInvalidValue, p.Name(), values[i], n)
		}
		encoded |= uint64(values[i]) << shift
		shift += BitsFor(n)
	}
	return encoded, nil
}

// Decode is the inverse of Encode. Integers produced by Encode round-trip
// exactly; feeding in bit patterns this module never produced is undefined.
func Decode(props []Property, encoded uint64) []int {
	values := make([]int, len(props))
	shift := 0
	for i, p := range props {
		b := BitsFor(p.NumValues())
		mask := uint64(1)<<b - 1
		values[i] = int(encoded >> shift & mask)
		shift += b
	}
	return values
}
