package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsFor(t *testing.T) {
	assert.Equal(t, 0, BitsFor(0))
	assert.Equal(t, 0, BitsFor(1))
	assert.Equal(t, 1, BitsFor(2))
	assert.Equal(t, 2, BitsFor(3))
	assert.Equal(t, 2, BitsFor(4))
	assert.Equal(t, 3, BitsFor(5))
	assert.Equal(t, 4, BitsFor(16))
}

func TestEncodePoweredPower(t *testing.T) {
	// bool "powered" takes bit 0, int "power" 0..15 takes bits 1-4.
	props := []Property{
		BoolProperty{PropName: "powered"},
		IntProperty{PropName: "power", Min: 0, Max: 15},
	}
	require.Equal(t, 5, Bits(props))

	encoded, err := Encode(props, []int{1, 5}) // powered=true, power=5
	require.NoError(t, err)
	assert.Equal(t, uint64(11), encoded)

	assert.Equal(t, []int{1, 5}, Decode(props, encoded))
}

func TestEncodeRejectsOutOfDomain(t *testing.T) {
	props := []Property{IntProperty{PropName: "power", Min: 0, Max: 15}}

	_, err := Encode(props, []int{16})
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = Encode(props, []int{-1})
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = Encode(props, []int{1, 2})
	assert.Error(t, err, "value count must match property count")
}

func TestEncodeInjective(t *testing.T) {
	props := []Property{
		BoolProperty{PropName: "lit"},
		IntProperty{PropName: "age", Min: 0, Max: 2},
		DirectionProperty{PropName: "facing", Allowed: HorizontalDirections()},
	}

	seen := make(map[uint64][]int)
	for lit := 0; lit < 2; lit++ {
		for age := 0; age < 3; age++ {
			for facing := 0; facing < 4; facing++ {
				vals := []int{lit, age, facing}
				encoded, err := Encode(props, vals)
				require.NoError(t, err)
				prev, dup := seen[encoded]
				require.False(t, dup, "collision: %v and %v both encode to %d", prev, vals, encoded)
				seen[encoded] = vals
				assert.Equal(t, vals, Decode(props, encoded))
			}
		}
	}
	assert.Len(t, seen, 2*3*4)
}

func TestSingleValuePropertyTakesNoBits(t *testing.T) {
	props := []Property{
		IntProperty{PropName: "fixed", Min: 3, Max: 3},
		BoolProperty{PropName: "open"},
	}
	assert.Equal(t, 1, Bits(props))

	encoded, err := Encode(props, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), encoded)
	assert.Equal(t, []int{0, 1}, Decode(props, encoded))
}

func TestDirectionProperty(t *testing.T) {
	d, err := ParseDirection("north")
	require.NoError(t, err)
	assert.Equal(t, North, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	p := DirectionProperty{PropName: "facing", Allowed: HorizontalDirections()}
	assert.Equal(t, 4, p.NumValues())
	assert.Equal(t, 0, p.ValueIndex(North))
	assert.Equal(t, 3, p.ValueIndex(West))
	assert.Equal(t, -1, p.ValueIndex(Up), "up not in horizontal subset")

	assert.Equal(t, 6, len(AllDirections()))
}

func TestIntPropertyValueIndex(t *testing.T) {
	p := IntProperty{PropName: "level", Min: 2, Max: 5}
	assert.Equal(t, 4, p.NumValues())
	assert.Equal(t, 0, p.ValueIndex(2))
	assert.Equal(t, 3, p.ValueIndex(5))
	assert.Equal(t, -1, p.ValueIndex(6))
	assert.Equal(t, -1, p.ValueIndex(1))
}
