// Package codes packs small collections of integers into category codes
// used as Distribution keys.
package codes

import "fmt"

// MaxTupleLen is the number of byte lanes in a nominal tuple.
const MaxTupleLen = 4

// Mod is the non-negative remainder of a divided by b.
func Mod(a, b int) int {
	r := a % b
	if r < 0 {
		return r + b
	}
	return r
}

func Sgn(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PitchClassSet returns a 12-bit mask with bit k set iff some pitch is
// congruent to k mod 12.
func PitchClassSet(pitches ...int) int {
	var value int
	for _, p := range pitches {
		value |= 1 << Mod(p, 12)
	}
	return value
}

// NominalTuple packs up to four values below 256 into byte lanes, the first
// value in the lowest byte. It panics on an over-wide or negative value.
func NominalTuple(values ...int) uint64 {
	if len(values) > MaxTupleLen {
		panic(fmt.Sprintf("nominal tuple holds at most %d values, got %d", MaxTupleLen, len(values)))
	}
	var value uint64
	for i, v := range values {
		if v < 0 || v >= 1<<8 {
			panic(fmt.Sprintf("nominal tuple value out of range: %d", v))
		}
		value |= uint64(v) << (8 * i)
	}
	return value
}

// RollToMin rotates the low n bits of x and returns the smallest rotation.
func RollToMin(x uint64, n int) uint64 {
	mask := uint64(1)<<n - 1
	x &= mask
	best := x
	for i := 1; i < n; i++ {
		tmp := ((x >> i) | (x << (n - i))) & mask
		if tmp < best {
			best = tmp
		}
	}
	return best
}
