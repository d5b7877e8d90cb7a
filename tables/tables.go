// Package tables holds lookup tables keyed by pitch-class-set code or by
// signed pitch difference. They are computed once at start-up and never
// written afterwards, so they are safe to share between goroutines.
package tables

import (
	"math/bits"

	"github.com/jsphweid/stylerank/codes"
)

// NumPCS is the number of 12-bit pitch-class-set codes.
const NumPCS = 1 << 12

var (
	pcd     [NumPCS]uint64
	rot     [NumPCS]uint64
	iccount [NumPCS]uint64
	pcsize  [NumPCS]uint64
	pcscale [NumPCS]uint64
	istriad [NumPCS]uint64
	tonnetz [NumPCS]uint64
	npcd    uint64
)

var intervalClass = [12]int{0, 1, 2, 3, 4, 5, 6, 5, 4, 3, 2, 1}

var (
	majorScale = [12]int{1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1}
	minorScale = [12]int{1, 0, 1, 1, 0, 1, 0, 1, 1, 0, 0, 1}
)

func init() {
	scales := allScales()
	for x := 0; x < NumPCS; x++ {
		pcd[x], rot[x] = minRotation(x)
		iccount[x] = intervalClassCount(x)
		pcsize[x] = uint64(bits.OnesCount(uint(x)))
		for i, s := range scales {
			if s&x == x {
				pcscale[x] |= 1 << i
			}
		}
		if pcd[x]+1 > npcd {
			npcd = pcd[x] + 1
		}
	}
	tonnetz = tonnetzPathLengths()
	initDissonance()
}

// PCD is the smallest rotation of a pitch-class set, identifying it up to
// transposition.
func PCD(x int) uint64 { return pcd[x] }

// IntervalClass folds a signed semitone distance onto 0..6.
func IntervalClass(semitones int) int { return intervalClass[codes.Mod(semitones, 12)] }

// Rot is the number of semitones that rotates x onto PCD(x).
func Rot(x int) int { return int(rot[x]) }

func PCSize(x int) int { return int(pcsize[x]) }

// PCScale has bit i set when x fits inside scale i: the twelve major scales
// followed by the twelve harmonic minor scales.
func PCScale(x int) uint64 { return pcscale[x] }


// Tonnetz is the length of the shortest walk on the Tonnetz that visits
// every pitch class in x.
func Tonnetz(x int) uint64 { return tonnetz[x] }

func rotl12(x, j int) int {
	return ((x << j) | (x >> (12 - j))) & (NumPCS - 1)
}

func minRotation(x int) (uint64, uint64) {
	best, arg := x, 0
	for j := 1; j < 12; j++ {
		if r := rotl12(x, j); r < best {
			best, arg = r, j
		}
	}
	return uint64(best), uint64(arg)
}

func pitchClasses(x int) []int {
	var res []int
	for i := 0; i < 12; i++ {
		if (x>>i)&1 == 1 {
			res = append(res, i)
		}
	}
	return res
}

func intervalClassCount(x int) uint64 {
	pcs := pitchClasses(x)
	var counts [7]uint64
	for i := 0; i < len(pcs); i++ {
		for j := i + 1; j < len(pcs); j++ {
			counts[intervalClass[codes.Mod(pcs[i]-pcs[j], 12)]]++
		}
	}
	var res uint64
	for i, c := range counts {
		res |= c << (8 * i)
	}
	return res
}

func allScales() [24]int {
	var res [24]int
	for i := 0; i < 12; i++ {
		for k := 0; k < 12; k++ {
			pc := (k + i) % 12
			if majorScale[k] == 1 {
				res[i] |= 1 << pc
			}
			if minorScale[k] == 1 {
				res[12+i] |= 1 << pc
			}
		}
	}
	return res
}
