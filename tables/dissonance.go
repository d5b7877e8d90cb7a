package tables

// Just-intonation ratios per semitone (Stolzenburg, "Harmony perception by
// periodicity detection", tuning 2).
var (
	ratioNum = [12]int64{1, 16, 9, 6, 5, 4, 7, 3, 8, 5, 9, 15}
	ratioDen = [12]int64{1, 15, 8, 5, 4, 3, 5, 2, 5, 3, 5, 8}
)

// DissonanceOffset maps a signed pitch difference onto a table index.
const DissonanceOffset = 128

var (
	dissNum [256]int64
	dissDen [256]int64
)

func initDissonance() {
	for x := -DissonanceOffset; x < DissonanceOffset; x++ {
		pc := ((x % 12) + 12) % 12
		octave := floorDiv(x, 12)
		n, d := ratioNum[pc], ratioDen[pc]
		if octave < 0 {
			d <<= uint(-octave)
		} else {
			n <<= uint(octave)
		}
		g := GCD(n, d)
		dissNum[x+DissonanceOffset] = n / g
		dissDen[x+DissonanceOffset] = d / g
	}
}

// DissonanceFraction returns the reduced frequency ratio for a signed pitch
// difference in [-128, 127].
func DissonanceFraction(diff int) (int64, int64) {
	i := diff + DissonanceOffset
	return dissNum[i], dissDen[i]
}

func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func LCM(a, b int64) int64 {
	return a / GCD(a, b) * b
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
