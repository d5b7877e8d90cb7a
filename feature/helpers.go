package feature

import (
	"math"

	"github.com/jsphweid/stylerank/codes"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/tables"
)

func pcs(p *piece.Piece, notes []int) int {
	return codes.PitchClassSet(p.Pitches(notes)...)
}

func bass(p *piece.Piece, c model.Chord) model.Note {
	return p.Notes[c.Notes[0]]
}

func top(p *piece.Piece, c model.Chord) model.Note {
	return p.Notes[c.Notes[len(c.Notes)-1]]
}

// roughQuantize expresses ticks in eighths of a quarter note.
func roughQuantize(x, ticks int) int {
	if ticks <= 0 {
		ticks = 1
	}
	return int(math.Round(float64(x) / float64(ticks) * 8))
}

// periodicity is the mean, over the notes in from, of the smallest ratio to
// any note in to scaled by the lcm of the ratio denominators.
func periodicity(p *piece.Piece, from, to []int) int {
	var total float64
	for _, i := range from {
		denLCM := int64(1)
		minFrac := 1.0
		for _, j := range to {
			num, den := tables.DissonanceFraction(p.Notes[j].Pitch - p.Notes[i].Pitch)
			if frac := float64(num) / float64(den); frac < minFrac {
				minFrac = frac
			}
			denLCM = tables.LCM(denLCM, den)
		}
		total += minFrac * float64(denLCM)
	}
	return int(total / float64(len(from)))
}

// outerVoice collects the bass (or top) pitch of every chord whose bass
// (or top) note is struck at the chord onset.
func outerVoice(p *piece.Piece, useTop bool) []int {
	var res []int
	for _, c := range p.Chords {
		n := bass(p, c)
		if useTop {
			n = top(p, c)
		}
		if n.Onset == c.Onset {
			res = append(res, n.Pitch)
		}
	}
	return res
}
