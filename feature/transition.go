package feature

import (
	"math/bits"

	"github.com/jsphweid/stylerank/codes"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/tables"
)

// Outer voice motion between successive chords.
const (
	NoChange uint64 = iota
	ObliqueMotion
	ParallelMotion
	ContraryMotion
)

// sameSet marks a transition between identical pitch-class sets in the
// scale features.
const sameSet = 100

func init() {
	for _, f := range []*Func{
		NewFunc("ChordTranDissonance", ChordTranDissonance, TagOriginal, TagTransition),
		NewFunc("ChordSizeNgram", ChordSizeNgram, TagOriginal, TagTransition),
		NewFunc("ChordTranVoiceMotion", ChordTranVoiceMotion, TagOriginal, TagTransition),
		NewFunc("ChordTranRepeat", ChordTranRepeat, TagOriginal, TagTransition),
		NewFunc("ChordTranScaleDistance", ChordTranScaleDistance, TagOriginal, TagTransition),
		NewFunc("ChordTranScaleUnion", ChordTranScaleUnion, TagOriginal, TagTransition),
		NewFunc("ChordTranDistance", ChordTranDistance, TagOriginal, TagTransition),
		NewFunc("ChordTranOuter", ChordTranOuter, TagOriginal, TagTransition),
		NewFunc("ChordTranBassInterval", ChordTranBassInterval, TagOriginal, TagTransition),
		NewFunc("PCDTran", PCDTran, TagOriginal, TagTransition),
	} {
		Register(f)
	}
}

// transitions calls fn for every pair of successive chords.
func transitions(p *piece.Piece, fn func(a, b model.Chord)) {
	for i := 0; i+1 < len(p.Chords); i++ {
		fn(p.Chords[i], p.Chords[i+1])
	}
}

// ChordTranDissonance counts the periodicity of each chord against the
// next. Both chords need at least two notes.
func ChordTranDissonance(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		if len(a.Notes) >= 2 && len(b.Notes) >= 2 {
			d.Inc(uint64(periodicity(p, a.Notes, b.Notes)))
		}
	})
	return d
}

// ChordSizeNgram counts chord size trigrams.
func ChordSizeNgram(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for i := 0; i < len(p.Chords)-2; i++ {
		d.Inc(codes.NominalTuple(
			len(p.Chords[i].Notes),
			len(p.Chords[i+1].Notes),
			len(p.Chords[i+2].Notes),
		))
	}
	return d
}

func ChordTranVoiceMotion(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		md := codes.Sgn(top(p, b).Pitch - top(p, a).Pitch)
		bd := codes.Sgn(bass(p, b).Pitch - bass(p, a).Pitch)
		switch codes.Abs(md) + codes.Abs(bd) {
		case 0:
			d.Inc(NoChange)
		case 1:
			d.Inc(ObliqueMotion)
		case 2:
			if md == bd {
				d.Inc(ParallelMotion)
			} else {
				d.Inc(ContraryMotion)
			}
		}
	})
	return d
}

// ChordTranRepeat looks at transitions into a fully re-struck chord of the
// same size and counts whether every pitch repeats (1) or not (0).
func ChordTranRepeat(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		if len(b.TieNotes) != 0 || len(a.Notes) != len(b.Notes) {
			return
		}
		var allMatch uint64 = 1
		for j := range a.Notes {
			if p.Notes[a.Notes[j]].Pitch != p.Notes[b.Notes[j]].Pitch {
				allMatch = 0
			}
		}
		d.Inc(allMatch)
	})
	return d
}

func scaleTransition(p *piece.Piece, combine func(x, y uint64) uint64) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		x, y := pcs(p, a.Notes), pcs(p, b.Notes)
		if x == y {
			d.Inc(sameSet)
			return
		}
		d.Inc(uint64(bits.OnesCount64(combine(tables.PCScale(x), tables.PCScale(y)))))
	})
	return d
}

// ChordTranScaleDistance counts how many scales contain exactly one of two
// successive chords.
func ChordTranScaleDistance(p *piece.Piece) model.Distribution {
	return scaleTransition(p, func(x, y uint64) uint64 { return x ^ y })
}

// ChordTranScaleUnion counts how many scales contain either of two
// successive chords.
func ChordTranScaleUnion(p *piece.Piece) model.Distribution {
	return scaleTransition(p, func(x, y uint64) uint64 { return x | y })
}

// ChordTranDistance counts the summed movement of the top and bass voices.
func ChordTranDistance(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		md := codes.Abs(top(p, b).Pitch - top(p, a).Pitch)
		bd := codes.Abs(bass(p, b).Pitch - bass(p, a).Pitch)
		d.Inc(uint64(md + bd))
	})
	return d
}

// ChordTranOuter counts (outer interval before, outer interval after, bass
// motion) when the next chord strikes its bass or top note.
func ChordTranOuter(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	transitions(p, func(a, b model.Chord) {
		if bass(p, b).Onset != b.Onset && top(p, b).Onset != b.Onset {
			return
		}
		d.Inc(codes.NominalTuple(
			codes.Mod(top(p, a).Pitch-bass(p, a).Pitch, 12),
			codes.Mod(top(p, b).Pitch-bass(p, b).Pitch, 12),
			codes.Mod(bass(p, b).Pitch-bass(p, a).Pitch, 12),
		))
	})
	return d
}

// ChordTranBassInterval counts struck bass intervals mod 12. The final
// interval is not counted.
func ChordTranBassInterval(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	line := outerVoice(p, false)
	for i := 0; i < len(line)-2; i++ {
		d.Inc(uint64(codes.Mod(line[i+1]-line[i], 12)))
	}
	return d
}

// PCDTran counts pairs of pitch-class sets sounding at successive onsets,
// rotated to their smallest 24-bit form.
func PCDTran(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	b := p.OnsetBoundaries()
	for i := 0; i < len(b)-2; i++ {
		x := uint64(pcs(p, p.Overlapping(b[i], b[i+1])))
		y := uint64(pcs(p, p.Overlapping(b[i+1], b[i+2])))
		d.Inc(codes.RollToMin(x+y<<12, 24))
	}
	return d
}
