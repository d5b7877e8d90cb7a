package feature

import (
	"github.com/jsphweid/stylerank/codes"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/tables"
)

func init() {
	for _, f := range []*Func{
		NewFunc("ChordSize", ChordSize, TagOriginal, TagChord),
		NewFunc("ChordPCSizeRatio", ChordPCSizeRatio, TagOriginal, TagChord),
		NewFunc("ChordOnsetRatio", ChordOnsetRatio, TagOriginal, TagChord),
		NewFunc("ChordDistinctDurationRatio", ChordDistinctDurationRatio, TagOriginal, TagChord),
		NewFunc("ChordDuration", ChordDuration, TagOriginal, TagChord),
		NewFunc("ChordShape", ChordShape, TagOriginal, TagChord),
		NewFunc("ChordOnsetShape", ChordOnsetShape, TagOriginal, TagChord),
		NewFunc("ChordPCD", ChordPCD, TagOriginal, TagChord),
		NewFunc("ChordPCDWBass", ChordPCDWBass, TagOriginal, TagChord),
		NewFunc("ChordOnsetPCD", ChordOnsetPCD, TagOriginal, TagChord),
		NewFunc("ChordOnsetTiePCD", ChordOnsetTiePCD, TagOriginal, TagChord),
		NewFunc("ChordOnsetTiePCDTogether", ChordOnsetTiePCDTogether, TagOriginal, TagChord),
		NewFunc("ChordTonnetz", ChordTonnetz, TagOriginal, TagChord),
		NewFunc("ChordOnset", ChordOnset, TagOriginal, TagChord),
		NewFunc("ChordRange", ChordRange, TagOriginal, TagChord),
		NewFunc("ChordDissonance", ChordDissonance, TagOriginal, TagChord),
		NewFunc("ChordLowestInterval", ChordLowestInterval, TagOriginal, TagChord),
	} {
		Register(f)
	}
}

// ChordSize counts chords by number of notes.
func ChordSize(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Inc(uint64(len(c.Notes)))
	}
	return d
}

// ChordPCSizeRatio counts (distinct pitch classes, notes) pairs.
func ChordPCSizeRatio(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		pcCount := tables.PCSize(pcs(p, c.Notes))
		d.Inc(codes.NominalTuple(pcCount, len(c.Notes)))
	}
	return d
}

// ChordOnsetRatio counts (struck notes, notes) pairs.
func ChordOnsetRatio(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Inc(codes.NominalTuple(len(c.OnsetNotes), len(c.Notes)))
	}
	return d
}

// ChordDistinctDurationRatio counts (distinct remaining durations, notes)
// pairs, where a note's remaining duration is measured from the chord onset.
func ChordDistinctDurationRatio(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		remaining := make(map[int]bool)
		for _, n := range c.Notes {
			remaining[p.Notes[n].End-c.Onset] = true
		}
		d.Inc(codes.NominalTuple(len(remaining), len(c.Notes)))
	}
	return d
}

// ChordDuration counts chord durations in eighths of a quarter note.
func ChordDuration(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Inc(uint64(roughQuantize(c.Duration, p.Ticks)))
	}
	return d
}

// shape sets bit k for every note k semitones above the first one. Notes
// 64 or more semitones above are left out.
func shape(p *piece.Piece, notes []int) uint64 {
	low := p.Notes[notes[0]].Pitch
	var res uint64
	for _, n := range notes {
		if diff := p.Notes[n].Pitch - low; diff < 64 {
			res |= 1 << diff
		}
	}
	return res
}

// ChordShape weighs the intervallic shape of each chord above its bass by
// duration.
func ChordShape(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Add(shape(p, c.Notes), uint64(c.Duration))
	}
	return d
}

// ChordOnsetShape is ChordShape over struck notes only. Chords where
// nothing is struck are skipped.
func ChordOnsetShape(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		if len(c.OnsetNotes) == 0 {
			continue
		}
		d.Add(shape(p, c.OnsetNotes), uint64(c.Duration))
	}
	return d
}

// ChordPCD weighs the transposition-invariant pitch-class set by duration.
func ChordPCD(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Add(tables.PCD(pcs(p, c.Notes)), uint64(c.Duration))
	}
	return d
}

// ChordPCDWBass is ChordPCD with the bass pitch class in the low 12 bits.
func ChordPCDWBass(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		code := uint64(codes.Mod(bass(p, c).Pitch, 12)) + tables.PCD(pcs(p, c.Notes))<<12
		d.Add(code, uint64(c.Duration))
	}
	return d
}

func ChordOnsetPCD(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Add(tables.PCD(pcs(p, c.OnsetNotes)), uint64(c.Duration))
	}
	return d
}

// ChordOnsetTiePCD pairs the PCD of struck notes with the PCD of held notes.
func ChordOnsetTiePCD(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		code := tables.PCD(pcs(p, c.OnsetNotes)) + tables.PCD(pcs(p, c.TieNotes))<<12
		d.Add(code, uint64(c.Duration))
	}
	return d
}

// ChordOnsetTiePCDTogether transposes struck and held pitch classes by the
// rotation that normalises the whole chord, so the two halves stay aligned.
func ChordOnsetTiePCDTogether(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		r := tables.Rot(pcs(p, c.Notes))
		var onsets, ties uint64
		for _, n := range c.OnsetNotes {
			onsets |= 1 << codes.Mod(p.Notes[n].Pitch+r, 12)
		}
		for _, n := range c.TieNotes {
			ties |= 1 << codes.Mod(p.Notes[n].Pitch+r, 12)
		}
		d.Add(onsets+ties<<12, uint64(c.Duration))
	}
	return d
}

// ChordTonnetz weighs the Tonnetz tour length of each chord by duration.
func ChordTonnetz(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Add(tables.Tonnetz(pcs(p, c.Notes)), uint64(c.Duration))
	}
	return d
}

// ChordOnset marks which notes, lowest first, are struck. A guard bit above
// the top note keeps chords of different sizes apart.
func ChordOnset(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		var code uint64
		for i, n := range c.Notes {
			if p.Notes[n].Onset == c.Onset {
				code |= 1 << i
			}
		}
		code |= 1 << len(c.Notes)
		d.Inc(code)
	}
	return d
}

func ChordRange(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		d.Inc(uint64(top(p, c).Pitch - bass(p, c).Pitch))
	}
	return d
}

// ChordDissonance weighs the periodicity of struck notes by duration.
// Chords with fewer than two struck notes are skipped.
func ChordDissonance(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		if len(c.OnsetNotes) < 2 {
			continue
		}
		d.Add(uint64(periodicity(p, c.OnsetNotes, c.OnsetNotes)), uint64(c.Duration))
	}
	return d
}

func ChordLowestInterval(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		if len(c.Notes) > 1 {
			d.Inc(uint64(p.Notes[c.Notes[1]].Pitch - p.Notes[c.Notes[0]].Pitch))
		}
	}
	return d
}
