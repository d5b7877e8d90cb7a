package feature

import (
	"github.com/jsphweid/stylerank/codes"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/tables"
)

func init() {
	Register(NewFunc("IntervalDist", IntervalDist, TagOriginal, TagInterval))
	Register(NewFunc("IntervalClassDist", IntervalClassDist, TagOriginal, TagInterval))
}

// IntervalDist weighs every pairwise interval inside a chord, mod 12, by
// the chord duration.
func IntervalDist(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		pitches := p.Pitches(c.Notes)
		for j := range pitches {
			for k := j + 1; k < len(pitches); k++ {
				d.Add(uint64(codes.Mod(pitches[k]-pitches[j], 12)), uint64(c.Duration))
			}
		}
	}
	return d
}

// IntervalClassDist is IntervalDist folded onto interval classes.
func IntervalClassDist(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	for _, c := range p.Chords {
		pitches := p.Pitches(c.Notes)
		for j := range pitches {
			for k := j + 1; k < len(pitches); k++ {
				d.Add(uint64(tables.IntervalClass(pitches[k]-pitches[j])), uint64(c.Duration))
			}
		}
	}
	return d
}
