package feature

import (
	"github.com/jsphweid/stylerank/codes"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/tables"
)

func init() {
	Register(NewFunc("ChordTranMelodyInterval", ChordTranMelodyInterval, TagOriginal, TagMelody))
	Register(NewFunc("ChordMelodyNgram", ChordMelodyNgram, TagOriginal, TagMelody))
}

// ChordTranMelodyInterval counts the PCD of each five-note window of the
// struck top voice.
func ChordTranMelodyInterval(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	melody := outerVoice(p, true)
	for i := 0; i < len(melody)-5; i++ {
		d.Inc(tables.PCD(codes.PitchClassSet(melody[i : i+5]...)))
	}
	return d
}

// ChordMelodyNgram counts three successive descending intervals of the
// struck top voice, each mod 12.
func ChordMelodyNgram(p *piece.Piece) model.Distribution {
	d := model.NewDistribution()
	melody := outerVoice(p, true)
	for i := 0; i < len(melody)-4; i++ {
		d.Inc(codes.NominalTuple(
			codes.Mod(melody[i]-melody[i+1], 12),
			codes.Mod(melody[i+1]-melody[i+2], 12),
			codes.Mod(melody[i+2]-melody[i+3], 12),
		))
	}
	return d
}
