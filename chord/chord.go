// Package chord cuts a set of overlapping notes into time-disjoint chords.
package chord

import (
	"fmt"
	"sort"

	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/overlap"
)

// Policy decides where chord boundaries fall.
type Policy int

const (
	// OnsetPolicy cuts at every distinct onset plus the final offset.
	OnsetPolicy Policy = iota
	// OnsetOffsetPolicy cuts at every distinct onset and offset, so silent
	// gaps become rest chords.
	OnsetOffsetPolicy
)

func (p Policy) String() string {
	switch p {
	case OnsetPolicy:
		return "onset"
	case OnsetOffsetPolicy:
		return "onset-offset"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "onset":
		return OnsetPolicy, nil
	case "onset-offset":
		return OnsetOffsetPolicy, nil
	}
	return 0, fmt.Errorf("unknown chord policy %q", s)
}

// Boundaries builds the boundary sequence from the sorted distinct onsets
// and offsets of a piece.
func Boundaries(onsets, offsets []int, policy Policy) []int {
	if len(onsets) == 0 || len(offsets) == 0 {
		return nil
	}

	if policy == OnsetPolicy {
		res := make([]int, 0, len(onsets)+1)
		res = append(res, onsets...)
		return append(res, offsets[len(offsets)-1])
	}

	// both inputs are sorted and distinct so a merge keeps them that way
	res := make([]int, 0, len(onsets)+len(offsets))
	i, j := 0, 0
	for i < len(onsets) || j < len(offsets) {
		switch {
		case j == len(offsets) || (i < len(onsets) && onsets[i] < offsets[j]):
			res = append(res, onsets[i])
			i++
		case i == len(onsets) || offsets[j] < onsets[i]:
			res = append(res, offsets[j])
			j++
		default:
			res = append(res, onsets[i])
			i++
			j++
		}
	}
	return res
}

// New builds a chord over [onset, onset+duration) from note indices. Notes
// are ordered by pitch and equal pitches keep the order they were given in.
func New(notes []model.Note, indices []int, onset, duration int) model.Chord {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.SliceStable(sorted, func(a, b int) bool {
		return notes[sorted[a]].Pitch < notes[sorted[b]].Pitch
	})

	c := model.Chord{
		Onset:    onset,
		Duration: duration,
		Notes:    sorted,
	}
	for _, i := range sorted {
		if notes[i].Onset == onset {
			c.OnsetNotes = append(c.OnsetNotes, i)
		} else {
			c.TieNotes = append(c.TieNotes, i)
		}
	}
	return c
}

// Segment returns one chord per adjacent boundary pair, rests included.
// Fewer than two boundaries produce no chords.
func Segment(notes []model.Note, idx *overlap.Index, boundaries []int) []model.Chord {
	if len(notes) == 0 || len(boundaries) < 2 {
		return nil
	}

	chords := make([]model.Chord, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		s, e := boundaries[i], boundaries[i+1]
		chords = append(chords, New(notes, idx.Query(s, e), s, e-s))
	}
	return chords
}

// WithoutRests drops chords with no sounding notes.
func WithoutRests(chords []model.Chord) []model.Chord {
	var res []model.Chord
	for _, c := range chords {
		if !c.IsRest() {
			res = append(res, c)
		}
	}
	return res
}

// Key renders a chord's pitches as "55-60-64" for display.
func Key(notes []model.Note, c model.Chord) string {
	var res string
	for i, n := range c.Notes {
		res += fmt.Sprintf("%v", notes[n].Pitch)
		if i < len(c.Notes)-1 {
			res += "-"
		}
	}
	if res == "" {
		return "rest"
	}
	return res
}
