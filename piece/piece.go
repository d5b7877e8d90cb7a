// Package piece holds the notes of one decoded file together with the
// boundaries and chords derived from them.
package piece

import (
	"github.com/jsphweid/stylerank/chord"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/overlap"
	"github.com/jsphweid/stylerank/util"
)

// DefaultVelocity is used when notes are given without one.
const DefaultVelocity = 100

type Options struct {
	Policy chord.Policy
	// SkipChords leaves the piece unsegmented.
	SkipChords bool
}

// Piece owns its notes in insertion order. Chords reference notes by
// index, so a tied note appears in several chords without being copied.
type Piece struct {
	Notes []model.Note
	// Ticks is the number of ticks per quarter note the onsets and
	// durations are expressed in.
	Ticks       int
	MaxDuration int

	Chords          []model.Chord
	ChordsWithRests []model.Chord

	onsets  map[int]bool
	offsets map[int]bool
	index   *overlap.Index
	policy  chord.Policy
}

func empty(ticks int, policy chord.Policy) *Piece {
	return &Piece{
		Ticks:   ticks,
		onsets:  make(map[int]bool),
		offsets: make(map[int]bool),
		policy:  policy,
	}
}

// New admits raw notes and segments them unless opts.SkipChords is set.
func New(raw []model.RawNote, ticks int, opts Options) *Piece {
	p := empty(ticks, opts.Policy)
	for _, n := range raw {
		p.AddNote(n.Pitch, n.Onset, n.Duration, n.Velocity)
	}
	if !opts.SkipChords {
		p.FindChords()
	}
	return p
}

// FromTriples builds a segmented piece from (pitch, onset, duration)
// triples with a resolution of one tick per quarter.
func FromTriples(triples [][3]int, opts Options) *Piece {
	raw := make([]model.RawNote, 0, len(triples))
	for _, t := range triples {
		raw = append(raw, model.RawNote{
			Pitch:    t[0],
			Onset:    t[1],
			Duration: t[2],
			Velocity: DefaultVelocity,
		})
	}
	return New(raw, 1, opts)
}

// AddNote drops notes with non-positive duration and panics on any other
// invalid note.
func (p *Piece) AddNote(pitch, onset, duration, velocity int) {
	if duration <= 0 {
		return
	}
	n := model.NewNote(pitch, onset, duration, velocity)
	p.Notes = append(p.Notes, n)
	p.onsets[n.Onset] = true
	p.offsets[n.End] = true
	if n.Duration > p.MaxDuration {
		p.MaxDuration = n.Duration
	}
	p.index = nil
}

// FindChords (re)builds the overlap index and both chord sequences.
func (p *Piece) FindChords() {
	p.Chords = nil
	p.ChordsWithRests = nil
	if len(p.Notes) == 0 {
		return
	}

	p.index = overlap.New(p.Notes)
	all := chord.Segment(p.Notes, p.index, chord.Boundaries(p.Onsets(), p.Offsets(), p.policy))
	p.ChordsWithRests = all
	p.Chords = chord.WithoutRests(all)
}

// Onsets returns the distinct onset ticks in ascending order.
func (p *Piece) Onsets() []int {
	return util.SortedKeys(p.onsets)
}

// Offsets returns the distinct end ticks in ascending order.
func (p *Piece) Offsets() []int {
	return util.SortedKeys(p.offsets)
}

// OnsetsAndOffsets returns the union of onset and end ticks, ascending.
func (p *Piece) OnsetsAndOffsets() []int {
	return chord.Boundaries(p.Onsets(), p.Offsets(), chord.OnsetOffsetPolicy)
}

// OnsetBoundaries returns the distinct onsets followed by the last offset,
// the cut points used for onset segmentation.
func (p *Piece) OnsetBoundaries() []int {
	return chord.Boundaries(p.Onsets(), p.Offsets(), chord.OnsetPolicy)
}

// Overlapping returns indices of the notes sounding at s until e. It panics
// when s >= e.
func (p *Piece) Overlapping(s, e int) []int {
	if p.index == nil {
		p.index = overlap.New(p.Notes)
	}
	return p.index.Query(s, e)
}

// Pitches resolves note indices to pitches.
func (p *Piece) Pitches(indices []int) []int {
	res := make([]int, len(indices))
	for i, n := range indices {
		res[i] = p.Notes[n].Pitch
	}
	return res
}

// Note resolves a single note index.
func (p *Piece) Note(i int) model.Note {
	return p.Notes[i]
}
