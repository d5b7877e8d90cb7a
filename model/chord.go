package model

// Chord is a half-open interval [Onset, Onset+Duration) with a constant set
// of sounding notes. Notes, OnsetNotes and TieNotes hold indices into the
// owning Piece's note arena, ordered by ascending pitch.
type Chord struct {
	Onset    int
	Duration int

	Notes      []int
	OnsetNotes []int
	TieNotes   []int
}

func (c Chord) End() int {
	return c.Onset + c.Duration
}

// IsRest reports whether nothing sounds during the chord.
func (c Chord) IsRest() bool {
	return len(c.Notes) == 0
}
