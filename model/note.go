package model

import "fmt"

// MaxPitch is one past the highest legal MIDI key.
const MaxPitch = 128

// RawNote is a decoded note event before it is admitted to a Piece.
type RawNote struct {
	Pitch    int
	Onset    int
	Duration int
	Velocity int
}

// Note is an immutable sounding interval [Onset, End).
type Note struct {
	Pitch    int
	Onset    int
	Duration int
	Velocity int
	End      int
}

// NewNote panics when the note violates its range invariants. Callers drop
// notes with non-positive duration before getting here.
func NewNote(pitch, onset, duration, velocity int) Note {
	if pitch < 0 || pitch >= MaxPitch {
		panic(fmt.Sprintf("note pitch out of range: %d", pitch))
	}
	if onset < 0 {
		panic(fmt.Sprintf("note onset is negative: %d", onset))
	}
	if duration <= 0 {
		panic(fmt.Sprintf("note duration must be positive: %d", duration))
	}
	if velocity < 0 {
		panic(fmt.Sprintf("note velocity is negative: %d", velocity))
	}
	return Note{
		Pitch:    pitch,
		Onset:    onset,
		Duration: duration,
		Velocity: velocity,
		End:      onset + duration,
	}
}
