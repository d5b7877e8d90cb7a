package model

// MidiMetadata describes the recording a MIDI file was taken from.
type MidiMetadata struct {
	Artist  string
	Release string
	Title   string
	Year    uint
}
