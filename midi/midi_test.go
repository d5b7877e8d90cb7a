package midi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/stylerank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeTestFile(t *testing.T) string {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var melody smf.Track
	melody.Add(0, midi.NoteOn(0, 60, 100))
	melody.Add(480, midi.NoteOff(0, 60))
	melody.Add(0, midi.NoteOn(0, 62, 90))
	// a note-on with zero velocity ends the note
	melody.Add(240, midi.NoteOn(0, 62, 0))
	// never ended, so dropped
	melody.Add(0, midi.NoteOn(0, 65, 80))
	melody.Close(0)

	var bass smf.Track
	bass.Add(0, midi.NoteOn(1, 48, 70))
	bass.Add(0, midi.NoteOn(1, 48, 71))
	bass.Add(960, midi.NoteOff(1, 48))
	bass.Add(240, midi.NoteOff(1, 48))
	bass.Close(0)

	require.NoError(t, s.Add(melody))
	require.NoError(t, s.Add(bass))

	path := filepath.Join(t.TempDir(), "test.mid")
	require.NoError(t, s.WriteFile(path))
	return path
}

func TestDecode(t *testing.T) {
	d, err := Decode(writeTestFile(t), 0)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(480, d.Ticks)
	assert.Equal([]model.RawNote{
		{Pitch: 60, Onset: 0, Duration: 480, Velocity: 100},
		{Pitch: 62, Onset: 480, Duration: 240, Velocity: 90},
		{Pitch: 48, Onset: 0, Duration: 960, Velocity: 70},
		{Pitch: 48, Onset: 0, Duration: 1200, Velocity: 71},
	}, d.Notes)
}

func TestDecodeQuantized(t *testing.T) {
	d, err := Decode(writeTestFile(t), 8)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(8, d.Ticks)
	assert.Equal([]model.RawNote{
		{Pitch: 60, Onset: 0, Duration: 8, Velocity: 100},
		{Pitch: 62, Onset: 8, Duration: 4, Velocity: 90},
		{Pitch: 48, Onset: 0, Duration: 16, Velocity: 70},
		{Pitch: 48, Onset: 0, Duration: 20, Velocity: 71},
	}, d.Notes)
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.mid"), 0)
	assert.Error(t, err)
}

func TestDecodeGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mid")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a midi file"), 0666))

	_, err := Decode(path, 0)
	assert.Error(t, err)
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		x, tpq, resolution, want int
	}{
		{
			x:          480,
			tpq:        480,
			resolution: 8,
			want:       8,
		},
		{
			x:          30,
			tpq:        480,
			resolution: 8,
			want:       1,
		},
		{
			x:          29,
			tpq:        480,
			resolution: 8,
			want:       0,
		},
		{
			x:          1000,
			tpq:        96,
			resolution: 12,
			want:       125,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantize(tt.x, tt.tpq, tt.resolution))
	}
}
