// Package midi decodes Standard MIDI Files into raw notes.
package midi

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Decoded is the flat note list of one file. Onsets and durations are in
// Ticks per quarter note.
type Decoded struct {
	Notes []model.RawNote
	Ticks int
}

// Decoder turns a path into notes, re-quantized to resolution ticks per
// quarter when resolution > 0.
type Decoder func(path string, resolution int) (Decoded, error)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// gomidi panics on some malformed files
	defer errors.Recover(func(cause error) {
		s, e = nil, fmt.Errorf("parsing midi file %s: %v", filepath, cause)
	})

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.WithStackTrace(fmt.Errorf("parsing midi file %s: %w", filepath, err))
	}
	return res, nil
}

// Decode reads path and extracts its notes.
func Decode(path string, resolution int) (Decoded, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return Decoded{}, err
	}
	return FromSMF(s, resolution)
}

type noteKey struct {
	channel uint8
	key     uint8
}

type pending struct {
	onset    int64
	velocity uint8
}

// FromSMF pairs every note start with the next end of the same channel and
// key on the same track, oldest start first. Starts that never end are
// dropped. Notes are returned in start order per track, tracks in file
// order.
func FromSMF(s *smf.SMF, resolution int) (Decoded, error) {
	tf, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return Decoded{}, errors.WithStackTrace(fmt.Errorf("unsupported time format %v", s.TimeFormat))
	}
	tpq := int(tf.Resolution())
	if tpq <= 0 {
		return Decoded{}, errors.WithStackTrace(fmt.Errorf("invalid ticks per quarter %d", tpq))
	}

	res := Decoded{Ticks: tpq}
	if resolution > 0 {
		res.Ticks = resolution
	}

	for _, track := range s.Tracks {
		var notes []model.RawNote
		var starts []int64
		open := make(map[noteKey][]pending)

		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)

			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				k := noteKey{channel, key}
				open[k] = append(open[k], pending{onset: absTicks, velocity: velocity})
			case event.Message.GetNoteOn(&channel, &key, &velocity),
				event.Message.GetNoteOff(&channel, &key, &velocity):
				k := noteKey{channel, key}
				queue := open[k]
				if len(queue) == 0 {
					continue
				}
				start := queue[0]
				open[k] = queue[1:]

				note := model.RawNote{
					Pitch:    int(key),
					Onset:    int(start.onset),
					Duration: int(absTicks - start.onset),
					Velocity: int(start.velocity),
				}
				if resolution > 0 {
					note.Onset = Quantize(note.Onset, tpq, resolution)
					note.Duration = Quantize(note.Duration, tpq, resolution)
				}
				notes = append(notes, note)
				starts = append(starts, start.onset)
			}
		}

		order := make([]int, len(notes))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return starts[order[a]] < starts[order[b]]
		})
		for _, i := range order {
			res.Notes = append(res.Notes, notes[i])
		}
	}
	return res, nil
}

// Quantize rescales x from tpq ticks per quarter to resolution ticks per
// quarter, rounding half away from zero.
func Quantize(x, tpq, resolution int) int {
	return int(math.Round(float64(x) / float64(tpq) * float64(resolution)))
}
