// Package sample cuts short excerpts out of MIDI files so a chord can be
// auditioned on its own.
package sample

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/gruntwork-io/go-commons/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var endOfTrack = []byte{0xFF, 0x2F, 0x00}

type held struct {
	channel uint8
	key     uint8
}

// Window copies the events of mf that fall in [start, end) ticks, shifted so
// that start becomes tick 0. Non-note events before start (tempo, program
// changes) are kept at tick 0. Notes that began before start are left out
// and notes still sounding at end are closed there.
func Window(mf *smf.SMF, start, end uint64) *smf.SMF {
	res := smf.New()
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var out smf.Track
		var abs, last uint64
		open := make(map[held]int)
		emit := func(at uint64, msg smf.Message) {
			out = append(out, smf.Event{Delta: uint32(at - last), Message: msg})
			last = at
		}

		for _, evt := range track {
			abs += uint64(evt.Delta)
			if abs >= end {
				break
			}
			var rel uint64
			if abs > start {
				rel = abs - start
			}

			var channel, key, velocity uint8
			switch {
			case bytes.Equal(evt.Message, endOfTrack):
				// Close adds it back
			case evt.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				if abs < start {
					continue
				}
				open[held{channel, key}]++
				emit(rel, evt.Message)
			case evt.Message.GetNoteOn(&channel, &key, &velocity),
				evt.Message.GetNoteOff(&channel, &key, &velocity):
				h := held{channel, key}
				if open[h] == 0 {
					continue
				}
				open[h]--
				emit(rel, evt.Message)
			default:
				emit(rel, evt.Message)
			}
		}

		var still []held
		for h, n := range open {
			for i := 0; i < n; i++ {
				still = append(still, h)
			}
		}
		sort.Slice(still, func(a, b int) bool {
			if still[a].channel != still[b].channel {
				return still[a].channel < still[b].channel
			}
			return still[a].key < still[b].key
		})
		for _, h := range still {
			emit(end-start, smf.Message(midi.NoteOff(h.channel, h.key)))
		}

		out.Close(0)
		res.Add(out)
	}

	return res
}

// WriteWindow writes Window(mf, start, end) to path.
func WriteWindow(mf *smf.SMF, start, end uint64, path string) error {
	if end <= start {
		return errors.WithStackTrace(fmt.Errorf("empty window [%d, %d)", start, end))
	}
	if err := Window(mf, start, end).WriteFile(path); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}
