package cmd

import (
	"fmt"
	"io"

	"github.com/jsphweid/stylerank/chord"
	"github.com/jsphweid/stylerank/midi"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/sample"
	"github.com/jsphweid/stylerank/util"
	"github.com/spf13/cobra"
)

var (
	inspectPolicy  string
	inspectRests   bool
	excerptChord   int
	excerptLength  int
	excerptOutPath string
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	f := inspectCmd.Flags()
	f.StringVar(&inspectPolicy, "policy", chord.OnsetPolicy.String(), "chord boundaries: onset or onset-offset")
	f.BoolVar(&inspectRests, "rests", false, "include rest chords")
	f.IntVar(&excerptChord, "excerpt", -1, "write an excerpt starting at this chord")
	f.IntVar(&excerptLength, "excerpt-chords", 4, "number of chords in the excerpt")
	f.StringVar(&excerptOutPath, "out", "excerpt.mid", "where to write the excerpt")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Prints the chords of a MIDI file",
	Long:  `Prints the chords of a MIDI file and optionally writes a short excerpt around one of them.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(inspect(cmd.OutOrStdout(), args[0]))
	},
}

func inspect(w io.Writer, path string) error {
	policy, err := chord.ParsePolicy(inspectPolicy)
	if err != nil {
		return err
	}

	s, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	decoded, err := midi.FromSMF(s, 0)
	if err != nil {
		return err
	}
	p := piece.New(decoded.Notes, decoded.Ticks, piece.Options{Policy: policy})

	chords := p.Chords
	if inspectRests {
		chords = p.ChordsWithRests
	}
	fmt.Fprintf(w, "notes: %d, chords: %d, ticks per quarter: %d\n", len(p.Notes), len(chords), p.Ticks)
	for i, c := range chords {
		fmt.Fprintf(w, "%4d  onset=%-8d duration=%-6d %s\n", i, c.Onset, c.Duration, chord.Key(p.Notes, c))
	}

	if excerptChord < 0 {
		return nil
	}
	if excerptChord >= len(chords) {
		return fmt.Errorf("chord %d out of range, file has %d", excerptChord, len(chords))
	}
	last := util.Min(excerptChord+excerptLength, len(chords)) - 1
	start, end := chords[excerptChord].Onset, chords[last].End()
	if err := sample.WriteWindow(s, uint64(start), uint64(end), excerptOutPath); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote chords %d-%d to %s\n", excerptChord, last, excerptOutPath)
	return nil
}
