package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stylerank",
	Short: "Extracts style features from MIDI corpora",
	Long: `Segments MIDI files into chords, evaluates harmonic and melodic features
on every piece and collects them into per-feature matrices over a ranked
domain of codes.`,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
