package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/logger"
	"github.com/jsphweid/stylerank/rank"
	"github.com/jsphweid/stylerank/util"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

type rankFlags struct {
	corpus     []string
	corpusDir  string
	maxNum     int
	names      []string
	tag        string
	upperBound int
	trees      int
	depth      int
	seed       int64
	workers    int
	jsonPath   string
	verbose    bool
}

var rf rankFlags

func init() {
	rootCmd.AddCommand(rankCmd)

	defaults := rank.DefaultForestOptions()
	f := rankCmd.Flags()
	f.StringSliceVar(&rf.corpus, "corpus", nil, "corpus MIDI files")
	f.StringVar(&rf.corpusDir, "corpus-dir", "", "use every MIDI file under this directory as corpus")
	f.IntVar(&rf.maxNum, "max", 0, "stop after this many files from --corpus-dir (0 means all)")
	f.StringSliceVar(&rf.names, "features", nil, "features to compare (default: every feature carrying --tag)")
	f.StringVar(&rf.tag, "tag", constants.DefaultTag, "feature tag used when --features is empty")
	f.IntVar(&rf.upperBound, "upper-bound", constants.DefaultUpperBound, "maximum domain size per feature")
	f.IntVar(&rf.trees, "trees", defaults.Trees, "trees per feature forest")
	f.IntVar(&rf.depth, "depth", defaults.MaxDepth, "maximum tree depth")
	f.Int64Var(&rf.seed, "seed", defaults.Seed, "random seed")
	f.IntVar(&rf.workers, "workers", 0, "worker goroutines (0 means one per CPU)")
	f.StringVar(&rf.jsonPath, "json", "", "also write the ranking as JSON to this path")
	f.BoolVarP(&rf.verbose, "verbose", "v", false, "print per-feature similarities")
}

var rankCmd = &cobra.Command{
	Use:   "rank [candidates...]",
	Short: "Ranks MIDI files by similarity to a corpus",
	Long: `Ranks the candidate MIDI files by how closely their style matches the
corpus given with --corpus or --corpus-dir, most similar first.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(runRank(cmd.Context(), cmd.OutOrStdout(), args, rf))
	},
}

func runRank(ctx context.Context, w io.Writer, candidates []string, flags rankFlags) error {
	logger := logger.GetProjectLogger()

	corpus := append([]string(nil), flags.corpus...)
	if flags.corpusDir != "" {
		found, err := util.GatherAllMidiPaths(flags.corpusDir, flags.maxNum)
		if err != nil {
			return err
		}
		corpus = append(corpus, found...)
	}
	if len(corpus) == 0 {
		return fmt.Errorf("no corpus given, use --corpus or --corpus-dir")
	}

	opts := rank.DefaultOptions()
	opts.Batch.FeatureNames = flags.names
	opts.Batch.Tag = flags.tag
	opts.Batch.UpperBound = flags.upperBound
	opts.Batch.Workers = flags.workers
	opts.Batch.MediaDir = constants.GetMediaDir()
	opts.Forest = rank.ForestOptions{Trees: flags.trees, MaxDepth: flags.depth, Seed: flags.seed}

	res, err := rank.Rank(ctx, candidates, corpus, opts)
	if err != nil {
		return err
	}
	printRanking(w, res, flags.verbose)

	if flags.jsonPath != "" {
		if err := rank.WriteJSON(flags.jsonPath, res); err != nil {
			return err
		}
		logger.Infof("Wrote ranking to %s", flags.jsonPath)
	}
	return nil
}

func printRanking(w io.Writer, res *rank.Result, verbose bool) {
	for i, r := range res.Ranked {
		fmt.Fprintf(w, "%3d  %.4f  %s\n", i+1, r.Similarity, r.Path)
		if !verbose {
			continue
		}
		names := maps.Keys(r.Features)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "       %.4f  %s\n", r.Features[name], name)
		}
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  -  skipped  %s: %s\n", s.Path, s.Reason)
	}
}
