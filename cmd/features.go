package cmd

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/chord"
	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/export"
	"github.com/jsphweid/stylerank/logger"
	"github.com/jsphweid/stylerank/metadata"
	"github.com/jsphweid/stylerank/store"
	"github.com/jsphweid/stylerank/util"
	"github.com/spf13/cobra"
)

type featuresFlags struct {
	dir        string
	maxNum     int
	names      []string
	tag        string
	upperBound int
	resolution int
	minChords  int
	policy     string
	workers    int
	noStore    bool

	dynamoEndpoint string
	dynamoRegion   string
	dynamoTable    string
}

var ff featuresFlags

func init() {
	rootCmd.AddCommand(featuresCmd)

	f := featuresCmd.Flags()
	f.StringVar(&ff.dir, "dir", "", "collect every MIDI file under this directory")
	f.IntVar(&ff.maxNum, "max", 0, "stop after this many files from --dir (0 means all)")
	f.StringSliceVar(&ff.names, "features", nil, "features to extract (default: every feature carrying --tag)")
	f.StringVar(&ff.tag, "tag", constants.DefaultTag, "feature tag used when --features is empty")
	f.IntVar(&ff.upperBound, "upper-bound", constants.DefaultUpperBound, "maximum domain size per feature")
	f.IntVar(&ff.resolution, "resolution", constants.DefaultResolution, "re-quantize to this many ticks per quarter (0 keeps the file's)")
	f.IntVar(&ff.minChords, "min-chords", constants.DefaultMinChords, "skip pieces with this many chords or fewer")
	f.StringVar(&ff.policy, "policy", chord.OnsetPolicy.String(), "chord boundaries: onset or onset-offset")
	f.IntVar(&ff.workers, "workers", 0, "worker goroutines (0 means one per CPU)")
	f.BoolVar(&ff.noStore, "no-store", false, "do not record the run in the results database")
	f.StringVar(&ff.dynamoEndpoint, "dynamo-endpoint", "", "DynamoDB endpoint for metadata lookups")
	f.StringVar(&ff.dynamoRegion, "dynamo-region", "us-east-1", "DynamoDB region")
	f.StringVar(&ff.dynamoTable, "dynamo-table", "", "DynamoDB table holding metadata keyed by path")
}

var featuresCmd = &cobra.Command{
	Use:   "features [paths...]",
	Short: "Extracts features from MIDI files",
	Long: `Extracts features from the given MIDI files (or every file under --dir),
writes one CSV per feature plus a gob of the whole result to the output
directory and records the run in the results database.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(runFeatures(cmd.Context(), args, ff))
	},
}

// progressLogger logs the last call at once and coalesces the others. A
// coalesced line still pending when the last call arrives is dropped.
func progressLogger(log func(done, total int), wait time.Duration) func(done, total int) {
	debounced := debounce.New(wait)
	var mu sync.Mutex
	var finished bool
	return func(done, total int) {
		if done == total {
			mu.Lock()
			finished = true
			log(done, total)
			mu.Unlock()
			return
		}
		debounced(func() {
			mu.Lock()
			defer mu.Unlock()
			if !finished {
				log(done, total)
			}
		})
	}
}

func runFeatures(ctx context.Context, paths []string, flags featuresFlags) error {
	logger := logger.GetProjectLogger()

	if flags.dir != "" {
		found, err := util.GatherAllMidiPaths(flags.dir, flags.maxNum)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		logger.Warn("No MIDI files given")
		return nil
	}

	policy, err := chord.ParsePolicy(flags.policy)
	if err != nil {
		return err
	}

	opts := batch.DefaultOptions()
	opts.FeatureNames = flags.names
	opts.Tag = flags.tag
	opts.UpperBound = flags.upperBound
	opts.Resolution = flags.resolution
	opts.MinChords = flags.minChords
	opts.Policy = policy
	opts.Workers = flags.workers
	opts.MediaDir = constants.GetMediaDir()
	opts.Progress = progressLogger(func(done, total int) {
		logger.Infof("Processed %d/%d files", done, total)
	}, time.Second)

	out, err := batch.GetFeatures(ctx, paths, opts)
	if err != nil {
		return err
	}

	labels := &export.Labels{Paths: paths}
	if flags.dynamoTable != "" {
		src, err := metadata.NewLocalDynamoSource(flags.dynamoEndpoint, flags.dynamoRegion, flags.dynamoTable)
		if err != nil {
			return err
		}
		labels.Metadata, err = src.Lookup(ctx, paths)
		if err != nil {
			return err
		}
	}

	outDir := constants.GetOutDir()
	if err := util.EnsureDir(outDir); err != nil {
		return err
	}
	written, err := export.WriteCSVFiles(outDir, out.Result, labels)
	if err != nil {
		return err
	}
	if err := export.CreateBinary(filepath.Join(outDir, "result.gob"), out.Result); err != nil {
		return err
	}
	logger.Infof("Wrote %d feature files to %s", len(written), outDir)

	if flags.noStore {
		return nil
	}
	dbPath := constants.GetDBPath()
	if err := util.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return err
	}
	st, err := store.Open(dbPath, nil)
	if err != nil {
		return err
	}
	defer st.Close()
	summary, err := st.SaveRun(ctx, paths, opts.UpperBound, out.Result)
	if err != nil {
		return err
	}
	logger.Infof("Saved run %s", summary.ID)
	return nil
}
