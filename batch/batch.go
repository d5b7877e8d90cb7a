// Package batch runs decoding, segmentation and feature evaluation over a
// list of files and collects the results.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jsphweid/stylerank/chord"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/feature"
	"github.com/jsphweid/stylerank/logger"
	"github.com/jsphweid/stylerank/midi"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
	"github.com/jsphweid/stylerank/util"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

type Options struct {
	// FeatureNames selects features by name. Empty selects every feature
	// carrying Tag.
	FeatureNames []string
	Tag          string
	UpperBound   int
	// Resolution re-quantizes notes to this many ticks per quarter. 0 keeps
	// the file's resolution.
	Resolution int
	// Pieces with MinChords chords or fewer are skipped.
	MinChords int
	Policy    chord.Policy
	Workers   int
	// MediaDir is prepended to relative paths.
	MediaDir string

	Decoder  midi.Decoder
	Clock    clock.PassiveClock
	Progress func(done, total int)
}

// DefaultOptions mirrors the constants package.
func DefaultOptions() Options {
	return Options{
		Tag:        constants.DefaultTag,
		UpperBound: constants.DefaultUpperBound,
		Resolution: constants.DefaultResolution,
		MinChords:  constants.DefaultMinChords,
	}
}

type Skip struct {
	Index  int
	Path   string
	Reason string
}

type Output struct {
	collector.Result
	Skipped []Skip
	Elapsed time.Duration
}

type pieceResult struct {
	dists map[string]model.Distribution
	skip  string
}

// GetFeatureNames lists known features carrying tag. An empty tag lists
// all of them.
func GetFeatureNames(tag string) []string {
	return feature.Names(tag)
}

// GetFeatures processes every path and returns one matrix per requested
// feature. A file that fails to decode or has too few chords is skipped and
// reported in Skipped; its index is left out of Indices.
func GetFeatures(ctx context.Context, paths []string, opts Options) (*Output, error) {
	features, err := feature.Select(opts.FeatureNames, opts.Tag)
	if err != nil {
		return nil, err
	}
	if opts.Decoder == nil {
		opts.Decoder = midi.Decode
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger := logger.GetProjectLogger()
	start := opts.Clock.Now()

	results := make([]pieceResult, len(paths))
	jobs := make(chan int)
	var done int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = process(paths[i], features, opts)

				mu.Lock()
				done++
				if opts.Progress != nil {
					opts.Progress(done, len(paths))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Output{}
	c := collector.New()
	for i, r := range results {
		if r.skip != "" {
			logger.WithFields(logrus.Fields{"path": paths[i], "index": i}).Infof("Skipping: %v", r.skip)
			out.Skipped = append(out.Skipped, Skip{Index: i, Path: paths[i], Reason: r.skip})
			continue
		}
		c.AddPiece(i, r.dists)
	}

	out.Result = c.GetData(opts.UpperBound)
	// features nobody contributed to still get an empty entry
	for _, f := range features {
		if _, ok := out.Features[f.Name()]; !ok {
			out.Features[f.Name()] = collector.FeatureData{}
		}
	}
	out.Elapsed = opts.Clock.Since(start)

	logger.WithFields(logrus.Fields{
		"processed": len(out.Indices),
		"skipped":   len(out.Skipped),
		"features":  len(features),
		"elapsed":   out.Elapsed,
	}).Info("Finished extracting features")
	return out, nil
}

func process(path string, features []feature.Feature, opts Options) pieceResult {
	decoded, err := opts.Decoder(util.ResolvePath(opts.MediaDir, path), opts.Resolution)
	if err != nil {
		return pieceResult{skip: err.Error()}
	}

	p := piece.New(decoded.Notes, decoded.Ticks, piece.Options{Policy: opts.Policy})
	if len(p.Chords) <= opts.MinChords {
		return pieceResult{skip: fmt.Sprintf("%d chords, need more than %d", len(p.Chords), opts.MinChords)}
	}

	dists := make(map[string]model.Distribution, len(features))
	for _, f := range features {
		dists[f.Name()] = f.Evaluate(p)
	}
	return pieceResult{dists: dists}
}
