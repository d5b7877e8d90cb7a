// Package rank orders candidate pieces by their stylistic similarity to a
// corpus.
//
// For every feature a random forest learns to tell candidates from the
// corpus. Pieces that land in the same leaves are alike, so each piece is
// embedded as the one-hot encoding of its leaves and compared to the corpus
// pieces by cosine similarity.
package rank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	goerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	candidateLabel = 0
	corpusLabel    = 1
)

var (
	ErrNoCandidates = errors.New("no candidate could be processed")
	ErrNoCorpus     = errors.New("no corpus piece could be processed")
)

type Options struct {
	Batch  batch.Options
	Forest ForestOptions
}

func DefaultOptions() Options {
	return Options{Batch: batch.DefaultOptions(), Forest: DefaultForestOptions()}
}

type Ranked struct {
	// Index is the position in the candidate list.
	Index      int                `json:"index"`
	Path       string             `json:"path"`
	Similarity float64            `json:"similarity"`
	Features   map[string]float64 `json:"features"`
}

type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type Result struct {
	// Ranked is ordered most similar first.
	Ranked  []Ranked  `json:"ranked"`
	Corpus  []string  `json:"corpus"`
	Skipped []Skipped `json:"skipped"`
}

// Rank extracts features from candidates and corpus in one batch, so both
// share each feature's domain, and scores every candidate by its mean
// similarity to the corpus averaged over features.
func Rank(ctx context.Context, candidates, corpus []string, opts Options) (*Result, error) {
	logger := logger.GetProjectLogger()

	paths := append(append([]string(nil), candidates...), corpus...)
	out, err := batch.GetFeatures(ctx, paths, opts.Batch)
	if err != nil {
		return nil, err
	}

	res := &Result{Ranked: []Ranked{}, Corpus: []string{}, Skipped: []Skipped{}}
	for _, s := range out.Skipped {
		res.Skipped = append(res.Skipped, Skipped{Path: s.Path, Reason: s.Reason})
	}

	labels := make([]int, len(out.Indices))
	var candidateRows []int
	for row, index := range out.Indices {
		if index < len(candidates) {
			labels[row] = candidateLabel
			candidateRows = append(candidateRows, row)
		} else {
			labels[row] = corpusLabel
			res.Corpus = append(res.Corpus, paths[index])
		}
	}
	if len(candidateRows) == 0 {
		return nil, ErrNoCandidates
	}
	if len(res.Corpus) == 0 {
		return nil, ErrNoCorpus
	}

	sims, err := Similarities(out.Result, labels, opts.Forest)
	if err != nil {
		return nil, err
	}
	names := maps.Keys(sims)
	sort.Strings(names)

	for _, row := range candidateRows {
		index := out.Indices[row]
		r := Ranked{Index: index, Path: paths[index], Features: make(map[string]float64, len(names))}
		values := make([]float64, 0, len(names))
		for _, name := range names {
			r.Features[name] = sims[name][row]
			values = append(values, sims[name][row])
		}
		r.Similarity = stat.Mean(values, nil)
		res.Ranked = append(res.Ranked, r)
	}
	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Similarity > res.Ranked[j].Similarity
	})

	logger.WithFields(logrus.Fields{
		"candidates": len(res.Ranked),
		"corpus":     len(res.Corpus),
		"skipped":    len(res.Skipped),
		"features":   len(names),
	}).Info("Ranked candidates")
	return res, nil
}

// Similarities returns, per feature, every row's mean cosine similarity to
// the rows labelled as corpus. Features are fitted in name order, each with
// its own seed derived from opts.Seed.
func Similarities(res collector.Result, labels []int, opts ForestOptions) (map[string][]float64, error) {
	var corpusRows []int
	for row, l := range labels {
		if l == corpusLabel {
			corpusRows = append(corpusRows, row)
		}
	}

	names := maps.Keys(res.Features)
	sort.Strings(names)

	sims := make(map[string][]float64, len(names))
	for i, name := range names {
		fd := res.Features[name]
		if fd.Rows() != len(labels) {
			return nil, fmt.Errorf("feature %s has %d rows but %d labels", name, fd.Rows(), len(labels))
		}
		if len(labels) == 0 {
			sims[name] = []float64{}
			continue
		}

		x := toDense(fd)
		featureOpts := opts
		featureOpts.Seed = opts.Seed + int64(i)
		embedding := Fit(x, labels, featureOpts).Embed(x)

		cos := cosine(embedding)
		values := make([]float64, len(labels))
		toCorpus := make([]float64, len(corpusRows))
		for row := range values {
			for k, c := range corpusRows {
				toCorpus[k] = cos.At(row, c)
			}
			values[row] = stat.Mean(toCorpus, nil)
		}
		sims[name] = values
	}
	return sims, nil
}

func toDense(fd collector.FeatureData) *mat.Dense {
	data := make([]float64, len(fd.Matrix))
	for i, v := range fd.Matrix {
		data[i] = float64(v)
	}
	return mat.NewDense(fd.Rows(), fd.Width(), data)
}

// cosine returns the pairwise cosine similarity of the rows of m. A zero row
// is similar to nothing.
func cosine(m *mat.Dense) *mat.Dense {
	rows, _ := m.Dims()
	normed := mat.DenseCopyOf(m)
	for i := 0; i < rows; i++ {
		row := normed.RawRowView(i)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}

	var res mat.Dense
	res.Mul(normed, normed.T())
	res.Apply(func(_, _ int, v float64) float64 {
		return math.Min(v, 1)
	}, &res)
	return &res
}

// WriteJSON writes res to path, indented.
func WriteJSON(path string, res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return goerrors.WithStackTrace(err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return goerrors.WithStackTrace(err)
	}
	return nil
}
