package chart

import (
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/util"
	"gonum.org/v1/gonum/stat"
)

// Summary describes how well a feature's domain covers its pieces.
type Summary struct {
	Rows      int
	Width     int
	MeanTotal float64
	StdTotal  float64

	// RemainderShare is the fraction of a row's weight outside the domain.
	MeanRemainderShare float64
	StdRemainderShare  float64

	// EmptyRows have no weight at all.
	EmptyRows int
}

func Summarize(fd collector.FeatureData) Summary {
	s := Summary{Rows: fd.Rows(), Width: fd.Width()}
	if s.Rows == 0 {
		return s
	}

	totals := make([]float64, 0, s.Rows)
	shares := make([]float64, 0, s.Rows)
	for row := 0; row < s.Rows; row++ {
		values := fd.Row(row)
		total := util.Sum(values)
		totals = append(totals, float64(total))
		if total == 0 {
			s.EmptyRows++
			continue
		}
		shares = append(shares, float64(values[len(values)-1])/float64(total))
	}

	s.MeanTotal, s.StdTotal = meanStd(totals)
	s.MeanRemainderShare, s.StdRemainderShare = meanStd(shares)
	return s
}

// meanStd is stat.MeanStdDev with a zero deviation for fewer than two
// samples instead of NaN.
func meanStd(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
