// Package chart draws the domain of a feature as a bar chart, either as a
// PNG for reports or as an HTML page for the server.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// MaxBars caps how many domain codes are drawn. The rest are folded into
// the remainder bar.
const MaxBars = 40

// Totals sums every column of fd over all rows.
func Totals(fd collector.FeatureData) []uint64 {
	totals := make([]uint64, fd.Width())
	for row := 0; row < fd.Rows(); row++ {
		for col, v := range fd.Row(row) {
			totals[col] += v
		}
	}
	return totals
}

// bars returns labels and heights with at most MaxBars domain codes plus a
// remainder bar.
func bars(fd collector.FeatureData) ([]string, []uint64) {
	totals := Totals(fd)
	n := util.Min(len(fd.Domain), MaxBars)

	labels := make([]string, 0, n+1)
	values := make([]uint64, 0, n+1)
	for i := 0; i < n; i++ {
		labels = append(labels, strconv.FormatUint(fd.Domain[i], 10))
		values = append(values, totals[i])
	}
	return append(labels, "remainder"), append(values, util.Sum(totals[n:]))
}

// WriteHTML renders fd as an interactive bar chart page.
func WriteHTML(w io.Writer, name string, fd collector.FeatureData) error {
	labels, values := bars(fd)
	data := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.BarData{Value: v})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: fmt.Sprintf("pieces=%d domain=%d", fd.Rows(), len(fd.Domain))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "code"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "weight"}),
	)
	bar.SetXAxis(labels).AddSeries(name, data)

	if err := bar.Render(w); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

func newPlot(name string, fd collector.FeatureData) (*plot.Plot, error) {
	labels, values := bars(fd)
	heights := make(plotter.Values, len(values))
	for i, v := range values {
		heights[i] = float64(v)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d pieces)", name, fd.Rows())
	p.X.Label.Text = "code"
	p.Y.Label.Text = "weight"

	b, err := plotter.NewBarChart(heights, vg.Points(8))
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	b.LineStyle.Width = vg.Length(0)
	p.Add(b)
	p.NominalX(labels...)
	return p, nil
}

// SavePNG writes fd as a PNG bar chart to path.
func SavePNG(path, name string, fd collector.FeatureData) error {
	p, err := newPlot(name, fd)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// WritePNG streams fd as a PNG bar chart.
func WritePNG(w io.Writer, name string, fd collector.FeatureData) error {
	p, err := newPlot(name, fd)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}
