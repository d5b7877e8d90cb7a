package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jsphweid/stylerank/chart"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/export"
	"github.com/jsphweid/stylerank/store"
	"github.com/jsphweid/stylerank/util"
	"github.com/spf13/cobra"
)

var (
	reportRunID string
	reportPlot  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "report on a stored run instead of the last result.gob")
	reportCmd.Flags().BoolVar(&reportPlot, "plot", false, "also write a PNG bar chart per feature")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Creates a report",
	Long:  `Summarizes how much of each feature's weight falls outside its domain.`,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := loadResult(cmd.Context(), reportRunID)
		cobra.CheckErr(err)
		cobra.CheckErr(report(cmd.OutOrStdout(), res, reportPlot))
	},
}

func loadResult(ctx context.Context, runID string) (collector.Result, error) {
	if runID == "" {
		return export.ReadBinary[collector.Result](filepath.Join(constants.GetOutDir(), "result.gob"))
	}

	st, err := store.Open(constants.GetDBPath(), nil)
	if err != nil {
		return collector.Result{}, err
	}
	defer st.Close()

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return collector.Result{}, err
	}
	res := collector.Result{Features: make(map[string]collector.FeatureData), Indices: run.Indices}
	for _, name := range run.Features {
		fd, err := st.GetFeature(ctx, runID, name)
		if err != nil {
			return collector.Result{}, err
		}
		res.Features[name] = fd
	}
	return res, nil
}

func report(w io.Writer, res collector.Result, plot bool) error {
	fmt.Fprintf(w, "pieces: %d\n", len(res.Indices))
	fmt.Fprintf(w, "%-28s %6s %10s %10s %10s\n", "feature", "domain", "mean", "remainder", "std")

	chartDir := filepath.Join(constants.GetOutDir(), "charts")
	if plot {
		if err := util.EnsureDir(chartDir); err != nil {
			return err
		}
	}

	for _, name := range util.SortedKeys(res.Features) {
		fd := res.Features[name]
		s := chart.Summarize(fd)
		fmt.Fprintf(w, "%-28s %6d %10.2f %10.4f %10.4f\n", name, len(fd.Domain), s.MeanTotal, s.MeanRemainderShare, s.StdRemainderShare)

		if plot {
			if err := chart.SavePNG(filepath.Join(chartDir, name+".png"), name, fd); err != nil {
				return err
			}
		}
	}
	return nil
}
