package cmd

import (
	"fmt"

	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/feature"
	"github.com/spf13/cobra"
)

var namesTag string

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.Flags().StringVar(&namesTag, "tag", feature.TagAll, "only list features carrying this tag")
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Lists feature names",
	Long:  `Lists the registered feature names, optionally filtered by tag.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range batch.GetFeatureNames(namesTag) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}
