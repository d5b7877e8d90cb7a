package cmd

import (
	"path/filepath"

	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/server"
	"github.com/jsphweid/stylerank/store"
	"github.com/jsphweid/stylerank/util"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveWorkers int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.DefaultAddr, "listen address")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "worker goroutines per run (0 means one per CPU)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serves",
	Long:  `Serves extraction runs, feature matrices and charts over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(serve())
	},
}

func serve() error {
	dbPath := constants.GetDBPath()
	if err := util.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return err
	}
	st, err := store.Open(dbPath, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := batch.DefaultOptions()
	opts.Workers = serveWorkers
	opts.MediaDir = constants.GetMediaDir()
	return server.New(st, opts).ListenAndServe(serveAddr)
}
