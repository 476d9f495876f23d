package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const RangedVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:               "ranged",
	Short:             "Serve and fetch HTTP byte ranges from local files and remote blobs",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, err = fmt.Fprintln(os.Stderr, err)
		if err != nil {
			return
		}
		os.Exit(1)
	}
}
