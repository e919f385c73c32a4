// The reposcout-indexer CLI runs the offline side of the pipeline: normalize
// a repository export into canonical records, then embed and assemble the
// index artifact pair the API server loads.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reposcout/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "reposcout-indexer",
	Short:        "Normalize repository exports and build the searchable index artifact pair",
	Version:      version.String(),
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Local runs keep provider keys in .env; a missing file is fine.
		_ = godotenv.Load()
		return nil
	},
}

func main() {
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newBuildCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
