package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "subtrack",
	Short: "Subtrack is the sync gateway for the substitute-teacher record keeper",
	Long: `Subtrack gates access to the record-keeping app behind a shared-secret
session, proxies the app's static assets from the upstream origin, and
persists the dataset in a local key-value store.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
