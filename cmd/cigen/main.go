package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Set during build.

var rootCmd = &cobra.Command{
	Use:     "cigen",
	Short:   "Static CI dashboard data generator",
	Long:    `Cigen fetches workflow runs, jobs, and annotation stats for every repository in the manifest and writes the JSON artifacts that ciboard serves when the live GitHub API is unavailable.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
