package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "discoveryctl",
	Short: "Operate the discovery-to-roadmap pipeline",
	Long: "discoveryctl drives the discovery pipeline: ingest discovery notes,\n" +
		"compile findings into tickets, moderate them, and export roadmap input sets.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(gatesCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
