package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var compileFlags struct {
	tenantID string
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Recompile tickets from the latest discovery notes",
	Long: "Archive the tenant's live tickets and regenerate the working set\n" +
		"from the current discovery notes in a single transaction.",
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileFlags.tenantID, "tenant", "", "Tenant ID (required)")
	_ = compileCmd.MarkFlagRequired("tenant")
}

func runCompile(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	inserted, err := svc.RecompileTickets(cmd.Context(), compileFlags.tenantID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d tickets for tenant %s\n", inserted, compileFlags.tenantID)
	return nil
}
