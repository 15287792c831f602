package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gatesFlags struct {
	tenantID string
}

var gatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "Check whether roadmap generation is allowed for a tenant",
	RunE:  runGates,
}

func init() {
	gatesCmd.Flags().StringVar(&gatesFlags.tenantID, "tenant", "", "Tenant ID (required)")
	_ = gatesCmd.MarkFlagRequired("tenant")
}

func runGates(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	decision, err := svc.CanGenerateRoadmap(cmd.Context(), gatesFlags.tenantID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if decision.Allowed {
		fmt.Fprintf(out, "Roadmap generation is allowed for tenant %s\n", gatesFlags.tenantID)
		return nil
	}
	fmt.Fprintf(out, "Roadmap generation is blocked for tenant %s:\n", gatesFlags.tenantID)
	for _, gate := range decision.BlockedBy {
		fmt.Fprintf(out, "  - %s\n", gate)
	}
	return nil
}
