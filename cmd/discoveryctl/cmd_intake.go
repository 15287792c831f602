package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var intakeFlags struct {
	tenantID string
	actorID  string
}

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Open or close a tenant's intake window",
}

var intakeCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the intake window, freezing discovery input",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		tenant, _, err := svc.CloseIntakeWindow(cmd.Context(), intakeFlags.tenantID, intakeFlags.actorID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Intake window for tenant %s is now %s\n", tenant.ID, tenant.IntakeWindow)
		return nil
	},
}

var intakeOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Reopen the intake window for further discovery input",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		tenant, _, err := svc.OpenIntakeWindow(cmd.Context(), intakeFlags.tenantID, intakeFlags.actorID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Intake window for tenant %s is now %s\n", tenant.ID, tenant.IntakeWindow)
		return nil
	},
}

func init() {
	pf := intakeCmd.PersistentFlags()
	pf.StringVar(&intakeFlags.tenantID, "tenant", "", "Tenant ID (required)")
	pf.StringVar(&intakeFlags.actorID, "actor", "", "Acting user ID (required)")

	_ = intakeCmd.MarkPersistentFlagRequired("tenant")
	_ = intakeCmd.MarkPersistentFlagRequired("actor")

	intakeCmd.AddCommand(intakeCloseCmd, intakeOpenCmd)
}
