package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"discoverycore/pkg/domain"
)

var briefFlags struct {
	tenantID string
	actorID  string
	status   string
}

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Manage a tenant's executive brief",
}

var briefSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the executive brief status",
	Long: "Set the brief status for a tenant. The roadmap gate opens once the\n" +
		"brief is acknowledged or waived.",
	RunE: runBriefSet,
}

func init() {
	f := briefSetCmd.Flags()
	f.StringVar(&briefFlags.tenantID, "tenant", "", "Tenant ID (required)")
	f.StringVar(&briefFlags.actorID, "actor", "", "Acting user ID (required)")
	f.StringVar(&briefFlags.status, "status", "", "Brief status (draft|ready_for_exec_review|acknowledged|waived)")

	_ = briefSetCmd.MarkFlagRequired("tenant")
	_ = briefSetCmd.MarkFlagRequired("actor")
	_ = briefSetCmd.MarkFlagRequired("status")

	briefCmd.AddCommand(briefSetCmd)
}

func parseBriefStatus(raw string) (domain.BriefStatus, error) {
	switch status := domain.BriefStatus(strings.ToUpper(raw)); status {
	case domain.BriefStatusDraft, domain.BriefStatusReadyForExec, domain.BriefStatusAcknowledged, domain.BriefStatusWaived:
		return status, nil
	default:
		return "", fmt.Errorf("unknown brief status %q", raw)
	}
}

func runBriefSet(cmd *cobra.Command, _ []string) error {
	status, err := parseBriefStatus(briefFlags.status)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	tenant, _, err := svc.SetBriefStatus(cmd.Context(), briefFlags.tenantID, briefFlags.actorID, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Brief for tenant %s is now %s\n", tenant.ID, tenant.Brief.Status)
	return nil
}
