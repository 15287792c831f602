package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ticketsFlags struct {
	tenantID string
	role     string
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List tickets for a tenant, projected for a role",
	Long: "List a tenant's live tickets. Observer-role callers receive the\n" +
		"redacted projection with estimate and cost fields stripped.",
	RunE: runTickets,
}

func init() {
	f := ticketsCmd.Flags()
	f.StringVar(&ticketsFlags.tenantID, "tenant", "", "Tenant ID (required)")
	f.StringVar(&ticketsFlags.role, "role", "observer", "Caller role (executive|observer)")

	_ = ticketsCmd.MarkFlagRequired("tenant")
}

func runTickets(cmd *cobra.Command, _ []string) error {
	role, err := parseRole(ticketsFlags.role)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	if _, err := svc.GetTenant(cmd.Context(), ticketsFlags.tenantID); err != nil {
		return err
	}
	views := svc.ListTicketsFor(cmd.Context(), ticketsFlags.tenantID, role)
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No live tickets")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKET\tTYPE\tSTATUS\tTIER\tSPRINT\tTITLE")
	for _, view := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			view.TicketID, view.Type, view.Status, view.Tier, view.Sprint, truncate(view.Title, 60))
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
