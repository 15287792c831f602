package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoverycore/internal/core"
	"discoverycore/pkg/domain"
)

var reviewFlags struct {
	ticketID string
	actorID  string
	role     string
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Moderate a ticket through its review lifecycle",
}

var reviewProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Propose a generated ticket for executive review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReviewAction(cmd, "proposed", func(svc *core.Service, role domain.ActorRole) (domain.Ticket, error) {
			return svc.ProposeTicket(cmd.Context(), reviewFlags.actorID, role, reviewFlags.ticketID)
		})
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a proposed ticket (executive only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReviewAction(cmd, "approved", func(svc *core.Service, role domain.ActorRole) (domain.Ticket, error) {
			return svc.ApproveTicket(cmd.Context(), reviewFlags.actorID, role, reviewFlags.ticketID)
		})
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject a proposed ticket (executive only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReviewAction(cmd, "rejected", func(svc *core.Service, role domain.ActorRole) (domain.Ticket, error) {
			return svc.RejectTicket(cmd.Context(), reviewFlags.actorID, role, reviewFlags.ticketID)
		})
	},
}

func init() {
	pf := reviewCmd.PersistentFlags()
	pf.StringVar(&reviewFlags.ticketID, "ticket", "", "Ticket ID (required)")
	pf.StringVar(&reviewFlags.actorID, "actor", "", "Acting user ID (required)")
	pf.StringVar(&reviewFlags.role, "role", "observer", "Caller role (executive|observer)")

	_ = reviewCmd.MarkPersistentFlagRequired("ticket")
	_ = reviewCmd.MarkPersistentFlagRequired("actor")

	reviewCmd.AddCommand(reviewProposeCmd, reviewApproveCmd, reviewRejectCmd)
}

func runReviewAction(cmd *cobra.Command, verb string, action func(*core.Service, domain.ActorRole) (domain.Ticket, error)) error {
	role, err := parseRole(reviewFlags.role)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	ticket, err := action(svc, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s %s (status %s)\n", ticket.TicketID, verb, ticket.Status)
	return nil
}
