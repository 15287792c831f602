package core

import (
	"context"
	"fmt"

	"discoverycore/pkg/domain"
)

// TicketTransitionRule blocks status moves outside the moderation state
// machine, including any move out of the terminal archived state.
func TicketTransitionRule() domain.Rule {
	return ticketTransitionRule{}
}

type ticketTransitionRule struct{}

var validTicketStatuses = map[domain.TicketStatus]struct{}{
	domain.TicketStatusGenerated: {},
	domain.TicketStatusProposed:  {},
	domain.TicketStatusApproved:  {},
	domain.TicketStatusRejected:  {},
	domain.TicketStatusArchived:  {},
}

func (ticketTransitionRule) Name() string { return "ticket_status_transition" }

func (ticketTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTicket {
			continue
		}

		after, ok := decodeChangePayload[domain.Ticket](change.After)
		if !ok {
			continue
		}
		if _, valid := validTicketStatuses[after.Status]; !valid {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "ticket_status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("ticket %s is set to unknown status %s", after.ID, after.Status),
				Entity:   domain.EntityTicket,
				EntityID: after.ID,
			})
			continue
		}

		before, ok := decodeChangePayload[domain.Ticket](change.Before)
		if !ok {
			continue
		}
		if before.Status == after.Status {
			continue
		}
		if !TransitionAllowed(before.Status, after.Status) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "ticket_status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("ticket %s cannot move %s -> %s", after.ID, before.Status, after.Status),
				Entity:   domain.EntityTicket,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
