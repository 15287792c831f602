package core

import (
	"context"
	"fmt"

	"discoverycore/pkg/domain"
)

// TicketProvenanceRule blocks any ticket write with empty provenance: no
// ticket without traceable origin. The compiler's own invariants make this
// unreachable, so the rule guards against future mapping regressions at the
// persistence boundary.
func TicketProvenanceRule() domain.Rule {
	return ticketProvenanceRule{}
}

type ticketProvenanceRule struct{}

func (ticketProvenanceRule) Name() string { return "ticket_provenance" }

func (ticketProvenanceRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTicket || change.Action == domain.ActionDelete {
			continue
		}
		ticket, ok := decodeChangePayload[domain.Ticket](change.After)
		if !ok {
			continue
		}
		if len(ticket.Provenance) == 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "ticket_provenance",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("ticket %s has no finding provenance", ticket.ID),
				Entity:   domain.EntityTicket,
				EntityID: ticket.ID,
			})
		}
	}
	return res, nil
}
