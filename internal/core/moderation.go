package core

import (
	"context"

	"discoverycore/pkg/domain"
)

// moderationTransitions is the ticket state machine: generated → proposed →
// approved|rejected. Archived is reachable from any non-archived state via
// the cascade and is terminal, so it never appears as a source here.
var moderationTransitions = map[TicketStatus]map[TicketStatus]struct{}{
	TicketStatusGenerated: {TicketStatusProposed: {}},
	TicketStatusProposed:  {TicketStatusApproved: {}, TicketStatusRejected: {}},
}

// executiveOnlyTargets are the transitions reserved for executive actors.
var executiveOnlyTargets = map[TicketStatus]struct{}{
	TicketStatusApproved: {},
	TicketStatusRejected: {},
}

// TransitionAllowed reports whether the moderation machine permits moving a
// ticket from one status to another, ignoring actor role.
func TransitionAllowed(from, to TicketStatus) bool {
	if to == TicketStatusArchived {
		return from != TicketStatusArchived
	}
	targets, ok := moderationTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// ProposeTicket submits a generated ticket for moderation. Any actor may
// propose.
func (s *Service) ProposeTicket(ctx context.Context, actorID string, role ActorRole, ticketID string) (Ticket, error) {
	return s.transitionTicket(ctx, "propose_ticket", actorID, role, ticketID, TicketStatusProposed)
}

// ApproveTicket moves a proposed ticket to approved. Executive actors only.
func (s *Service) ApproveTicket(ctx context.Context, actorID string, role ActorRole, ticketID string) (Ticket, error) {
	return s.transitionTicket(ctx, "approve_ticket", actorID, role, ticketID, TicketStatusApproved)
}

// RejectTicket moves a proposed ticket to rejected. Executive actors only.
// Rejected tickets are excluded from roadmap assembly.
func (s *Service) RejectTicket(ctx context.Context, actorID string, role ActorRole, ticketID string) (Ticket, error) {
	return s.transitionTicket(ctx, "reject_ticket", actorID, role, ticketID, TicketStatusRejected)
}

// resolveTicket accepts either the system id or the human-readable
// T-<fragment>-<ordinal> id that listings surface. Human ids repeat across
// archived generations, so that path only ever matches a live ticket, and an
// id live in more than one tenant resolves to nothing.
func (s *Service) resolveTicket(ticketID string) (Ticket, bool) {
	if ticket, ok := s.store.GetTicket(ticketID); ok {
		return ticket, true
	}
	var match Ticket
	found := false
	for _, ticket := range s.store.ListTickets() {
		if ticket.TicketID != ticketID || ticket.Status == TicketStatusArchived {
			continue
		}
		if found {
			return Ticket{}, false
		}
		match, found = ticket, true
	}
	return match, found
}

func (s *Service) transitionTicket(ctx context.Context, operation, actorID string, role ActorRole, ticketID string, to TicketStatus) (Ticket, error) {
	var updated Ticket
	entry := AuditEntry{ActorID: actorID, EntityType: EntityTicket, EntityID: ticketID}
	err := s.run(ctx, operation, &entry, func(ctx context.Context) error {
		current, ok := s.resolveTicket(ticketID)
		if !ok {
			return domain.NotFoundError{Entity: EntityTicket, ID: ticketID}
		}
		// Audit under the human-readable id whichever identifier the
		// caller supplied.
		entry.EntityID = current.TicketID
		entry.TenantID = current.TenantID

		// Authorization precedes any state mutation.
		if _, reserved := executiveOnlyTargets[to]; reserved && role != RoleExecutive {
			return domain.UnauthorizedTransitionError{ActorID: actorID, Role: role, From: current.Status, To: to}
		}
		if !TransitionAllowed(current.Status, to) {
			return domain.InvalidTransitionError{TicketID: ticketID, From: current.Status, To: to}
		}

		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateTicket(current.ID, func(t *Ticket) error {
				t.Status = to
				t.Approved = to == TicketStatusApproved
				return nil
			})
			return txErr
		})
		if err != nil {
			return err
		}
		entry.Metadata = map[string]any{"from": string(current.Status), "to": string(to)}
		return nil
	})
	return updated, err
}

// ListTicketsFor returns the audience-projected tickets for a tenant.
//
// Observers see only approved and still-proposed tickets, with admin notes,
// cost estimate, and success metric stripped. Executives see every status
// with full fields. This projection is a hard contract: restricted fields and
// rejected tickets must never reach a non-executive caller.
func (s *Service) ListTicketsFor(_ context.Context, tenantID string, role ActorRole) []TicketView {
	tickets := s.store.TicketsByTenant(tenantID)
	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		if role != RoleExecutive {
			if ticket.Status != TicketStatusApproved && ticket.Status != TicketStatusProposed {
				continue
			}
		}
		views = append(views, ProjectTicket(ticket, role))
	}
	return views
}

// ProjectTicket maps a ticket to its audience-specific view.
func ProjectTicket(ticket Ticket, role ActorRole) TicketView {
	view := TicketView{
		Base:        ticket.Base,
		TenantID:    ticket.TenantID,
		TicketID:    ticket.TicketID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Type:        ticket.Type,
		Provenance:  append([]string(nil), ticket.Provenance...),
		Status:      ticket.Status,
		Approved:    ticket.Approved,
		Tier:        ticket.Tier,
		Sprint:      ticket.Sprint,

		TimeEstimateHours:       ticket.TimeEstimateHours,
		ProjectedHoursRecovered: ticket.ProjectedHoursRecovered,
		ProjectedLeadsRecovered: ticket.ProjectedLeadsRecovered,
	}
	if role == RoleExecutive {
		cost := ticket.CostEstimate
		view.CostEstimate = &cost
		if ticket.SuccessMetric != "" {
			metric := ticket.SuccessMetric
			view.SuccessMetric = &metric
		}
		if len(ticket.AdminNotes) != 0 {
			view.AdminNotes = append([]string(nil), ticket.AdminNotes...)
		}
		return view
	}
	view.Redacted = true
	return view
}
