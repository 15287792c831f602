package core

import (
	"context"

	"discoverycore/pkg/domain"
)

// CanGenerateRoadmap evaluates the roadmap gating predicate for a tenant:
// generation is allowed iff the intake window is CLOSED and the executive
// brief is ACKNOWLEDGED or WAIVED. Both conditions are independently
// necessary. The predicate reads committed state on every call and is never
// cached.
func (s *Service) CanGenerateRoadmap(_ context.Context, tenantID string) (GateDecision, error) {
	tenant, ok := s.store.GetTenant(tenantID)
	if !ok {
		return GateDecision{}, domain.NotFoundError{Entity: EntityTenant, ID: tenantID}
	}
	return EvaluateGates(tenant), nil
}

// EvaluateGates computes the gate decision from a tenant record. A tenant
// with no brief at all is treated as unresolved.
func EvaluateGates(tenant Tenant) GateDecision {
	var blocked []GateName
	if tenant.IntakeWindow != IntakeWindowClosed {
		blocked = append(blocked, GateIntakeWindow)
	}
	if tenant.Brief == nil || !tenant.Brief.Status.Resolved() {
		blocked = append(blocked, GateExecutiveBrief)
	}
	return GateDecision{Allowed: len(blocked) == 0, BlockedBy: blocked}
}

// ApprovedTickets returns the roadmap input set: the tenant's tickets with
// status approved, and nothing else. This filter is the selection contract
// promised to the roadmap assembler; no further filtering is required
// downstream. Archived tickets are excluded regardless of prior approval.
func (s *Service) ApprovedTickets(_ context.Context, tenantID string) []Ticket {
	var approved []Ticket
	for _, ticket := range s.store.TicketsByTenant(tenantID) {
		if ticket.Status == TicketStatusApproved {
			approved = append(approved, ticket)
		}
	}
	return approved
}
