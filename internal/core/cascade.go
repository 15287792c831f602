package core

import (
	"context"
	"fmt"
	"strings"

	"discoverycore/pkg/domain"
)

// SaveDiscoveryNotes upserts a tenant's notes record and runs the
// invalidation cascade in the same transaction, so a compile can never read a
// half-superseded snapshot. Any ticket for the tenant that is not already
// archived is archived, with a system note appended instead of deleting the
// row. Returns the saved notes and the number of tickets archived.
//
// Submission is rejected with GateBlockedError while the tenant's intake
// window is CLOSED.
func (s *Service) SaveDiscoveryNotes(ctx context.Context, tenantID, actorID string, notes DiscoveryNotes) (DiscoveryNotes, int, Result, error) {
	var saved DiscoveryNotes
	var archived int
	var res Result
	entry := AuditEntry{TenantID: tenantID, ActorID: actorID, EntityType: EntityDiscoveryNotes}
	err := s.run(ctx, "save_discovery_notes", &entry, func(ctx context.Context) error {
		// Defense in depth: the extractor re-validates, but a bad payload
		// should never reach the store.
		if strings.TrimSpace(notes.CurrentBusinessReality) == "" {
			return domain.InvalidInputError{Field: "current_business_reality", Reason: "is required and must be non-empty"}
		}

		tenant, ok := s.store.GetTenant(tenantID)
		if !ok {
			return domain.NotFoundError{Entity: EntityTenant, ID: tenantID}
		}
		if tenant.IntakeWindow == IntakeWindowClosed {
			return domain.GateBlockedError{
				TenantID:  tenantID,
				Operation: "notes submission",
				Gates:     []GateName{GateIntakeWindow},
			}
		}

		notes.TenantID = tenantID
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			saved, err = tx.PutDiscoveryNotes(notes)
			if err != nil {
				return err
			}
			archived, err = archiveTenantTickets(tx, tenantID, "discovery notes superseded")
			return err
		})
		if err != nil {
			return err
		}

		entry.EntityID = saved.ID
		entry.Metadata = map[string]any{"archived_tickets": archived}
		s.logger.Info("discovery notes saved", "tenant_id", tenantID, "archived_tickets", archived)
		s.recordCascade(ctx, tenantID, actorID, archived, "discovery notes superseded")
		return nil
	})
	return saved, archived, res, err
}

// InvalidateTickets runs the cascade standalone: every non-archived ticket
// for the tenant is archived in one atomic update. Reason is recorded in the
// per-ticket system note and the audit event.
func (s *Service) InvalidateTickets(ctx context.Context, tenantID, actorID, reason string) (int, error) {
	if reason == "" {
		reason = "manual invalidation"
	}
	var archived int
	entry := AuditEntry{TenantID: tenantID, ActorID: actorID, EntityType: EntityTicket}
	err := s.run(ctx, "invalidate_tickets", &entry, func(ctx context.Context) error {
		if _, ok := s.store.GetTenant(tenantID); !ok {
			return domain.NotFoundError{Entity: EntityTenant, ID: tenantID}
		}
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			archived, txErr = archiveTenantTickets(tx, tenantID, reason)
			return txErr
		})
		if err != nil {
			return err
		}
		entry.Metadata = map[string]any{"archived_tickets": archived, "reason": reason}
		s.recordCascade(ctx, tenantID, actorID, archived, reason)
		return nil
	})
	return archived, err
}

// archiveTenantTickets is the cascade body. It is deliberately coarse and
// total: any notes edit invalidates the entire downstream generation for the
// tenant, with no incremental diff between old and new notes.
func archiveTenantTickets(tx Transaction, tenantID, reason string) (int, error) {
	archived := 0
	for _, ticket := range tx.TicketsByTenant(tenantID) {
		if ticket.Status == TicketStatusArchived {
			continue
		}
		note := fmt.Sprintf("archived by invalidation cascade: %s", reason)
		if _, err := tx.UpdateTicket(ticket.ID, func(t *Ticket) error {
			t.Status = TicketStatusArchived
			t.Approved = false
			t.AdminNotes = append(t.AdminNotes, note)
			return nil
		}); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

// recordCascade emits the one-per-run cascade audit event. A cascade that
// leaves stale tickets live is a correctness risk, so the event is emitted
// even when the count is zero.
func (s *Service) recordCascade(ctx context.Context, tenantID, actorID string, archived int, reason string) {
	s.audit.Record(ctx, AuditEntry{
		TenantID:   tenantID,
		ActorID:    actorID,
		EventType:  "invalidation_cascade",
		Status:     AuditStatusSuccess,
		EntityType: EntityTicket,
		Metadata:   map[string]any{"archived_count": archived, "reason": reason},
		OccurredAt: s.nowFn(),
	})
}
