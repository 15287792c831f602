package core

import (
	"context"
	"fmt"
	"strings"

	"discoverycore/pkg/domain"
)

// maxTitleLength bounds the description prefix carried into a ticket title,
// label excluded.
const maxTitleLength = 60

// ticketMappings is the fixed finding-to-ticket mapping. CurrentFact is
// absent: facts are context, not actionable work.
var ticketMappings = map[FindingType]struct {
	ticketType TicketType
	label      string
}{
	FindingFrictionPoint: {TicketDiagnostic, "Investigate:"},
	FindingGoal:          {TicketCapabilityBuild, "Build Capability:"},
	FindingConstraint:    {TicketConstraintCheck, "Verify Constraint:"},
}

// CompileTickets maps a findings object to ticket drafts and persists them as
// one atomic batch, archiving the tenant's previous live generation in the
// same transaction so T-<fragment>-<n> ids never collide between two live
// generations. Every ticket carries singleton provenance pointing at its
// source finding, status generated, and placeholder tier/sprint values that a
// later estimation pass overwrites. Returns the number of tickets inserted;
// zero without error when no finding maps to a ticket type.
func (s *Service) CompileTickets(ctx context.Context, tenantID string, findings FindingsObject) (int, error) {
	var inserted int
	entry := AuditEntry{TenantID: tenantID, EntityType: EntityTicket}
	err := s.run(ctx, "compile_tickets", &entry, func(ctx context.Context) error {
		if len(findings.Findings) == 0 {
			return domain.NoFindingsError{TenantID: tenantID}
		}

		drafts := make([]Ticket, 0, len(findings.Findings))
		for _, finding := range findings.Findings {
			mapping, ok := ticketMappings[finding.Type]
			if !ok {
				continue
			}
			ordinal := len(drafts) + 1
			drafts = append(drafts, Ticket{
				TenantID:    tenantID,
				TicketID:    fmt.Sprintf("T-%s-%d", findingFragment(finding.ID), ordinal),
				Title:       ticketTitle(mapping.label, finding.Description),
				Description: finding.Description,
				Type:        mapping.ticketType,
				Provenance:  []string{finding.ID},
				Status:      TicketStatusGenerated,
				Approved:    false,
				Tier:        "unscheduled",
				Sprint:      0,
			})
		}
		if len(drafts) == 0 {
			s.logger.Info("compile produced no tickets", "tenant_id", tenantID, "findings", len(findings.Findings))
			return nil
		}

		var superseded int
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			superseded, txErr = archiveTenantTickets(tx, tenantID, "superseded by recompile")
			if txErr != nil {
				return txErr
			}
			for _, draft := range drafts {
				if _, txErr := tx.CreateTicket(draft); txErr != nil {
					return txErr
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		inserted = len(drafts)
		entry.Metadata = map[string]any{"inserted_tickets": inserted, "archived_tickets": superseded}
		s.logger.Info("tickets compiled", "tenant_id", tenantID, "inserted", inserted, "archived", superseded)
		return nil
	})
	return inserted, err
}

// RecompileTickets loads the tenant's current notes, runs extraction, and
// compiles the resulting findings into tickets.
func (s *Service) RecompileTickets(ctx context.Context, tenantID string) (int, error) {
	notes, ok := s.store.GetDiscoveryNotes(tenantID)
	if !ok {
		return 0, domain.NotFoundError{Entity: EntityDiscoveryNotes, ID: tenantID}
	}
	findings, err := ExtractFindings(tenantID, notes.ID, notes)
	if err != nil {
		return 0, err
	}
	return s.CompileTickets(ctx, tenantID, findings)
}

// findingFragment strips the FND- prefix, leaving the 8-hex content fragment.
func findingFragment(findingID string) string {
	return strings.TrimPrefix(findingID, "FND-")
}

func ticketTitle(label, description string) string {
	if runes := []rune(description); len(runes) > maxTitleLength {
		description = strings.TrimSpace(string(runes[:maxTitleLength])) + "..."
	}
	return label + " " + description
}
