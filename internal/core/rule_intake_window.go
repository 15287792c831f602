package core

import (
	"context"
	"fmt"

	"discoverycore/pkg/domain"
)

// IntakeWindowRule blocks discovery notes writes for tenants whose intake
// window is CLOSED. The service rejects these submissions before opening a
// transaction; the rule enforces the same gate at commit time for any caller
// that reaches the store directly.
func IntakeWindowRule() domain.Rule {
	return intakeWindowRule{}
}

type intakeWindowRule struct{}

func (intakeWindowRule) Name() string { return "intake_window" }

func (intakeWindowRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityDiscoveryNotes {
			continue
		}
		notes, ok := decodeChangePayload[domain.DiscoveryNotes](change.After)
		if !ok {
			continue
		}
		tenant, ok := view.FindTenant(notes.TenantID)
		if !ok {
			continue
		}
		if tenant.IntakeWindow == domain.IntakeWindowClosed {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "intake_window",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("intake window closed for tenant %s", notes.TenantID),
				Entity:   domain.EntityDiscoveryNotes,
				EntityID: notes.ID,
			})
		}
	}
	return res, nil
}
