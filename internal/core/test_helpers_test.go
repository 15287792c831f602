package core

import (
	"context"
	"testing"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func seedTenant(t *testing.T, svc *Service, name string) Tenant {
	t.Helper()
	tenant, _, err := svc.CreateTenant(context.Background(), Tenant{Name: name})
	if err != nil {
		t.Fatalf("create tenant %s: %v", name, err)
	}
	return tenant
}

// seedCompiledTickets saves the sample notes and compiles them, returning the
// persisted tickets.
func seedCompiledTickets(t *testing.T, svc *Service, tenantID string) []Ticket {
	t.Helper()
	ctx := context.Background()
	notes := sampleNotes()
	notes.TenantID = tenantID
	if _, _, _, err := svc.SaveDiscoveryNotes(ctx, tenantID, "actor-1", notes); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if _, err := svc.RecompileTickets(ctx, tenantID); err != nil {
		t.Fatalf("recompile: %v", err)
	}
	return svc.Store().TicketsByTenant(tenantID)
}
