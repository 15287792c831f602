package core

import (
	"context"
	"testing"
	"time"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.EventType == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op {
			if success && record.err == nil {
				return true
			}
			if !success && record.err != nil {
				return true
			}
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func TestServiceObservabilityPipeline(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}

	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)

	tenant, _, err := svc.CreateTenant(ctx, Tenant{Name: "Northwind HVAC"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if !audit.has("create_tenant", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.EntityID == tenant.ID }) {
		t.Fatalf("expected audit entry for create_tenant success")
	}

	if _, _, _, err := svc.SaveDiscoveryNotes(ctx, tenant.ID, "consultant-1", sampleNotes()); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if !audit.has("save_discovery_notes", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.TenantID == tenant.ID }) {
		t.Fatalf("expected audit entry for save_discovery_notes success")
	}

	inserted, err := svc.RecompileTickets(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("recompile tickets: %v", err)
	}
	if inserted == 0 {
		t.Fatalf("expected compiled tickets")
	}
	if !audit.has("compile_tickets", AuditStatusSuccess, func(entry AuditEntry) bool {
		count, ok := entry.Metadata["inserted_tickets"].(int)
		return ok && count == inserted
	}) {
		t.Fatalf("expected audit entry for compile_tickets with inserted count")
	}

	tickets := svc.Store().TicketsByTenant(tenant.ID)
	if len(tickets) == 0 {
		t.Fatalf("expected persisted tickets")
	}
	ticketID := tickets[0].TicketID

	if _, err := svc.ProposeTicket(ctx, "consultant-1", RoleObserver, ticketID); err != nil {
		t.Fatalf("propose ticket: %v", err)
	}
	if _, err := svc.ApproveTicket(ctx, "exec-1", RoleExecutive, ticketID); err != nil {
		t.Fatalf("approve ticket: %v", err)
	}
	if !audit.has("propose_ticket", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.EntityID == ticketID }) {
		t.Fatalf("expected audit entry for propose_ticket success")
	}
	if !audit.has("approve_ticket", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.ActorID == "exec-1" }) {
		t.Fatalf("expected audit entry for approve_ticket success")
	}

	if _, _, err := svc.CloseIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
		t.Fatalf("close intake window: %v", err)
	}
	if _, _, err := svc.SetBriefStatus(ctx, tenant.ID, "exec-1", BriefStatusAcknowledged); err != nil {
		t.Fatalf("set brief status: %v", err)
	}
	if !audit.has("close_intake_window", AuditStatusSuccess, nil) {
		t.Fatalf("expected audit entry for close_intake_window success")
	}
	if !audit.has("set_brief_status", AuditStatusSuccess, func(entry AuditEntry) bool {
		status, ok := entry.Metadata["brief_status"].(string)
		return ok && status == string(BriefStatusAcknowledged)
	}) {
		t.Fatalf("expected audit entry for set_brief_status success")
	}

	for _, op := range []string{
		"create_tenant",
		"save_discovery_notes",
		"compile_tickets",
		"propose_ticket",
		"approve_ticket",
		"close_intake_window",
		"set_brief_status",
	} {
		if !metrics.has(op, true) {
			t.Fatalf("expected success metric for %s", op)
		}
		if !tracer.has(op, true) {
			t.Fatalf("expected success span for %s", op)
		}
	}
}

func TestServiceObservabilityRecordsFailures(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}

	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)
	tenant := seedTenant(t, svc, "Failure Modes Ltd")
	tickets := seedCompiledTickets(t, svc, tenant.ID)

	if _, err := svc.ApproveTicket(ctx, "observer-1", RoleObserver, tickets[0].TicketID); err == nil {
		t.Fatalf("expected observer approval to fail")
	}
	if !audit.has("approve_ticket", AuditStatusError, func(entry AuditEntry) bool {
		msg, ok := entry.Metadata["error"].(string)
		return ok && msg != ""
	}) {
		t.Fatalf("expected audit entry for approve_ticket failure with error metadata")
	}
	if !metrics.has("approve_ticket", false) {
		t.Fatalf("expected failure metric for approve_ticket")
	}
	if !tracer.has("approve_ticket", false) {
		t.Fatalf("expected failure span for approve_ticket")
	}

	if _, _, err := svc.CloseIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
		t.Fatalf("close intake window: %v", err)
	}
	if _, _, _, err := svc.SaveDiscoveryNotes(ctx, tenant.ID, "consultant-1", sampleNotes()); err == nil {
		t.Fatalf("expected notes submission to fail while intake is closed")
	}
	if !audit.has("save_discovery_notes", AuditStatusError, func(entry AuditEntry) bool { return entry.TenantID == tenant.ID }) {
		t.Fatalf("expected audit entry for blocked save_discovery_notes")
	}
}
