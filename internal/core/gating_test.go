package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"discoverycore/pkg/domain"
)

func TestCanGenerateRoadmapMatrix(t *testing.T) {
	windows := []IntakeWindowState{IntakeWindowOpen, IntakeWindowClosed}
	briefs := []BriefStatus{BriefStatusDraft, BriefStatusReadyForExec, BriefStatusAcknowledged, BriefStatusWaived}

	for _, window := range windows {
		for _, brief := range briefs {
			name := fmt.Sprintf("%s_%s", window, brief)
			t.Run(name, func(t *testing.T) {
				svc := newTestService(t)
				tenant := seedTenant(t, svc, "Acme")
				ctx := context.Background()

				if window == IntakeWindowClosed {
					if _, _, err := svc.CloseIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
						t.Fatalf("close intake: %v", err)
					}
				}
				if _, _, err := svc.SetBriefStatus(ctx, tenant.ID, "exec-1", brief); err != nil {
					t.Fatalf("set brief: %v", err)
				}

				decision, err := svc.CanGenerateRoadmap(ctx, tenant.ID)
				if err != nil {
					t.Fatalf("gate check: %v", err)
				}
				want := window == IntakeWindowClosed && brief.Resolved()
				if decision.Allowed != want {
					t.Fatalf("allowed=%v for window=%s brief=%s, want %v", decision.Allowed, window, brief, want)
				}

				blocked := map[GateName]bool{}
				for _, gate := range decision.BlockedBy {
					blocked[gate] = true
				}
				if got, want := blocked[GateIntakeWindow], window != IntakeWindowClosed; got != want {
					t.Fatalf("intake gate blocked=%v, want %v", got, want)
				}
				if got, want := blocked[GateExecutiveBrief], !brief.Resolved(); got != want {
					t.Fatalf("brief gate blocked=%v, want %v", got, want)
				}
			})
		}
	}
}

func TestCanGenerateRoadmapNoBrief(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()
	if _, _, err := svc.CloseIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
		t.Fatalf("close intake: %v", err)
	}

	decision, err := svc.CanGenerateRoadmap(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("gate check: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("tenant with no brief must be unresolved")
	}
	if len(decision.BlockedBy) != 1 || decision.BlockedBy[0] != GateExecutiveBrief {
		t.Fatalf("expected executive_brief blocking, got %v", decision.BlockedBy)
	}
}

func TestCanGenerateRoadmapNeverCached(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()

	if d, _ := svc.CanGenerateRoadmap(ctx, tenant.ID); d.Allowed {
		t.Fatalf("fresh tenant unexpectedly allowed")
	}
	if _, _, err := svc.CloseIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
		t.Fatalf("close intake: %v", err)
	}
	if _, _, err := svc.SetBriefStatus(ctx, tenant.ID, "exec-1", BriefStatusWaived); err != nil {
		t.Fatalf("set brief: %v", err)
	}
	if d, _ := svc.CanGenerateRoadmap(ctx, tenant.ID); !d.Allowed {
		t.Fatalf("expected allowed after both gates resolved")
	}
	if _, _, err := svc.OpenIntakeWindow(ctx, tenant.ID, "exec-1"); err != nil {
		t.Fatalf("reopen intake: %v", err)
	}
	if d, _ := svc.CanGenerateRoadmap(ctx, tenant.ID); d.Allowed {
		t.Fatalf("stale gate decision served after state change")
	}
}

func TestCanGenerateRoadmapUnknownTenant(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CanGenerateRoadmap(context.Background(), "missing")
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) || notFound.Entity != EntityTenant {
		t.Fatalf("expected tenant NotFoundError, got %v", err)
	}
}

func TestApprovedTicketsSelection(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()
	tickets := seedCompiledTickets(t, svc, tenant.ID)

	if _, err := svc.ProposeTicket(ctx, "obs", RoleObserver, tickets[0].ID); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := svc.ApproveTicket(ctx, "exec", RoleExecutive, tickets[0].ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.ProposeTicket(ctx, "obs", RoleObserver, tickets[1].ID); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := svc.RejectTicket(ctx, "exec", RoleExecutive, tickets[1].ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	approved := svc.ApprovedTickets(ctx, tenant.ID)
	if len(approved) != 1 || approved[0].ID != tickets[0].ID {
		t.Fatalf("approved selection wrong: %+v", approved)
	}

	// Archived tickets drop out regardless of prior approval.
	if _, err := svc.InvalidateTickets(ctx, tenant.ID, "exec", "supersede"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got := svc.ApprovedTickets(ctx, tenant.ID); len(got) != 0 {
		t.Fatalf("archived tickets leaked into roadmap input: %+v", got)
	}
}
