package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"discoverycore/pkg/domain"
)

func TestCompileTicketsRejectsEmptyFindings(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")

	_, err := svc.CompileTickets(context.Background(), tenant.ID, FindingsObject{TenantID: tenant.ID})
	var noFindings domain.NoFindingsError
	if !errors.As(err, &noFindings) {
		t.Fatalf("expected NoFindingsError, got %v", err)
	}
	if noFindings.TenantID != tenant.ID {
		t.Fatalf("unexpected tenant in error: %s", noFindings.TenantID)
	}
}

func TestCompileTicketsFactsOnlyYieldsZero(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")

	obj, err := ExtractFindings(tenant.ID, "notes-1", DiscoveryNotes{
		TenantID:               tenant.ID,
		CurrentBusinessReality: "Runs a bakery with three staff",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	count, err := svc.CompileTickets(context.Background(), tenant.ID, obj)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero tickets for facts-only findings, got %d", count)
	}
	if got := len(svc.Store().TicketsByTenant(tenant.ID)); got != 0 {
		t.Fatalf("expected no persisted tickets, got %d", got)
	}
}

func TestCompileTicketsCoverage(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()

	notes := sampleNotes()
	notes.TenantID = tenant.ID
	obj, err := ExtractFindings(tenant.ID, "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	count, err := svc.CompileTickets(ctx, tenant.ID, obj)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tickets := svc.Store().TicketsByTenant(tenant.ID)
	if len(tickets) != count {
		t.Fatalf("inserted count %d disagrees with persisted %d", count, len(tickets))
	}

	// Every actionable finding maps to exactly one ticket; facts map to none.
	byProvenance := map[string]int{}
	for _, ticket := range tickets {
		if len(ticket.Provenance) != 1 {
			t.Fatalf("ticket %s provenance not singleton: %v", ticket.TicketID, ticket.Provenance)
		}
		byProvenance[ticket.Provenance[0]]++
	}
	for _, finding := range obj.Findings {
		refs := byProvenance[finding.ID]
		switch finding.Type {
		case FindingCurrentFact:
			if refs != 0 {
				t.Fatalf("fact finding %s referenced by %d tickets", finding.ID, refs)
			}
		default:
			if refs != 1 {
				t.Fatalf("finding %s (%s) referenced by %d tickets, want 1", finding.ID, finding.Type, refs)
			}
		}
	}

	typeByFinding := map[FindingType]TicketType{
		FindingFrictionPoint: TicketDiagnostic,
		FindingGoal:          TicketCapabilityBuild,
		FindingConstraint:    TicketConstraintCheck,
	}
	findingByID := map[string]Finding{}
	for _, f := range obj.Findings {
		findingByID[f.ID] = f
	}
	for _, ticket := range tickets {
		source := findingByID[ticket.Provenance[0]]
		if want := typeByFinding[source.Type]; ticket.Type != want {
			t.Fatalf("ticket from %s finding has type %s, want %s", source.Type, ticket.Type, want)
		}
		if ticket.Status != TicketStatusGenerated || ticket.Approved {
			t.Fatalf("fresh ticket %s not in generated/unapproved state", ticket.TicketID)
		}
		if !strings.HasPrefix(ticket.TicketID, "T-"+findingFragment(source.ID)+"-") {
			t.Fatalf("ticket id %s not derived from finding %s", ticket.TicketID, source.ID)
		}
	}
}

func TestCompileTicketsWorkedExample(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()

	notes := DiscoveryNotes{
		TenantID:               tenant.ID,
		CurrentBusinessReality: "Local HVAC company, paper dispatch",
		PrimaryFrictionPoints:  "Leads go stale\nNo handoff process",
	}
	obj, err := ExtractFindings(tenant.ID, "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	facts, frictions := 0, 0
	for _, f := range obj.Findings {
		switch f.Type {
		case FindingCurrentFact:
			facts++
		case FindingFrictionPoint:
			frictions++
		}
	}
	if facts != 1 || frictions != 2 {
		t.Fatalf("expected 1 fact + 2 friction findings, got %d/%d", facts, frictions)
	}

	count, err := svc.CompileTickets(ctx, tenant.ID, obj)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tickets, got %d", count)
	}
	firstTitles := map[string]struct{}{}
	for _, ticket := range svc.Store().TicketsByTenant(tenant.ID) {
		if ticket.Type != TicketDiagnostic {
			t.Fatalf("expected Diagnostic ticket, got %s", ticket.Type)
		}
		if !strings.HasPrefix(ticket.Title, "Investigate: ") {
			t.Fatalf("unexpected title %q", ticket.Title)
		}
		firstTitles[ticket.Title] = struct{}{}
	}

	// Re-extraction of unchanged notes reproduces the same ids and titles.
	again, err := ExtractFindings(tenant.ID, "notes-1", notes)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	for i := range obj.Findings {
		if obj.Findings[i].ID != again.Findings[i].ID {
			t.Fatalf("finding id drifted on identical input: %s vs %s", obj.Findings[i].ID, again.Findings[i].ID)
		}
	}
	svc2 := newTestService(t)
	tenant2, _, err := svc2.CreateTenant(ctx, Tenant{Base: Base{ID: tenant.ID}, Name: "Acme"})
	if err != nil {
		t.Fatalf("recreate tenant: %v", err)
	}
	if _, err := svc2.CompileTickets(ctx, tenant2.ID, again); err != nil {
		t.Fatalf("compile again: %v", err)
	}
	for _, ticket := range svc2.Store().TicketsByTenant(tenant2.ID) {
		if _, ok := firstTitles[ticket.Title]; !ok {
			t.Fatalf("title %q not reproduced across runs", ticket.Title)
		}
	}
}

func TestCompileTicketsTitleBounded(t *testing.T) {
	long := strings.Repeat("x", maxTitleLength*2)
	title := ticketTitle("Investigate:", long)
	if !strings.HasSuffix(title, "...") {
		t.Fatalf("expected bounded title with ellipsis, got %q", title)
	}
	if len(title) > len("Investigate: ")+maxTitleLength+3 {
		t.Fatalf("title too long: %d chars", len(title))
	}
}

func TestRecompileArchivesPreviousGeneration(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	ctx := context.Background()

	notes := sampleNotes()
	notes.TenantID = tenant.ID
	if _, _, _, err := svc.SaveDiscoveryNotes(ctx, tenant.ID, "actor-1", notes); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	first, err := svc.RecompileTickets(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("first recompile: %v", err)
	}
	second, err := svc.RecompileTickets(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("second recompile: %v", err)
	}
	if second != first {
		t.Fatalf("second recompile inserted %d tickets, want %d", second, first)
	}

	liveIDs := map[string]struct{}{}
	live, archived := 0, 0
	for _, ticket := range svc.Store().TicketsByTenant(tenant.ID) {
		if ticket.Status == TicketStatusArchived {
			archived++
			continue
		}
		live++
		if _, dup := liveIDs[ticket.TicketID]; dup {
			t.Fatalf("duplicate live ticket id %s", ticket.TicketID)
		}
		liveIDs[ticket.TicketID] = struct{}{}
	}
	if live != first {
		t.Fatalf("%d live tickets after recompile, want %d", live, first)
	}
	if archived != first {
		t.Fatalf("%d archived tickets after recompile, want %d", archived, first)
	}
}

func TestRecompileTicketsMissingNotes(t *testing.T) {
	svc := newTestService(t)
	tenant := seedTenant(t, svc, "Acme")
	_, err := svc.RecompileTickets(context.Background(), tenant.ID)
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) || notFound.Entity != EntityDiscoveryNotes {
		t.Fatalf("expected notes NotFoundError, got %v", err)
	}
}

func TestCompileIsAtomicUnderBlockingRule(t *testing.T) {
	engine := NewDefaultRulesEngine()
	engine.Register(blockTicketsRule{})
	svc := NewInMemoryService(engine)
	tenant := seedTenant(t, svc, "Acme")

	notes := sampleNotes()
	notes.TenantID = tenant.ID
	obj, err := ExtractFindings(tenant.ID, "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	_, err = svc.CompileTickets(context.Background(), tenant.ID, obj)
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if got := len(svc.Store().TicketsByTenant(tenant.ID)); got != 0 {
		t.Fatalf("partial batch persisted: %d tickets", got)
	}
}

// blockTicketsRule blocks every ticket write, forcing batch rollback.
type blockTicketsRule struct{}

func (blockTicketsRule) Name() string { return "block_tickets" }

func (blockTicketsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity == domain.EntityTicket {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "block_tickets",
				Severity: domain.SeverityBlock,
				Message:  "tickets blocked",
				Entity:   domain.EntityTicket,
			})
		}
	}
	return res, nil
}
