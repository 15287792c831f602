package core

import (
	"errors"
	"strings"
	"testing"

	"discoverycore/pkg/domain"

	"github.com/google/go-cmp/cmp"
)

func sampleNotes() DiscoveryNotes {
	return DiscoveryNotes{
		TenantID:                  "tenant-1",
		CurrentBusinessReality:    "Local HVAC company, 12 staff, paper-based dispatch",
		PrimaryFrictionPoints:     "Leads go stale\nNo handoff process",
		DesiredFutureState:        "Automated follow-up within one hour",
		ExplicitClientConstraints: "Budget capped at 10k",
	}
}

func TestExtractFindingsRequiresReality(t *testing.T) {
	notes := sampleNotes()
	notes.CurrentBusinessReality = "   "
	_, err := ExtractFindings("tenant-1", "notes-1", notes)
	var invalid domain.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if invalid.Field != "current_business_reality" {
		t.Fatalf("unexpected field %q", invalid.Field)
	}
}

func TestExtractFindingsShape(t *testing.T) {
	obj, err := ExtractFindings("tenant-1", "notes-1", sampleNotes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if obj.TenantID != "tenant-1" || obj.DiscoveryRef != "notes-1" {
		t.Fatalf("unexpected object header: %+v", obj)
	}

	byType := map[FindingType]int{}
	for _, f := range obj.Findings {
		byType[f.Type]++
		if !strings.HasPrefix(f.ID, "FND-") || len(f.ID) != len("FND-")+8 {
			t.Fatalf("malformed finding id %q", f.ID)
		}
		if f.SourceTextHash == "" {
			t.Fatalf("finding %s missing source text hash", f.ID)
		}
	}
	want := map[FindingType]int{
		FindingCurrentFact:   1,
		FindingFrictionPoint: 2,
		FindingGoal:          1,
		FindingConstraint:    1,
	}
	if diff := cmp.Diff(want, byType); diff != "" {
		t.Fatalf("finding type counts mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFindingsDeterministic(t *testing.T) {
	first, err := ExtractFindings("tenant-1", "notes-1", sampleNotes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := ExtractFindings("tenant-1", "notes-1", sampleNotes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff(first.Findings, second.Findings); diff != "" {
		t.Fatalf("findings differ across identical runs (-first +second):\n%s", diff)
	}
}

func TestExtractFindingsSingleLineIDStability(t *testing.T) {
	base, err := ExtractFindings("tenant-1", "notes-1", sampleNotes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	edited := sampleNotes()
	edited.PrimaryFrictionPoints = "Leads go stalE\nNo handoff process"
	changed, err := ExtractFindings("tenant-1", "notes-1", edited)
	if err != nil {
		t.Fatalf("extract edited: %v", err)
	}

	if len(base.Findings) != len(changed.Findings) {
		t.Fatalf("finding count changed: %d vs %d", len(base.Findings), len(changed.Findings))
	}
	diffs := 0
	for i := range base.Findings {
		if base.Findings[i].ID != changed.Findings[i].ID {
			diffs++
			if base.Findings[i].Type != FindingFrictionPoint {
				t.Fatalf("unexpected id change on %s finding", base.Findings[i].Type)
			}
		}
	}
	if diffs != 1 {
		t.Fatalf("expected exactly one finding id to change, got %d", diffs)
	}
}

func TestExtractFindingsNoiseFilter(t *testing.T) {
	notes := sampleNotes()
	// "žůžo" is four characters but eight bytes; the filter counts
	// characters, so it must be dropped like any other short line.
	notes.PrimaryFrictionPoints = "ok\n  \nLeads go stale\nabc\nžůžo\nNo handoff process"
	obj, err := ExtractFindings("tenant-1", "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	friction := 0
	for _, f := range obj.Findings {
		if f.Type == FindingFrictionPoint {
			friction++
			if len([]rune(f.Description)) < minFindingLength {
				t.Fatalf("short line survived filter: %q", f.Description)
			}
		}
	}
	if friction != 2 {
		t.Fatalf("expected 2 friction findings after filtering, got %d", friction)
	}
}

func TestExtractFindingsSaltsSeparateBucketsAndPositions(t *testing.T) {
	notes := sampleNotes()
	notes.PrimaryFrictionPoints = "Duplicate line text\nDuplicate line text"
	notes.DesiredFutureState = "Duplicate line text"
	obj, err := ExtractFindings("tenant-1", "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	seen := map[string]struct{}{}
	for _, f := range obj.Findings {
		if _, dup := seen[f.ID]; dup {
			t.Fatalf("duplicate finding id %s for identical text across buckets/positions", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
}

func TestExtractFindingsEmptyOptionalBuckets(t *testing.T) {
	notes := DiscoveryNotes{TenantID: "tenant-1", CurrentBusinessReality: "Runs a bakery"}
	obj, err := ExtractFindings("tenant-1", "notes-1", notes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(obj.Findings) != 1 || obj.Findings[0].Type != FindingCurrentFact {
		t.Fatalf("expected single CurrentFact finding for raw ingestion, got %+v", obj.Findings)
	}
}
