package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"discoverycore/pkg/domain"
)

// minFindingLength is the noise filter applied to split buckets: trimmed lines
// shorter than this many characters are discarded. This is a mechanical
// filter, not a semantic judgment.
const minFindingLength = 5

// Source section identifiers recorded on each finding.
const (
	sectionReality     = "current_business_reality"
	sectionFriction    = "primary_friction_points"
	sectionFuture      = "desired_future_state"
	sectionConstraints = "explicit_client_constraints"
)

// Salt prefixes keyed by bucket. The salt encodes bucket name and ordinal so
// identical text in two buckets or positions never collides.
const (
	saltReality     = "REALITY"
	saltFriction    = "FRICTION"
	saltFuture      = "FUTURE"
	saltConstraints = "CONSTRAINT"
)

// ExtractFindings deterministically compiles discovery notes into atomic
// findings. It is pure: no I/O, no side effects, and re-running it on
// unchanged input reproduces identical finding ids in identical order.
func ExtractFindings(tenantID, sourceID string, notes DiscoveryNotes) (FindingsObject, error) {
	if strings.TrimSpace(notes.CurrentBusinessReality) == "" {
		return FindingsObject{}, domain.InvalidInputError{
			Field:  sectionReality,
			Reason: "is required and must be non-empty",
		}
	}

	findings := make([]Finding, 0, 8)

	// The reality bucket is context, captured whole as a single fact.
	reality := strings.TrimSpace(notes.CurrentBusinessReality)
	findings = append(findings, newFinding(tenantID, FindingCurrentFact, reality, sectionReality, saltReality, 0))

	findings = append(findings, splitBucket(tenantID, FindingFrictionPoint, notes.PrimaryFrictionPoints, sectionFriction, saltFriction)...)
	findings = append(findings, splitBucket(tenantID, FindingGoal, notes.DesiredFutureState, sectionFuture, saltFuture)...)
	findings = append(findings, splitBucket(tenantID, FindingConstraint, notes.ExplicitClientConstraints, sectionConstraints, saltConstraints)...)

	return FindingsObject{
		TenantID:     tenantID,
		GeneratedAt:  time.Now().UTC(),
		DiscoveryRef: sourceID,
		Findings:     findings,
	}, nil
}

func splitBucket(tenantID string, typ FindingType, text, section, saltPrefix string) []Finding {
	if text == "" {
		return nil
	}
	var out []Finding
	ordinal := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < minFindingLength {
			continue
		}
		out = append(out, newFinding(tenantID, typ, line, section, saltPrefix, ordinal))
		ordinal++
	}
	return out
}

func newFinding(tenantID string, typ FindingType, description, section, saltPrefix string, ordinal int) Finding {
	salt := fmt.Sprintf("%s-%d", saltPrefix, ordinal)
	return Finding{
		ID:             findingID(tenantID, typ, description, salt),
		Type:           typ,
		Description:    description,
		SourceSection:  section,
		SourceTextHash: textHash(description),
	}
}

// findingID content-addresses a finding: FND- plus the first 8 hex characters
// of sha256(tenant:type:description:salt).
func findingID(tenantID string, typ FindingType, description, salt string) string {
	sum := sha256.Sum256([]byte(tenantID + ":" + string(typ) + ":" + description + ":" + salt))
	return "FND-" + hex.EncodeToString(sum[:])[:8]
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
