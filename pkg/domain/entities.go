// Package domain defines the core persistent entities, value types, typed
// errors, and rule evaluation primitives used by discoverycore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTenant identifies a tenant account record.
	EntityTenant EntityType = "tenant"
	// EntityDiscoveryNotes identifies a tenant's discovery notes record.
	EntityDiscoveryNotes EntityType = "discovery_notes"
	// EntityTicket identifies a compiled work ticket record.
	EntityTicket EntityType = "ticket"
)

// IntakeWindowState enumerates the two states of a tenant's intake window.
type IntakeWindowState string

// Intake window states. Submissions are blocked while CLOSED; roadmap
// generation is blocked while OPEN.
const (
	IntakeWindowOpen   IntakeWindowState = "OPEN"
	IntakeWindowClosed IntakeWindowState = "CLOSED"
)

// BriefStatus enumerates executive brief resolution states.
type BriefStatus string

// Canonical brief statuses. ACKNOWLEDGED and WAIVED count as resolved for
// the roadmap gate.
const (
	BriefStatusDraft        BriefStatus = "DRAFT"
	BriefStatusReadyForExec BriefStatus = "READY_FOR_EXEC_REVIEW"
	BriefStatusAcknowledged BriefStatus = "ACKNOWLEDGED"
	BriefStatusWaived       BriefStatus = "WAIVED"
)

// Resolved reports whether the brief status satisfies the roadmap gate.
func (s BriefStatus) Resolved() bool {
	return s == BriefStatusAcknowledged || s == BriefStatusWaived
}

// FindingType classifies an atomic unit of extracted meaning.
type FindingType string

// Finding types emitted by the extractor, one per source bucket kind.
const (
	FindingCurrentFact   FindingType = "CurrentFact"
	FindingFrictionPoint FindingType = "FrictionPoint"
	FindingGoal          FindingType = "Goal"
	FindingConstraint    FindingType = "Constraint"
)

// TicketType classifies a compiled work ticket.
type TicketType string

// Ticket types produced by the fixed compiler mapping. Optimization is
// reserved for downstream estimation passes and never emitted by the compiler.
const (
	TicketDiagnostic      TicketType = "Diagnostic"
	TicketCapabilityBuild TicketType = "CapabilityBuild"
	TicketConstraintCheck TicketType = "ConstraintCheck"
	TicketOptimization    TicketType = "Optimization"
)

// TicketStatus enumerates the moderation state machine states.
type TicketStatus string

// Moderation states: generated → proposed → approved|rejected; archived is
// reachable from any non-archived state via the invalidation cascade and is
// terminal.
const (
	TicketStatusGenerated TicketStatus = "generated"
	TicketStatusProposed  TicketStatus = "proposed"
	TicketStatusApproved  TicketStatus = "approved"
	TicketStatusRejected  TicketStatus = "rejected"
	TicketStatusArchived  TicketStatus = "archived"
)

// ActorRole distinguishes executive callers from read-only observers.
type ActorRole string

// Caller roles supplied by the authorization layer. The core never
// authenticates callers itself.
const (
	RoleExecutive ActorRole = "executive"
	RoleObserver  ActorRole = "observer"
)

// GateName identifies one of the two independent roadmap gates.
type GateName string

// Roadmap gates. Both must hold before generation is permitted.
const (
	GateIntakeWindow   GateName = "intake_window"
	GateExecutiveBrief GateName = "executive_brief"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExecutiveBrief tracks the executive brief resolution for a tenant. A tenant
// with no brief at all is treated as unresolved.
type ExecutiveBrief struct {
	Status    BriefStatus `json:"status"`
	UpdatedBy string      `json:"updated_by"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Tenant is an isolated customer account. All core data is partitioned by
// tenant id, and the two roadmap gates live on the tenant record. Gate fields
// are mutated only by explicit executive actions, never by the compiler.
type Tenant struct {
	Base
	Name         string            `json:"name"`
	IntakeWindow IntakeWindowState `json:"intake_window"`
	Brief        *ExecutiveBrief   `json:"brief,omitempty"`
}

// DiscoveryNotes is the raw structured input describing a business. One
// logical record per tenant with full-replace upsert semantics; re-saving is
// the trigger event for the invalidation cascade. CurrentBusinessReality is
// the only mandatory bucket.
type DiscoveryNotes struct {
	Base
	TenantID                   string `json:"tenant_id"`
	SessionMetadata            string `json:"session_metadata"`
	CurrentBusinessReality     string `json:"current_business_reality"`
	PrimaryFrictionPoints      string `json:"primary_friction_points"`
	DesiredFutureState         string `json:"desired_future_state"`
	TechOperationalEnvironment string `json:"tech_operational_environment"`
	ExplicitClientConstraints  string `json:"explicit_client_constraints"`
}

// Finding is an atomic, immutable, content-addressed unit of meaning
// extracted from discovery notes. Findings are never persisted standalone.
type Finding struct {
	ID             string      `json:"id"`
	Type           FindingType `json:"type"`
	Description    string      `json:"description"`
	SourceSection  string      `json:"source_section"`
	SourceTextHash string      `json:"source_text_hash"`
}

// FindingsObject groups the findings of one extraction run. It is an
// intermediate value handed directly to the ticket compiler, produced fresh
// on every run.
type FindingsObject struct {
	TenantID     string    `json:"tenant_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	DiscoveryRef string    `json:"discovery_ref"`
	Findings     []Finding `json:"findings"`
}

// Ticket is a persisted, tenant-scoped unit of actionable work derived 1:1
// from a finding. Economics fields are assigned by a separate estimation
// pass; this core preserves them verbatim and never computes them.
type Ticket struct {
	Base
	TenantID    string       `json:"tenant_id"`
	TicketID    string       `json:"ticket_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        TicketType   `json:"type"`
	Provenance  []string     `json:"provenance"`
	Status      TicketStatus `json:"status"`
	Approved    bool         `json:"approved"`
	Tier        string       `json:"tier"`
	Sprint      int          `json:"sprint"`

	TimeEstimateHours       float64  `json:"time_estimate_hours"`
	CostEstimate            float64  `json:"cost_estimate"`
	ProjectedHoursRecovered float64  `json:"projected_hours_recovered"`
	ProjectedLeadsRecovered float64  `json:"projected_leads_recovered"`
	SuccessMetric           string   `json:"success_metric,omitempty"`
	AdminNotes              []string `json:"admin_notes,omitempty"`
}

// TicketView is the audience-projected shape of a ticket returned to
// callers. Sensitive fields are omitted for observer-role callers; Redacted
// marks a view whose sensitive fields were stripped.
type TicketView struct {
	Base
	TenantID    string       `json:"tenant_id"`
	TicketID    string       `json:"ticket_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        TicketType   `json:"type"`
	Provenance  []string     `json:"provenance"`
	Status      TicketStatus `json:"status"`
	Approved    bool         `json:"approved"`
	Tier        string       `json:"tier"`
	Sprint      int          `json:"sprint"`

	TimeEstimateHours       float64 `json:"time_estimate_hours"`
	ProjectedHoursRecovered float64 `json:"projected_hours_recovered"`
	ProjectedLeadsRecovered float64 `json:"projected_leads_recovered"`

	CostEstimate  *float64 `json:"cost_estimate,omitempty"`
	SuccessMetric *string  `json:"success_metric,omitempty"`
	AdminNotes    []string `json:"admin_notes,omitempty"`
	Redacted      bool     `json:"redacted"`
}

// GateDecision reports the outcome of the roadmap gating predicate. BlockedBy
// names each gate that is independently failing, so callers can direct the
// user to resolve it.
type GateDecision struct {
	Allowed   bool       `json:"allowed"`
	BlockedBy []GateName `json:"blocked_by,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
// Before and After carry JSON snapshots so rules can inspect state
// transitions without sharing mutable references.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
