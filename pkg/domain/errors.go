package domain

import (
	"fmt"
	"strings"
)

// InvalidInputError indicates discovery notes missing the mandatory
// current-business-reality bucket. The caller must re-prompt for input; the
// operation is not retried automatically.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// NoFindingsError indicates a compile run was handed an empty findings set.
// A findings set that maps to zero tickets is NOT an error; only a fully
// empty extraction is.
type NoFindingsError struct {
	TenantID string
}

func (e NoFindingsError) Error() string {
	return fmt.Sprintf("no findings extracted for tenant %s", e.TenantID)
}

// ProvenanceMissingError indicates a would-be ticket with no finding backing
// it. The compiler's own invariants make this unreachable; it is enforced
// again at the persistence boundary as a guard against future mapping
// regressions.
type ProvenanceMissingError struct {
	TicketID string
}

func (e ProvenanceMissingError) Error() string {
	return fmt.Sprintf("ticket %s has no traceable finding provenance", e.TicketID)
}

// UnauthorizedTransitionError indicates a non-executive actor attempted a
// moderation transition reserved for executives. Rejected before any state
// mutation.
type UnauthorizedTransitionError struct {
	ActorID string
	Role    ActorRole
	From    TicketStatus
	To      TicketStatus
}

func (e UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("actor %s (%s) may not transition ticket %s -> %s", e.ActorID, e.Role, e.From, e.To)
}

// InvalidTransitionError indicates a moderation transition outside the state
// machine, regardless of actor role.
type InvalidTransitionError struct {
	TicketID string
	From     TicketStatus
	To       TicketStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("ticket %s cannot transition %s -> %s", e.TicketID, e.From, e.To)
}

// GateBlockedError indicates an operation was attempted while one or both
// tenant gates block it. Gates lists each blocking gate so the caller can
// surface which precondition to resolve.
type GateBlockedError struct {
	TenantID  string
	Operation string
	Gates     []GateName
}

func (e GateBlockedError) Error() string {
	names := make([]string, len(e.Gates))
	for i, g := range e.Gates {
		names[i] = string(g)
	}
	return fmt.Sprintf("%s blocked for tenant %s by gates: %s", e.Operation, e.TenantID, strings.Join(names, ", "))
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
