package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateTenant(Tenant) (Tenant, error)
	UpdateTenant(id string, mutator func(*Tenant) error) (Tenant, error)
	// PutDiscoveryNotes upserts the single notes record for a tenant,
	// replacing any previous version in full.
	PutDiscoveryNotes(DiscoveryNotes) (DiscoveryNotes, error)
	CreateTicket(Ticket) (Ticket, error)
	UpdateTicket(id string, mutator func(*Ticket) error) (Ticket, error)
	FindTenant(id string) (Tenant, bool)
	FindDiscoveryNotes(tenantID string) (DiscoveryNotes, bool)
	FindTicket(id string) (Ticket, bool)
	TicketsByTenant(tenantID string) []Ticket
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListTenants() []Tenant
	FindTenant(id string) (Tenant, bool)
	ListDiscoveryNotes() []DiscoveryNotes
	FindDiscoveryNotes(tenantID string) (DiscoveryNotes, bool)
	ListTickets() []Ticket
	FindTicket(id string) (Ticket, bool)
	TicketsByTenant(tenantID string) []Ticket
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers. Every
// tenant-scoped read carries an explicit tenant id predicate; no cross-tenant
// access is expressible through this interface.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetTenant(id string) (Tenant, bool)
	ListTenants() []Tenant
	GetDiscoveryNotes(tenantID string) (DiscoveryNotes, bool)
	GetTicket(id string) (Ticket, bool)
	ListTickets() []Ticket
	TicketsByTenant(tenantID string) []Ticket
}
