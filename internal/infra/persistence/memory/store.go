// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"discoverycore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Tenant aliases domain.Tenant for in-memory persistence operations.
	Tenant = domain.Tenant
	// DiscoveryNotes aliases domain.DiscoveryNotes.
	DiscoveryNotes = domain.DiscoveryNotes
	// Ticket aliases domain.Ticket.
	Ticket = domain.Ticket
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	tenants map[string]Tenant
	notes   map[string]DiscoveryNotes // keyed by tenant id: one logical record per tenant
	tickets map[string]Ticket
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Tenants map[string]Tenant         `json:"tenants"`
	Notes   map[string]DiscoveryNotes `json:"notes"`
	Tickets map[string]Ticket         `json:"tickets"`
}

func newMemoryState() memoryState {
	return memoryState{
		tenants: make(map[string]Tenant),
		notes:   make(map[string]DiscoveryNotes),
		tickets: make(map[string]Ticket),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Tenants: make(map[string]Tenant, len(state.tenants)),
		Notes:   make(map[string]DiscoveryNotes, len(state.notes)),
		Tickets: make(map[string]Ticket, len(state.tickets)),
	}
	for k, v := range state.tenants {
		s.Tenants[k] = cloneTenant(v)
	}
	for k, v := range state.notes {
		s.Notes[k] = cloneNotes(v)
	}
	for k, v := range state.tickets {
		s.Tickets[k] = cloneTicket(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Tenants {
		state.tenants[k] = cloneTenant(v)
	}
	for k, v := range s.Notes {
		state.notes[k] = cloneNotes(v)
	}
	for k, v := range s.Tickets {
		state.tickets[k] = cloneTicket(v)
	}
	return state
}

// migrateSnapshot normalizes snapshots loaded from durable backends: nil
// buckets become empty maps, orphaned tenant-scoped rows are dropped, and
// legacy tenants without an intake window state default to OPEN.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Tenants == nil {
		snapshot.Tenants = map[string]Tenant{}
	}
	if snapshot.Notes == nil {
		snapshot.Notes = map[string]DiscoveryNotes{}
	}
	if snapshot.Tickets == nil {
		snapshot.Tickets = map[string]Ticket{}
	}

	tenantExists := func(id string) bool {
		_, ok := snapshot.Tenants[id]
		return ok
	}

	for id, tenant := range snapshot.Tenants {
		if tenant.IntakeWindow == "" {
			tenant.IntakeWindow = domain.IntakeWindowOpen
		}
		snapshot.Tenants[id] = tenant
	}

	for tenantID, notes := range snapshot.Notes {
		if notes.TenantID == "" || !tenantExists(notes.TenantID) || notes.TenantID != tenantID {
			delete(snapshot.Notes, tenantID)
		}
	}

	for id, ticket := range snapshot.Tickets {
		if ticket.TenantID == "" || !tenantExists(ticket.TenantID) {
			delete(snapshot.Tickets, id)
			continue
		}
		if ticket.Status == "" {
			ticket.Status = domain.TicketStatusGenerated
		}
		snapshot.Tickets[id] = ticket
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.tenants {
		cloned.tenants[k] = cloneTenant(v)
	}
	for k, v := range s.notes {
		cloned.notes[k] = cloneNotes(v)
	}
	for k, v := range s.tickets {
		cloned.tickets[k] = cloneTicket(v)
	}
	return cloned
}

func cloneTenant(t Tenant) Tenant {
	cp := t
	if t.Brief != nil {
		brief := *t.Brief
		cp.Brief = &brief
	}
	return cp
}

func cloneNotes(n DiscoveryNotes) DiscoveryNotes { return n }

func cloneTicket(t Ticket) Ticket {
	cp := t
	cp.Provenance = append([]string(nil), t.Provenance...)
	if len(t.AdminNotes) != 0 {
		cp.AdminNotes = append([]string(nil), t.AdminNotes...)
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider. Intended for tests that need
// deterministic timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListTenants returns all tenants within the transaction snapshot.
func (v transactionView) ListTenants() []Tenant {
	out := make([]Tenant, 0, len(v.state.tenants))
	for _, t := range v.state.tenants {
		out = append(out, cloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindTenant retrieves a tenant by ID from the snapshot.
func (v transactionView) FindTenant(id string) (Tenant, bool) {
	t, ok := v.state.tenants[id]
	if !ok {
		return Tenant{}, false
	}
	return cloneTenant(t), true
}

// ListDiscoveryNotes returns all notes records in the snapshot.
func (v transactionView) ListDiscoveryNotes() []DiscoveryNotes {
	out := make([]DiscoveryNotes, 0, len(v.state.notes))
	for _, n := range v.state.notes {
		out = append(out, cloneNotes(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

// FindDiscoveryNotes retrieves the notes record for a tenant.
func (v transactionView) FindDiscoveryNotes(tenantID string) (DiscoveryNotes, bool) {
	n, ok := v.state.notes[tenantID]
	if !ok {
		return DiscoveryNotes{}, false
	}
	return cloneNotes(n), true
}

// ListTickets returns all tickets in the snapshot.
func (v transactionView) ListTickets() []Ticket {
	out := make([]Ticket, 0, len(v.state.tickets))
	for _, t := range v.state.tickets {
		out = append(out, cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out
}

// FindTicket retrieves a ticket by ID from the snapshot.
func (v transactionView) FindTicket(id string) (Ticket, bool) {
	t, ok := v.state.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return cloneTicket(t), true
}

// TicketsByTenant returns the tickets scoped to one tenant, ordered by ticket id.
func (v transactionView) TicketsByTenant(tenantID string) []Ticket {
	return ticketsByTenant(v.state, tenantID)
}

func ticketsByTenant(state *memoryState, tenantID string) []Ticket {
	var out []Ticket
	for _, t := range state.tickets {
		if t.TenantID == tenantID {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules are evaluated against the post-transaction view; blocking
// violations abort the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(entity domain.EntityType, action domain.Action, before, after any) {
	change := Change{Entity: entity, Action: action}
	if before != nil {
		change.Before = mustPayload(entity, before)
	}
	if after != nil {
		change.After = mustPayload(entity, after)
	}
	tx.changes = append(tx.changes, change)
}

func mustPayload(entity domain.EntityType, value any) domain.ChangePayload {
	payload, err := domain.NewChangePayloadFromValue(value)
	if err != nil {
		panic(fmt.Errorf("memory: encode %s change payload: %w", entity, err))
	}
	return payload
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindTenant exposes tenant lookup within the transaction scope.
func (tx *transaction) FindTenant(id string) (Tenant, bool) {
	t, ok := tx.state.tenants[id]
	if !ok {
		return Tenant{}, false
	}
	return cloneTenant(t), true
}

// FindDiscoveryNotes exposes the notes lookup within the transaction scope.
func (tx *transaction) FindDiscoveryNotes(tenantID string) (DiscoveryNotes, bool) {
	n, ok := tx.state.notes[tenantID]
	if !ok {
		return DiscoveryNotes{}, false
	}
	return cloneNotes(n), true
}

// FindTicket exposes ticket lookup within the transaction scope.
func (tx *transaction) FindTicket(id string) (Ticket, bool) {
	t, ok := tx.state.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return cloneTicket(t), true
}

// TicketsByTenant lists a tenant's tickets within the transaction scope.
func (tx *transaction) TicketsByTenant(tenantID string) []Ticket {
	return ticketsByTenant(&tx.state, tenantID)
}

// CreateTenant stores a new tenant within the transaction.
func (tx *transaction) CreateTenant(t Tenant) (Tenant, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tenants[t.ID]; exists {
		return Tenant{}, fmt.Errorf("tenant %q already exists", t.ID)
	}
	if t.IntakeWindow == "" {
		t.IntakeWindow = domain.IntakeWindowOpen
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tenants[t.ID] = cloneTenant(t)
	tx.recordChange(domain.EntityTenant, domain.ActionCreate, nil, cloneTenant(t))
	return cloneTenant(t), nil
}

// UpdateTenant mutates a tenant using the provided mutator function.
func (tx *transaction) UpdateTenant(id string, mutator func(*Tenant) error) (Tenant, error) {
	current, ok := tx.state.tenants[id]
	if !ok {
		return Tenant{}, domain.NotFoundError{Entity: domain.EntityTenant, ID: id}
	}
	before := cloneTenant(current)
	if err := mutator(&current); err != nil {
		return Tenant{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.tenants[id] = cloneTenant(current)
	tx.recordChange(domain.EntityTenant, domain.ActionUpdate, before, cloneTenant(current))
	return cloneTenant(current), nil
}

// PutDiscoveryNotes upserts the single notes record for a tenant. The record
// is replaced in full; the original creation timestamp survives a re-save.
func (tx *transaction) PutDiscoveryNotes(n DiscoveryNotes) (DiscoveryNotes, error) {
	if n.TenantID == "" {
		return DiscoveryNotes{}, fmt.Errorf("discovery notes require tenant id")
	}
	if _, ok := tx.state.tenants[n.TenantID]; !ok {
		return DiscoveryNotes{}, domain.NotFoundError{Entity: domain.EntityTenant, ID: n.TenantID}
	}
	previous, existed := tx.state.notes[n.TenantID]
	if existed {
		n.ID = previous.ID
		n.CreatedAt = previous.CreatedAt
	} else {
		if n.ID == "" {
			n.ID = tx.store.newID()
		}
		n.CreatedAt = tx.now
	}
	n.UpdatedAt = tx.now
	tx.state.notes[n.TenantID] = cloneNotes(n)
	if existed {
		tx.recordChange(domain.EntityDiscoveryNotes, domain.ActionUpdate, cloneNotes(previous), cloneNotes(n))
	} else {
		tx.recordChange(domain.EntityDiscoveryNotes, domain.ActionCreate, nil, cloneNotes(n))
	}
	return cloneNotes(n), nil
}

// CreateTicket stores a new ticket within the transaction. Tickets without
// traceable finding provenance are rejected at this boundary regardless of
// what the compiler produced.
func (tx *transaction) CreateTicket(t Ticket) (Ticket, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tickets[t.ID]; exists {
		return Ticket{}, fmt.Errorf("ticket %q already exists", t.ID)
	}
	if t.TenantID == "" {
		return Ticket{}, fmt.Errorf("ticket requires tenant id")
	}
	if _, ok := tx.state.tenants[t.TenantID]; !ok {
		return Ticket{}, domain.NotFoundError{Entity: domain.EntityTenant, ID: t.TenantID}
	}
	if len(t.Provenance) == 0 {
		return Ticket{}, domain.ProvenanceMissingError{TicketID: t.TicketID}
	}
	if t.Status == "" {
		t.Status = domain.TicketStatusGenerated
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tickets[t.ID] = cloneTicket(t)
	tx.recordChange(domain.EntityTicket, domain.ActionCreate, nil, cloneTicket(t))
	return cloneTicket(t), nil
}

// UpdateTicket mutates a ticket using the provided mutator function.
func (tx *transaction) UpdateTicket(id string, mutator func(*Ticket) error) (Ticket, error) {
	current, ok := tx.state.tickets[id]
	if !ok {
		return Ticket{}, domain.NotFoundError{Entity: domain.EntityTicket, ID: id}
	}
	before := cloneTicket(current)
	if err := mutator(&current); err != nil {
		return Ticket{}, err
	}
	if len(current.Provenance) == 0 {
		return Ticket{}, domain.ProvenanceMissingError{TicketID: current.TicketID}
	}
	current.ID = id
	current.TenantID = before.TenantID
	current.UpdatedAt = tx.now
	tx.state.tickets[id] = cloneTicket(current)
	tx.recordChange(domain.EntityTicket, domain.ActionUpdate, before, cloneTicket(current))
	return cloneTicket(current), nil
}

// GetTenant returns a tenant by id from committed state.
func (s *Store) GetTenant(id string) (Tenant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tenants[id]
	if !ok {
		return Tenant{}, false
	}
	return cloneTenant(t), true
}

// ListTenants returns all tenants from committed state.
func (s *Store) ListTenants() []Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tenant, 0, len(s.state.tenants))
	for _, t := range s.state.tenants {
		out = append(out, cloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetDiscoveryNotes returns the notes record for a tenant from committed state.
func (s *Store) GetDiscoveryNotes(tenantID string) (DiscoveryNotes, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.notes[tenantID]
	if !ok {
		return DiscoveryNotes{}, false
	}
	return cloneNotes(n), true
}

// GetTicket returns a ticket by id from committed state.
func (s *Store) GetTicket(id string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return cloneTicket(t), true
}

// ListTickets returns all tickets from committed state.
func (s *Store) ListTickets() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ticket, 0, len(s.state.tickets))
	for _, t := range s.state.tickets {
		out = append(out, cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out
}

// TicketsByTenant returns the tickets scoped to one tenant from committed state.
func (s *Store) TicketsByTenant(tenantID string) []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ticketsByTenant(&s.state, tenantID)
}
