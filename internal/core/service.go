package core

import (
	"context"
	"time"

	"discoverycore/internal/infra/persistence/memory"
	"discoverycore/pkg/domain"
)

// Service exposes the transactional pipeline operations: notes intake with
// its invalidation cascade, ticket compilation, moderation, and gating.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	nowFn   func() time.Time
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger injects a structured logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder injects a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer injects a tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder injects an audit recorder.
func WithAuditRecorder(a AuditRecorder) ServiceOption {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service with an in-memory store and the given
// rules engine. A nil engine gets the default policy set.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// SetNowFunc overrides the service clock. Intended for tests.
func (s *Service) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// run wraps an operation with tracing, metrics, and an audit entry. The entry
// is filled in by fn (entity id, metadata) before run finalizes it.
func (s *Service) run(ctx context.Context, operation string, entry *AuditEntry, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)

	status := AuditStatusSuccess
	if err != nil {
		status = AuditStatusError
		if entry.Metadata == nil {
			entry.Metadata = map[string]any{}
		}
		entry.Metadata["error"] = err.Error()
	}
	entry.EventType = operation
	entry.Status = status
	entry.OccurredAt = s.nowFn()
	s.audit.Record(ctx, *entry)
	return err
}

// CreateTenant provisions an isolated tenant account. The intake window
// defaults to OPEN.
func (s *Service) CreateTenant(ctx context.Context, tenant Tenant) (Tenant, Result, error) {
	var created Tenant
	var res Result
	entry := AuditEntry{EntityType: EntityTenant}
	err := s.run(ctx, "create_tenant", &entry, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			created, err = tx.CreateTenant(tenant)
			return err
		})
		entry.TenantID = created.ID
		entry.EntityID = created.ID
		return err
	})
	return created, res, err
}

// CloseIntakeWindow closes a tenant's intake window, blocking further notes
// submission and satisfying the first roadmap gate.
func (s *Service) CloseIntakeWindow(ctx context.Context, tenantID, actorID string) (Tenant, Result, error) {
	return s.setIntakeWindow(ctx, "close_intake_window", tenantID, actorID, IntakeWindowClosed)
}

// OpenIntakeWindow reopens a tenant's intake window.
func (s *Service) OpenIntakeWindow(ctx context.Context, tenantID, actorID string) (Tenant, Result, error) {
	return s.setIntakeWindow(ctx, "open_intake_window", tenantID, actorID, IntakeWindowOpen)
}

func (s *Service) setIntakeWindow(ctx context.Context, operation, tenantID, actorID string, state IntakeWindowState) (Tenant, Result, error) {
	var updated Tenant
	var res Result
	entry := AuditEntry{TenantID: tenantID, ActorID: actorID, EntityType: EntityTenant, EntityID: tenantID,
		Metadata: map[string]any{"intake_window": string(state)}}
	err := s.run(ctx, operation, &entry, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			updated, err = tx.UpdateTenant(tenantID, func(t *Tenant) error {
				t.IntakeWindow = state
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// SetBriefStatus records an executive brief resolution step for a tenant.
func (s *Service) SetBriefStatus(ctx context.Context, tenantID, actorID string, status BriefStatus) (Tenant, Result, error) {
	var updated Tenant
	var res Result
	entry := AuditEntry{TenantID: tenantID, ActorID: actorID, EntityType: EntityTenant, EntityID: tenantID,
		Metadata: map[string]any{"brief_status": string(status)}}
	err := s.run(ctx, "set_brief_status", &entry, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			updated, err = tx.UpdateTenant(tenantID, func(t *Tenant) error {
				t.Brief = &ExecutiveBrief{
					Status:    status,
					UpdatedBy: actorID,
					UpdatedAt: s.nowFn(),
				}
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// GetTenant returns a tenant by id from committed state.
func (s *Service) GetTenant(_ context.Context, id string) (Tenant, error) {
	tenant, ok := s.store.GetTenant(id)
	if !ok {
		return Tenant{}, domain.NotFoundError{Entity: EntityTenant, ID: id}
	}
	return tenant, nil
}

// ListTenants returns all tenants ordered by id.
func (s *Service) ListTenants(context.Context) []Tenant {
	return s.store.ListTenants()
}

// GetDiscoveryNotes returns the current notes record for a tenant.
func (s *Service) GetDiscoveryNotes(_ context.Context, tenantID string) (DiscoveryNotes, error) {
	notes, ok := s.store.GetDiscoveryNotes(tenantID)
	if !ok {
		return DiscoveryNotes{}, domain.NotFoundError{Entity: EntityDiscoveryNotes, ID: tenantID}
	}
	return notes, nil
}
