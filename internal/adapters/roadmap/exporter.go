// Package roadmap assembles roadmap input sets from approved tickets and
// publishes them as blob artifacts. Assembly runs asynchronously behind a
// queue; the gates are re-evaluated when a request is processed, not just
// when it is enqueued.
package roadmap

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"discoverycore/internal/blob"
	"discoverycore/internal/core"
	"discoverycore/pkg/domain"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// Format names a rendered artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Artifact records one stored export output.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportRecord tracks an export request and its resulting artifacts.
type ExportRecord struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	Formats     []Format     `json:"formats"`
	Status      ExportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	Artifacts   []Artifact   `json:"artifacts,omitempty"`
	TicketCount int          `json:"ticket_count"`
	RequestedBy string       `json:"requested_by"`
	Reason      string       `json:"reason,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ExportInput is an enqueue request.
type ExportInput struct {
	TenantID    string
	Formats     []Format
	RequestedBy string
	Reason      string
}

// InputSet is the assembled roadmap payload: the tenant's approved tickets
// and nothing else.
type InputSet struct {
	TenantID    string          `json:"tenant_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Tickets     []domain.Ticket `json:"tickets"`
}

// assembly is the shared result of one collapsed per-tenant run.
type assembly struct {
	artifacts []Artifact
	tickets   int
}

// exportWorkers is the number of concurrent queue consumers.
const exportWorkers = 4

// Worker executes roadmap exports asynchronously across a small pool of
// consumers. Concurrent requests for the same tenant and format set collapse
// into one assembly via singleflight; every caller still gets its own export
// record.
type Worker struct {
	service *core.Service
	store   blob.Store
	audit   core.AuditRecorder

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord
	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

// NewWorker constructs an export worker. A nil audit recorder disables audit
// output.
func NewWorker(service *core.Service, store blob.Store, audit core.AuditRecorder) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		service: service,
		store:   store,
		audit:   audit,
		queue:   make(chan exportTask, 32),
		jobs:    make(map[string]*ExportRecord),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the consumer pool.
func (w *Worker) Start() {
	for i := 0; i < exportWorkers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
}

// Stop signals the worker to halt and waits for in-flight work.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport evaluates the gates and schedules an export. A blocked gate
// rejects the request immediately with GateBlockedError; the gates are
// evaluated again when the task actually runs.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if input.TenantID == "" {
		return ExportRecord{}, fmt.Errorf("tenant id required")
	}
	decision, err := w.service.CanGenerateRoadmap(ctx, input.TenantID)
	if err != nil {
		return ExportRecord{}, err
	}
	if !decision.Allowed {
		return ExportRecord{}, domain.GateBlockedError{
			TenantID:  input.TenantID,
			Operation: "roadmap export",
			Gates:     decision.BlockedBy,
		}
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if format != FormatJSON && format != FormatCSV {
			return ExportRecord{}, fmt.Errorf("unsupported export format %s", format)
		}
		if _, dup := seen[format]; dup {
			continue
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	now := time.Now().UTC()
	record := ExportRecord{
		ID:          newID(),
		TenantID:    input.TenantID,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, record.ID, ExportStatusQueued, nil)

	select {
	case w.queue <- exportTask{id: record.ID, input: input}:
	default:
		w.fail(record.ID, "export queue full")
		return ExportRecord{}, fmt.Errorf("export queue full")
	}
	return snapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	record, ok := w.GetExport(task.id)
	if !ok {
		return
	}
	w.updateStatus(task.id, ExportStatusRunning, "")

	// One assembly per tenant and format set at a time; concurrent tasks
	// share the result.
	result, err, _ := w.group.Do(flightKey(record.TenantID, record.Formats), func() (any, error) {
		return w.assemble(record.TenantID, record.Formats)
	})
	if err != nil {
		w.fail(task.id, err.Error())
		return
	}
	w.complete(task.id, result.(assembly))
}

// flightKey scopes the collapse to one tenant and one format set, so a
// collapsed request never inherits another request's formats.
func flightKey(tenantID string, formats []Format) string {
	parts := make([]string, len(formats))
	for i, format := range formats {
		parts[i] = string(format)
	}
	return tenantID + "|" + strings.Join(parts, ",")
}

// assemble re-checks the gates, selects the approved tickets, and renders
// and stores one artifact per requested format.
func (w *Worker) assemble(tenantID string, formats []Format) (assembly, error) {
	decision, err := w.service.CanGenerateRoadmap(w.ctx, tenantID)
	if err != nil {
		return assembly{}, err
	}
	if !decision.Allowed {
		return assembly{}, domain.GateBlockedError{
			TenantID:  tenantID,
			Operation: "roadmap export",
			Gates:     decision.BlockedBy,
		}
	}

	set := InputSet{
		TenantID:    tenantID,
		GeneratedAt: time.Now().UTC(),
		Tickets:     w.service.ApprovedTickets(w.ctx, tenantID),
	}

	runID := newID()
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		payload, contentType, err := render(format, set)
		if err != nil {
			return assembly{}, err
		}
		key := fmt.Sprintf("roadmaps/%s/%s/roadmap.%s", tenantID, runID, format)
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"tenant_id": tenantID, "tickets": strconv.Itoa(len(set.Tickets))},
		})
		if err != nil {
			return assembly{}, fmt.Errorf("store artifact: %w", err)
		}
		artifacts = append(artifacts, Artifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			URL:         info.URL,
			CreatedAt:   info.LastModified,
		})
	}
	return assembly{artifacts: artifacts, tickets: len(set.Tickets)}, nil
}

func render(format Format, set InputSet) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal input set: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		header := []string{"ticket_id", "title", "type", "tier", "sprint", "time_estimate_hours", "cost_estimate", "provenance"}
		if err := writer.Write(header); err != nil {
			return nil, "", err
		}
		for _, ticket := range set.Tickets {
			row := []string{
				ticket.TicketID,
				ticket.Title,
				string(ticket.Type),
				ticket.Tier,
				strconv.Itoa(ticket.Sprint),
				strconv.FormatFloat(ticket.TimeEstimateHours, 'f', -1, 64),
				strconv.FormatFloat(ticket.CostEstimate, 'f', -1, 64),
				strings.Join(ticket.Provenance, ";"),
			}
			if err := writer.Write(row); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, nil)
}

func (w *Worker) complete(id string, result assembly) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = append([]Artifact(nil), result.artifacts...)
		record.TicketCount = result.tickets
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusSucceeded, map[string]any{
		"artifacts": len(result.artifacts),
		"tickets":   result.tickets,
	})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusFailed, map[string]any{"error": reason})
}

func (w *Worker) recordAudit(ctx context.Context, id string, status ExportStatus, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	record, ok := w.jobs[id]
	var tenantID, actorID string
	if ok {
		tenantID = record.TenantID
		actorID = record.RequestedBy
	}
	w.mu.RUnlock()
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["export_id"] = id
	metadata["status"] = string(status)
	entry := core.AuditEntry{
		TenantID:   tenantID,
		ActorID:    actorID,
		EventType:  "roadmap_export",
		Status:     core.AuditStatusSuccess,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if status == ExportStatusFailed {
		entry.Status = core.AuditStatusError
	}
	w.audit.Record(ctx, entry)
}

func (r *ExportRecord) copy() ExportRecord {
	dup := *r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		dup.CompletedAt = &completed
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
