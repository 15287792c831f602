package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"discoverycore/internal/adapters/roadmap"
	"discoverycore/internal/blob"
	"discoverycore/internal/core"
)

var roadmapFlags struct {
	tenantID string
	actorID  string
	formats  []string
	reason   string
	timeout  time.Duration
}

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Export the roadmap input set for a tenant",
	Long: "Assemble the tenant's approved tickets into a roadmap input set and\n" +
		"write the artifacts to the configured blob store. Both gates must be\n" +
		"satisfied or the export is refused.",
	RunE: runRoadmap,
}

func init() {
	f := roadmapCmd.Flags()
	f.StringVar(&roadmapFlags.tenantID, "tenant", "", "Tenant ID (required)")
	f.StringVar(&roadmapFlags.actorID, "actor", "", "Acting user ID (required)")
	f.StringSliceVar(&roadmapFlags.formats, "format", nil, "Export formats (json,csv); defaults to both")
	f.StringVar(&roadmapFlags.reason, "reason", "", "Reason recorded with the export")
	f.DurationVar(&roadmapFlags.timeout, "timeout", 30*time.Second, "How long to wait for the export to finish")

	_ = roadmapCmd.MarkFlagRequired("tenant")
	_ = roadmapCmd.MarkFlagRequired("actor")
}

func runRoadmap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, err := newService()
	if err != nil {
		return err
	}
	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	formats := make([]roadmap.Format, 0, len(roadmapFlags.formats))
	for _, raw := range roadmapFlags.formats {
		formats = append(formats, roadmap.Format(raw))
	}

	worker := roadmap.NewWorker(svc, store, core.NewMemoryAuditRecorder())
	worker.Start()
	defer func() { _ = worker.Stop(ctx) }()

	record, err := worker.EnqueueExport(ctx, roadmap.ExportInput{
		TenantID:    roadmapFlags.tenantID,
		Formats:     formats,
		RequestedBy: roadmapFlags.actorID,
		Reason:      roadmapFlags.reason,
	})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(roadmapFlags.timeout)
	for {
		current, ok := worker.GetExport(record.ID)
		if !ok {
			return fmt.Errorf("export %s disappeared", record.ID)
		}
		switch current.Status {
		case roadmap.ExportStatusSucceeded:
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Export %s succeeded (%d tickets)\n", current.ID, current.TicketCount)
			for _, artifact := range current.Artifacts {
				fmt.Fprintf(out, "  %s\t%d bytes\t%s\n", artifact.Format, artifact.SizeBytes, artifact.Key)
			}
			return nil
		case roadmap.ExportStatusFailed:
			return fmt.Errorf("export %s failed: %s", current.ID, current.Error)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("export %s still %s after %s", current.ID, current.Status, roadmapFlags.timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
