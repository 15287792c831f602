package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"discoverycore/pkg/domain"
)

var ingestFlags struct {
	tenantID string
	actorID  string
	file     string
}

// notesPayload is the YAML shape accepted by the ingest command.
type notesPayload struct {
	SessionMetadata            string `yaml:"session_metadata"`
	CurrentBusinessReality     string `yaml:"current_business_reality"`
	PrimaryFrictionPoints      string `yaml:"primary_friction_points"`
	DesiredFutureState         string `yaml:"desired_future_state"`
	TechOperationalEnvironment string `yaml:"tech_operational_environment"`
	ExplicitClientConstraints  string `yaml:"explicit_client_constraints"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit discovery notes for a tenant",
	Long: "Submit a YAML discovery notes payload. Saving notes archives every\n" +
		"live ticket for the tenant in the same transaction.",
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.tenantID, "tenant", "", "Tenant ID (required)")
	f.StringVar(&ingestFlags.actorID, "actor", "", "Acting user ID (required)")
	f.StringVar(&ingestFlags.file, "file", "", "YAML notes file (required)")

	_ = ingestCmd.MarkFlagRequired("tenant")
	_ = ingestCmd.MarkFlagRequired("actor")
	_ = ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(ingestFlags.file)
	if err != nil {
		return fmt.Errorf("read notes file: %w", err)
	}
	var payload notesPayload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse notes file: %w", err)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	saved, archived, _, err := svc.SaveDiscoveryNotes(cmd.Context(), ingestFlags.tenantID, ingestFlags.actorID, domain.DiscoveryNotes{
		SessionMetadata:            payload.SessionMetadata,
		CurrentBusinessReality:     payload.CurrentBusinessReality,
		PrimaryFrictionPoints:      payload.PrimaryFrictionPoints,
		DesiredFutureState:         payload.DesiredFutureState,
		TechOperationalEnvironment: payload.TechOperationalEnvironment,
		ExplicitClientConstraints:  payload.ExplicitClientConstraints,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved notes %s for tenant %s (%d tickets archived)\n", saved.ID, ingestFlags.tenantID, archived)
	return nil
}
