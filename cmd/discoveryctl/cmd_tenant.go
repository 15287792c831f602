package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoverycore/pkg/domain"
)

var tenantFlags struct {
	name     string
	tenantID string
}

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenant accounts",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a tenant with an open intake window",
	RunE:  runTenantCreate,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE:  runTenantList,
}

var tenantShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one tenant's gating state",
	RunE:  runTenantShow,
}

func init() {
	tenantCreateCmd.Flags().StringVar(&tenantFlags.name, "name", "", "Tenant display name (required)")
	_ = tenantCreateCmd.MarkFlagRequired("name")

	tenantShowCmd.Flags().StringVar(&tenantFlags.tenantID, "tenant", "", "Tenant ID (required)")
	_ = tenantShowCmd.MarkFlagRequired("tenant")

	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantShowCmd)
}

func runTenantCreate(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	tenant, _, err := svc.CreateTenant(cmd.Context(), domain.Tenant{Name: tenantFlags.name})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created tenant %s (%s)\n", tenant.ID, tenant.Name)
	return nil
}

func runTenantList(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, tenant := range svc.ListTenants(cmd.Context()) {
		fmt.Fprintf(out, "%s  %-30s intake=%s\n", tenant.ID, tenant.Name, tenant.IntakeWindow)
	}
	return nil
}

func runTenantShow(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	tenant, err := svc.GetTenant(cmd.Context(), tenantFlags.tenantID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tenant:  %s\n", tenant.ID)
	fmt.Fprintf(out, "Name:    %s\n", tenant.Name)
	fmt.Fprintf(out, "Intake:  %s\n", tenant.IntakeWindow)
	if tenant.Brief == nil {
		fmt.Fprintf(out, "Brief:   (none)\n")
	} else {
		fmt.Fprintf(out, "Brief:   %s (by %s at %s)\n", tenant.Brief.Status, tenant.Brief.UpdatedBy, tenant.Brief.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
