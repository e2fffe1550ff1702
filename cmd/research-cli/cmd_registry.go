// cmd/research-cli/cmd_registry.go
package main

import (
	"fmt"
	"strings"

	"business-research/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the activity registry",
	Long: `Inspect and maintain the activity registry that declares each job type,
its input schema and its timeout.

Without --path the registry built into this binary is used.`,
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry for structural problems",
	Args:  cobra.NoArgs,
	RunE:  runRegistryValidate,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	Args:  cobra.NoArgs,
	RunE:  runRegistryList,
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <id> <field> <value>",
	Short: "Update one field of an activity in a registry file",
	Long: `Update one field of an activity in a registry file.

Supported fields: status, version, displayName, description, timeout, retries.`,
	Example: `  research-cli registry update research-business status verified --path pkg/registry/activities.json`,
	Args:    cobra.ExactArgs(3),
	RunE:    runRegistryUpdate,
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "Path to a registry file")
}

func loadRegistry() (*registry.ActivityRegistry, error) {
	if registryPath == "" {
		return registry.Default()
	}
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func runRegistryValidate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if problems := reg.Problems(); len(problems) > 0 {
		return fmt.Errorf("registry validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, a := range reg.Activities {
		fmt.Fprintf(out, "%-20s %-10s timeout=%-6s retries=%d  %s\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries, a.Description)
	}
	return nil
}

func runRegistryUpdate(cmd *cobra.Command, args []string) error {
	if registryPath == "" {
		return fmt.Errorf("--path is required for update")
	}
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id, field, value := args[0], args[1], args[2]
	if err := reg.Update(id, field, value); err != nil {
		return err
	}
	if err := reg.Save(registryPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
	return nil
}
