// cmd/research-cli/cmd_research.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"business-research/internal/common/validation"
	"business-research/internal/models"
	"business-research/pkg/registry"

	"github.com/spf13/cobra"
)

var location string

var resolveCmd = &cobra.Command{
	Use:   "resolve <business name>",
	Short: "Resolve a business to its canonical identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var researchCmd = &cobra.Command{
	Use:   "research <business name>",
	Short: "Resolve a business and gather details, content and reviews",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

var batchCmd = &cobra.Command{
	Use:   "batch <file|->",
	Short: "Research every business listed in a JSON file",
	Long: `Research every business listed in a JSON file, or stdin when the
argument is "-". The input is either an array of {"name", "location"}
objects or an object with a "businesses" array of them.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	resolveCmd.Flags().StringVarP(&location, "location", "l", "", "City, region or address that narrows the search")
	researchCmd.Flags().StringVarP(&location, "location", "l", "", "City, region or address that narrows the search")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	service, cleanup, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	identity, err := service.ResolveOnly(ctx, args[0], location)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
		"found":    identity != nil,
		"identity": identity,
	})
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	service, cleanup, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := service.ResolveAndAggregate(ctx, args[0], location)
	if err != nil {
		return err
	}
	if record == nil {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"found": false})
	}
	return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
		"found":     true,
		"populated": record.Populated(),
		"record":    record,
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	queries, err := readQueries(in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	service, cleanup, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return writeJSON(cmd.OutOrStdout(), service.ResearchBatch(ctx, queries))
}

// readQueries decodes a batch file and checks it against the research-batch
// input schema.
func readQueries(r io.Reader) ([]models.SearchQuery, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		data = append(append([]byte(`{"businesses":`), data...), '}')
	}

	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	if err := validation.NewJobValidator(reg).Validate("research-batch", data); err != nil {
		return nil, err
	}

	var input struct {
		Businesses []models.SearchQuery `json:"businesses"`
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid batch input: %w", err)
	}
	return input.Businesses, nil
}
