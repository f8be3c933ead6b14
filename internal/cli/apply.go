package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/engine"
	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
	"github.com/madebygps/functions-cosmos-inventory/internal/provider"
	"github.com/madebygps/functions-cosmos-inventory/internal/record"
	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
)

var (
	applyTemplateName    string
	applyParams          map[string]string
	applyParamsFile      string
	applyApplier         string
	applyParallelism     int
	applyContinueOnError bool
	applyShowSecrets     bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [template-file]",
	Short: "Resolve a template and apply it",
	Long: `Resolves the template into its dependency graph and hands the
nodes to the configured applier in dependency order. Independent
resources are applied concurrently. The deployment record is written
to .inventoryctl/record.json when the run completes, including after
a failed run, so applied resources are never lost from the record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyTemplateName, "template", "main", "Built-in template to apply")
	applyCmd.Flags().StringToStringVarP(&applyParams, "param", "p", nil, "Set parameters (format: key=value)")
	applyCmd.Flags().StringVar(&applyParamsFile, "params-file", "", "JSON file with parameter values")
	applyCmd.Flags().StringVar(&applyApplier, "applier", "null", "Applier to dispatch nodes to")
	applyCmd.Flags().IntVar(&applyParallelism, "parallelism", 0, "Maximum concurrent applies (0 for the default)")
	applyCmd.Flags().BoolVar(&applyContinueOnError, "continue-on-error", false, "Keep applying independent nodes after a failure")
	applyCmd.Flags().BoolVar(&applyShowSecrets, "show-secrets", false, "Print secure output values instead of masking them")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	reg, _, err := newRegistry()
	if err != nil {
		return err
	}

	t, err := selectTemplate(ctx, reg, applyTemplateName, args)
	if err != nil {
		return err
	}

	supplied, err := gatherParameters(t, applyParamsFile, applyParams)
	if err != nil {
		return err
	}

	fmt.Print("Resolving template... ")
	r := resolve.New(reg)
	g, err := r.Resolve(t, supplied)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("OK")

	registry := provider.NewRegistry()
	if err := registry.Load(applyApplier); err != nil {
		return err
	}
	applier, err := registry.Get(applyApplier)
	if err != nil {
		return err
	}

	path, err := recordPath()
	if err != nil {
		return err
	}
	recMgr := record.NewManager(path)
	if err := recMgr.Lock(); err != nil {
		return err
	}
	defer recMgr.Unlock()

	rec, err := recMgr.Read()
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	dispatcher := engine.NewDispatcher(applier)
	if applyParallelism > 0 {
		dispatcher.Parallelism = applyParallelism
	}
	dispatcher.ContinueOnError = applyContinueOnError

	fmt.Printf("\nApplying %d resources...\n", len(g.Nodes))
	result, dispatchErr := dispatcher.Dispatch(ctx, g, func(event engine.ApplyEvent) {
		switch event.Status {
		case "completed":
			fmt.Printf("  %s: done (%s)\n", event.Address, event.Duration.Round(time.Millisecond))
		case "failed":
			fmt.Printf("  %s: failed: %v\n", event.Address, event.Error)
		case "skipped":
			fmt.Printf("  %s: skipped\n", event.Address)
		}
	})

	// Write the record even on failure so successfully applied
	// resources aren't lost.
	rec.Template = g.Template
	rec.Resources = recordResources(g, result, dispatchErr != nil)
	rec.Outputs = result.Outputs

	if err := recMgr.Write(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if dispatchErr != nil {
		return fmt.Errorf("apply failed: %w", dispatchErr)
	}

	fmt.Printf("\nApply complete! Resources: %d applied.\n", len(result.Applied))
	if len(result.Outputs) > 0 {
		fmt.Println("\nOutputs:")
		renderOutputs(result.Outputs, applyShowSecrets)
	}
	return nil
}

// recordResources converts graph nodes into record entries. When partial is
// true only nodes the applier completed are recorded, so an aborted run
// still captures what was provisioned.
func recordResources(g *ir.Graph, result *engine.Result, partial bool) []*ir.ResourceRecord {
	records := make([]*ir.ResourceRecord, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		outputs, applied := result.Applied[n.Address]
		if partial && !applied {
			continue
		}
		name, _ := n.Properties["name"].(string)
		records = append(records, &ir.ResourceRecord{
			Address: n.Address,
			Type:    n.Type,
			Name:    name,
			Outputs: outputs,
		})
	}
	return records
}
