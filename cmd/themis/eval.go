package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"themis-hq/themis/pkg/extraction"
	"themis-hq/themis/pkg/findings"
	"themis-hq/themis/pkg/policy/catalog"
	"themis-hq/themis/pkg/policy/engine"
	"themis-hq/themis/pkg/policy/pipeline"
)

var evalFlags struct {
	category    string
	subcategory string
	ruleVersion string
	inputFile   string
	outputFile  string
	strict      bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate an interaction record against a rule category",
	Long: `Evaluate an interaction record against the rule modules of a catalog
category. The category request is resolved to a dependency-closed
bundle (highest version per subcategory unless pinned), evaluated
through the decision engine, and the resulting report is written as
JSON.

Examples:
  # Evaluate against the latest global rules
  themis eval --category global --input interaction.json

  # Pin a subcategory and version
  themis eval --category international --subcategory eu_ai_act --rule-version v1 --input interaction.json

  # Fail the command when the aggregate verdict is non-compliant
  themis eval --category global --input interaction.json --strict`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalFlags.category, "category", "", "rule category to evaluate (required)")
	evalCmd.Flags().StringVar(&evalFlags.subcategory, "subcategory", "", "optional subcategory")
	evalCmd.Flags().StringVar(&evalFlags.ruleVersion, "rule-version", "", "pin a rule version (default: highest per subcategory)")
	evalCmd.Flags().StringVarP(&evalFlags.inputFile, "input", "i", "", "interaction record JSON file (required)")
	evalCmd.Flags().StringVarP(&evalFlags.outputFile, "output", "o", "", "write the report to a file instead of stdout")
	evalCmd.Flags().BoolVar(&evalFlags.strict, "strict", false, "exit non-zero when the aggregate verdict is non-compliant")
	evalCmd.MarkFlagRequired("category")
	evalCmd.MarkFlagRequired("input")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	data, err := os.ReadFile(evalFlags.inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	var evalCtx map[string]any
	if err := json.Unmarshal(data, &evalCtx); err != nil {
		return fmt.Errorf("input file is not a JSON object: %w", err)
	}

	loader := catalog.NewLoader(cfg.LoaderConfig(), logger)
	cat, report, err := loader.Discover(cfg.Catalog.Root)
	if err != nil {
		return err
	}
	if len(report.Skipped) > 0 {
		logger.Warn("some rule files were skipped during discovery", "skipped", len(report.Skipped))
	}

	bundle, err := cat.ResolveBundle(evalFlags.category, evalFlags.subcategory, evalFlags.ruleVersion)
	if err != nil {
		return err
	}
	logger.Info("bundle resolved",
		"category", evalFlags.category,
		"modules", len(bundle.Modules),
		"placeholders", len(bundle.Placeholders()),
	)

	registry := extraction.NewDefaultRegistry(logger)
	eng := engine.NewOPAEngine(cfg.EngineAdapterConfig(), logger)
	orch := pipeline.NewOrchestrator(eng, registry, cfg.OrchestratorConfig(), logger)

	if cfg.Findings.Enabled {
		store, err := findings.NewStore(cfg.FindingsStoreConfig(), logger)
		if err != nil {
			return err
		}
		defer store.Close()
		orch.AddSink(store)
	}

	result, err := orch.EvaluateBundle(cmd.Context(), bundle, evalCtx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if evalFlags.outputFile != "" {
		if err := os.WriteFile(evalFlags.outputFile, append(out, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		fmt.Println(string(out))
	}

	if evalFlags.strict && !result.AggregateCompliant {
		return fmt.Errorf("aggregate verdict is non-compliant")
	}
	return nil
}
