package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"themis-hq/themis/pkg/policy/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the rule catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cataloged rule modules",
	RunE:  runCatalogList,
}

var catalogDepsFlags struct {
	category    string
	subcategory string
	ruleVersion string
}

var catalogDepsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show the resolved, dependency-ordered bundle for a category",
	RunE:  runCatalogDeps,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogDepsCmd)

	catalogDepsCmd.Flags().StringVar(&catalogDepsFlags.category, "category", "", "rule category (required)")
	catalogDepsCmd.Flags().StringVar(&catalogDepsFlags.subcategory, "subcategory", "", "optional subcategory")
	catalogDepsCmd.Flags().StringVar(&catalogDepsFlags.ruleVersion, "rule-version", "", "pin a rule version")
	catalogDepsCmd.MarkFlagRequired("category")
}

func discoverCatalog() (*catalog.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg)

	loader := catalog.NewLoader(cfg.LoaderConfig(), logger)
	cat, report, err := loader.Discover(cfg.Catalog.Root)
	if err != nil {
		return nil, err
	}
	for _, skipped := range report.Skipped {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", skipped)
	}
	return cat, nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := discoverCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tCATEGORY\tVERSION\tSTATE\tTITLE")
	for _, m := range cat.Modules() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.PackageName, m.CategoryPath(), m.Version, m.State, m.Metadata.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d modules, catalog version %s\n", cat.Len(), cat.Version())
	return nil
}

func runCatalogDeps(cmd *cobra.Command, args []string) error {
	cat, err := discoverCatalog()
	if err != nil {
		return err
	}

	bundle, err := cat.ResolveBundle(catalogDepsFlags.category, catalogDepsFlags.subcategory, catalogDepsFlags.ruleVersion)
	if err != nil {
		return err
	}

	for i, m := range bundle.Modules {
		marker := ""
		if m.State == catalog.StatePlaceholder {
			marker = "  (placeholder)"
		}
		fmt.Printf("%2d. %s%s\n", i+1, m.PackageName, marker)
	}
	return nil
}
