package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"themis-hq/themis/pkg/findings"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query stored evaluation runs",
}

var runsListFlags struct {
	limit int
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluation runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full report for one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().IntVar(&runsListFlags.limit, "limit", 20, "maximum runs to list")
}

func openFindings() (*findings.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg)
	return findings.NewStore(cfg.FindingsStoreConfig(), logger)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openFindings()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), runsListFlags.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCOMPLETED\tCOMPLIANT\tFINDINGS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\n",
			r.RunID, r.CompletedAt.Format(time.RFC3339), r.AggregateCompliant, r.ResultCount)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openFindings()
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := store.GetRun(cmd.Context(), args[0])
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %q not found", args[0])
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
