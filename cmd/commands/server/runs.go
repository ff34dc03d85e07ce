package server

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/runlog"

	"github.com/spf13/cobra"
)

func RunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent playbook runs",
		Long: `List recent playbook runs recorded locally.

Examples:
  deployer server runs
  deployer server runs --server web-1 --limit 50
  deployer server runs -o json`,
		RunE:         runRuns,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of runs to display")
	cmd.Flags().String("server", "", "Filter by server name")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	cmd.AddCommand(PruneCommand())

	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	serverName, _ := cmd.Flags().GetString("server")

	repo, err := runlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.ListRecent(serverName, limit)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSERVER\tPLAYBOOK\tOUTCOME\tDURATION")
	fmt.Fprintln(w, "----\t------\t--------\t-------\t--------")

	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rec.Server,
			rec.Playbook,
			rec.Outcome,
			(time.Duration(rec.DurationMs) * time.Millisecond).String(),
		)
	}

	return w.Flush()
}

func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old run records",
		Long: `Delete run records older than the given age.

Example:
  deployer server runs prune --older-than 720h`,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().Duration("older-than", 30*24*time.Hour, "Delete records older than this duration")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("older-than must be a positive duration")
	}

	repo, err := runlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.DeleteOlderThan(olderThan)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run record(s).\n", removed)
	return nil
}
