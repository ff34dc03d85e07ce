package server

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all servers in the inventory",
		Long: `List all servers in the local inventory.

Examples:
  deployer server list
  deployer server list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	targets, err := store.All()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(targets)
	}

	if len(targets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST\tUSER\tPROVIDER\tOS")
	fmt.Fprintln(w, "----\t----\t----\t--------\t--")

	for _, target := range targets {
		provider := target.Provider
		if provider == "" {
			provider = "-"
		}
		dist := "-"
		if target.Facts != nil && target.Facts.Distribution != "" {
			dist = target.Facts.Distribution
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			target.Name,
			target.Addr(),
			target.Username,
			provider,
			dist,
		)
	}

	return w.Flush()
}
