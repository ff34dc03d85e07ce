package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show details for one server",
		Long: `Show inventory details, cached facts and deployed sites for a server.

Examples:
  deployer server show web-1
  deployer server show web-1 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := loadTarget(store, args[0])
	if err != nil {
		return err
	}
	sites, err := store.SitesForServer(target.Name)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*domain.ServerTarget
			Sites []domain.SiteContext `json:"sites,omitempty"`
		}{target, sites})
	}

	printTargetDetail(cmd, target, sites)
	return nil
}

// printTargetDetail prints a vertical key-value table of the server.
func printTargetDetail(cmd *cobra.Command, target *domain.ServerTarget, sites []domain.SiteContext) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  Name:\t%s\n", target.Name)
	fmt.Fprintf(w, "  Host:\t%s\n", target.Addr())
	fmt.Fprintf(w, "  User:\t%s\n", target.Username)

	if target.PrivateKeyPath != "" {
		fmt.Fprintf(w, "  Key:\t%s\n", target.PrivateKeyPath)
	}
	if target.Provider != "" {
		fmt.Fprintf(w, "  Provider:\t%s\n", target.Provider)
		fmt.Fprintf(w, "  Resource ID:\t%s\n", target.ProviderResourceID)
	}

	if target.Facts != nil {
		fmt.Fprintf(w, "  OS:\t%s\n", target.Facts.Distribution)
		fmt.Fprintf(w, "  Access:\t%s\n", target.Facts.PermissionLevel)
		if len(target.Facts.Services) > 0 {
			ports := make([]string, 0, len(target.Facts.Services))
			for port := range target.Facts.Services {
				ports = append(ports, port)
			}
			sort.Strings(ports)
			for _, port := range ports {
				fmt.Fprintf(w, "  Port %s:\t%s\n", port, target.Facts.Services[port])
			}
		}
	} else {
		fmt.Fprintf(w, "  Facts:\t(not inspected yet)\n")
	}

	for _, site := range sites {
		fmt.Fprintf(w, "  Site:\t%s (PHP %s)\n", site.Domain, site.PHPVersion)
	}

	w.Flush()
}
