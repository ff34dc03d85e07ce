package server

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Provision and manage servers",
		Long: `Provision cloud servers and manage the local inventory.

Provisioned servers are registered in the inventory automatically;
existing machines can be added by hand with "server add".`,
	}

	cmd.AddCommand(ProvisionCommand())
	cmd.AddCommand(AddCommand())
	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(InspectCommand())
	cmd.AddCommand(FirewallCommand())
	cmd.AddCommand(RunsCommand())

	return cmd
}
