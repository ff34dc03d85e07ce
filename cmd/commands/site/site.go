package site

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Deploy and manage sites on servers",
	}

	cmd.AddCommand(DeployCommand())
	cmd.AddCommand(EnvCommand())

	return cmd
}
