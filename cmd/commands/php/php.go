package php

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "php",
		Short: "Manage PHP on servers",
	}

	cmd.AddCommand(InstallCommand())

	return cmd
}
