package config

import (
	"github.com/loadinglucian/deployer-php-sub001/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage deployer configuration",
		Long: "View and modify persistent deployer settings.\n\n" +
			"Configuration is stored at ~/.config/deployer/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
