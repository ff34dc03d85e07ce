package cmd

import (
	"os"

	"github.com/loadinglucian/deployer-php-sub001/cmd/commands/auth"
	cfgcmd "github.com/loadinglucian/deployer-php-sub001/cmd/commands/config"
	"github.com/loadinglucian/deployer-php-sub001/cmd/commands/php"
	"github.com/loadinglucian/deployer-php-sub001/cmd/commands/server"
	"github.com/loadinglucian/deployer-php-sub001/cmd/commands/site"
	"github.com/loadinglucian/deployer-php-sub001/internal/providers"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "deployer",
		Short: "A CLI tool for provisioning and managing PHP application servers",
		Long: `deployer provisions cloud servers and configures them for PHP
applications by running idempotent playbooks over SSH. No agent is
installed on the server; every operation is a fresh SSH session.

Supported providers: Hetzner, DigitalOcean.

Quick start:
  deployer auth login hetzner       # Store your API token
  deployer server provision web-1   # Create and register a server
  deployer server inspect web-1     # Gather OS facts
  deployer php install --server web-1 --version 8.3
  deployer site deploy example.com --server web-1`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(server.NewCommand())
	cmd.AddCommand(php.NewCommand())
	cmd.AddCommand(site.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	providers.RegisterAll()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
