package server

import (
	"fmt"
	"strings"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/util"

	"github.com/spf13/cobra"
)

func AddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an existing server in the inventory",
		Long: `Register a server that already exists (any machine reachable over SSH)
without provisioning anything.

Example:
  deployer server add web-1 --host 203.0.113.10 --user deploy`,
		Args:         cobra.ExactArgs(1),
		RunE:         runAdd,
		SilenceUsage: true,
	}

	cmd.Flags().String("host", "", "IP address or hostname (required)")
	cmd.Flags().String("user", "root", "SSH login user")
	cmd.Flags().Int("port", 0, "SSH port (default 22)")
	cmd.Flags().String("key-path", "", "Private key used for SSH connections")
	cmd.MarkFlagRequired("host")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if err := util.ValidateServerName(name); err != nil {
		return err
	}

	host, _ := cmd.Flags().GetString("host")
	user, _ := cmd.Flags().GetString("user")
	port, _ := cmd.Flags().GetInt("port")
	keyPath, _ := cmd.Flags().GetString("key-path")

	target := &domain.ServerTarget{
		Name:           name,
		Host:           strings.TrimSpace(host),
		Port:           port,
		Username:       strings.TrimSpace(user),
		PrivateKeyPath: keyPath,
	}

	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Create(target); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Server %q registered (%s)\n", target.Name, target.Addr())
	return nil
}
