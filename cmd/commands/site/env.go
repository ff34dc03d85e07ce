package site

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/sshexec"
	"github.com/loadinglucian/deployer-php-sub001/internal/util"

	"github.com/spf13/cobra"
)

func EnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage site environment files",
	}

	cmd.AddCommand(EnvPushCommand())

	return cmd
}

func EnvPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <domain>",
		Short: "Upload a local .env file to a site",
		Long: `Upload a local environment file to the site's shared directory over
SFTP. The deployed site links shared/.env into the release on the next
deploy.

Example:
  deployer site env push example.com --server web-1 --file ./.env.production`,
		Args:         cobra.ExactArgs(1),
		RunE:         runEnvPush,
		SilenceUsage: true,
	}

	cmd.Flags().String("server", "", "Inventory server name (required)")
	cmd.Flags().String("file", ".env", "Local environment file to upload")
	cmd.MarkFlagRequired("server")

	return cmd
}

func runEnvPush(cmd *cobra.Command, args []string) error {
	siteDomain := strings.ToLower(strings.TrimSpace(args[0]))
	if err := util.ValidateDomain(siteDomain); err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	serverName, _ := cmd.Flags().GetString("server")

	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := store.FindByName(serverName)
	if err != nil {
		return err
	}
	if target.PrivateKeyPath == "" {
		if cfg, err := config.Load(); err == nil {
			target.PrivateKeyPath = cfg.SSHKeyPath
		}
	}

	client, err := sshexec.Connect(*target, sshexec.DefaultDialTimeout)
	if err != nil {
		return err
	}
	defer client.Close()

	remotePath := path.Join("/var/www", siteDomain, "shared", ".env")
	// 0600: env files carry credentials.
	if err := client.Upload(data, remotePath, 0o600); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s:%s\n", file, target.Name, remotePath)
	return nil
}
