package server

import (
	"fmt"
	"os"

	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/providers"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a server from the inventory",
		Long: `Remove a server (and its sites) from the local inventory.

With --destroy the cloud instance is destroyed as well. This only works
for servers that were provisioned through a provider.

Examples:
  deployer server delete web-1
  deployer server delete web-1 --destroy --yes`,
		Args:         cobra.ExactArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("destroy", false, "Also destroy the cloud instance")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := loadTarget(store, args[0])
	if err != nil {
		return err
	}

	destroy, _ := cmd.Flags().GetBool("destroy")
	if destroy && target.Provider == "" {
		return fmt.Errorf("server %q was not provisioned through a provider; nothing to destroy", target.Name)
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		if !ui.IsInteractive() {
			return fmt.Errorf("refusing to delete without confirmation; pass --yes")
		}
		prompt := fmt.Sprintf("Remove %q from the inventory?", target.Name)
		if destroy {
			prompt = fmt.Sprintf("Destroy instance %q (%s) and remove it from the inventory?",
				target.Name, target.Host)
		}
		var confirmed bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(prompt).Value(&confirmed),
		)).WithAccessible(os.Getenv("ACCESSIBLE") != "")
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.ErrOrStderr(), "Deletion cancelled.")
			return nil
		}
	}

	if destroy {
		cloud, err := providers.Get(target.Provider, auth.DefaultStore())
		if err != nil {
			return err
		}
		err = ui.Spin(cmd.ErrOrStderr(), "Destroying instance...", func() error {
			return cloud.Destroy(cmd.Context(), target.ProviderResourceID)
		})
		if err != nil {
			return fmt.Errorf("failed to destroy instance %s: %w", target.ProviderResourceID, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Instance %s destroyed.\n", target.ProviderResourceID)
	}

	if err := store.Delete(target.Name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Server %q removed from the inventory.\n", target.Name)
	return nil
}
