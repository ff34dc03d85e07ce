package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/providers"
	"github.com/loadinglucian/deployer-php-sub001/internal/provision"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"
	"github.com/loadinglucian/deployer-php-sub001/internal/util"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func ProvisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision <name>",
		Short: "Create a cloud server and register it in the inventory",
		Long: `Create a cloud server, wait for it to become active, and register it
in the local inventory.

If the instance fails after creation, it is destroyed again so no
orphaned resources are left behind. Missing flags fall back to
configured defaults, then to an interactive prompt.

Examples:
  deployer server provision web-1 --provider hetzner --region fsn1 --size cpx11 --image ubuntu-24.04
  deployer server provision web-1 --ssh-key my-key`,
		Args:         cobra.ExactArgs(1),
		RunE:         runProvision,
		SilenceUsage: true,
	}

	cmd.Flags().String("provider", "", "Cloud provider (defaults to config default-provider)")
	cmd.Flags().String("region", "", "Region for the new instance")
	cmd.Flags().String("size", "", "Instance size/type")
	cmd.Flags().String("image", "", "OS image")
	cmd.Flags().StringSlice("ssh-key", nil, "Provider-side SSH key name, ID or fingerprint (repeatable)")
	cmd.Flags().String("user", "", "SSH login user for the new server (default root)")
	cmd.Flags().String("key-path", "", "Local private key used for SSH connections")

	return cmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if err := util.ValidateServerName(name); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	spec := domain.InstanceSpec{Name: name}
	providerName := flagOrConfig(cmd, "provider", cfg.DefaultProvider)
	spec.Region = flagOrConfig(cmd, "region", cfg.Region)
	spec.Size = flagOrConfig(cmd, "size", cfg.Size)
	spec.Image = flagOrConfig(cmd, "image", cfg.Image)
	spec.SSHKeyIDs, _ = cmd.Flags().GetStringSlice("ssh-key")

	if err := promptMissing(&providerName, &spec); err != nil {
		return err
	}

	cloud, err := providers.Get(providerName, auth.DefaultStore())
	if err != nil {
		return err
	}

	username := flagOrConfig(cmd, "user", cfg.Username)
	if username == "" {
		username = "root"
	}
	keyPath, _ := cmd.Flags().GetString("key-path")
	if keyPath == "" {
		keyPath = cfg.SSHKeyPath
	}

	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	saga := provision.New(cloud, store, provision.WithOutput(cmd.ErrOrStderr()))
	target, err := saga.Provision(cmd.Context(), spec, provision.TargetOptions{
		Provider:       util.NormalizeKey(providerName),
		Username:       username,
		PrivateKeyPath: keyPath,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessText.Render(
		fmt.Sprintf("Server %q is ready at %s", target.Name, target.Host)))
	fmt.Fprintf(cmd.OutOrStdout(), "Next: deployer server inspect %s\n", target.Name)
	return nil
}

// flagOrConfig resolves a string flag, falling back to the config value.
func flagOrConfig(cmd *cobra.Command, flag, fallback string) string {
	value, _ := cmd.Flags().GetString(flag)
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

// promptMissing asks for any still-unset instance fields. Outside a
// terminal the missing fields are an error instead.
func promptMissing(providerName *string, spec *domain.InstanceSpec) error {
	var missing []string
	if *providerName == "" {
		missing = append(missing, "provider")
	}
	if spec.Region == "" {
		missing = append(missing, "region")
	}
	if spec.Size == "" {
		missing = append(missing, "size")
	}
	if spec.Image == "" {
		missing = append(missing, "image")
	}
	if len(missing) == 0 {
		return nil
	}

	if !ui.IsInteractive() {
		return fmt.Errorf("missing required values: %s (pass flags or set config defaults)",
			strings.Join(missing, ", "))
	}

	var fields []huh.Field
	if *providerName == "" {
		options := providers.List()
		var opts []huh.Option[string]
		for _, p := range options {
			opts = append(opts, huh.NewOption(p, p))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Provider").
			Options(opts...).
			Value(providerName))
	}
	if spec.Region == "" {
		fields = append(fields, huh.NewInput().Title("Region").Value(&spec.Region))
	}
	if spec.Size == "" {
		fields = append(fields, huh.NewInput().Title("Size").Value(&spec.Size))
	}
	if spec.Image == "" {
		fields = append(fields, huh.NewInput().Title("Image").Value(&spec.Image))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithAccessible(os.Getenv("ACCESSIBLE") != "")
	return form.Run()
}
