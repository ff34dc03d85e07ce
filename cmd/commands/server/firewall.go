package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/playbook"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"

	"github.com/spf13/cobra"
)

func FirewallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firewall <name>",
		Short: "Apply a TCP firewall ruleset to a server",
		Long: `Apply a UFW ruleset allowing only the given TCP ports (plus SSH,
which is always kept open). Rerunning converges on the same ruleset.

Examples:
  deployer server firewall web-1
  deployer server firewall web-1 --allow 80 --allow 443`,
		Args:         cobra.ExactArgs(1),
		RunE:         runFirewall,
		SilenceUsage: true,
	}

	cmd.Flags().IntSlice("allow", nil, "TCP port to allow (repeatable; SSH is always allowed)")

	return cmd
}

func runFirewall(cmd *cobra.Command, args []string) error {
	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := loadTarget(store, args[0])
	if err != nil {
		return err
	}

	ports, _ := cmd.Flags().GetIntSlice("allow")
	allow := allowList(target.Port, ports)

	start := time.Now()
	runner := newRunner(cmd)
	_, err = runner.Run(cmd.Context(), *target, nil, playbook.Request{
		Playbook: "firewall",
		Status:   fmt.Sprintf("Applying firewall rules on %s...", target.Name),
		Vars:     map[string]any{"FW_ALLOW": allow},
		Mode:     playbook.Stream,
	})
	recordRun("firewall", target.Name, start, err)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessText.Render(
		fmt.Sprintf("Firewall active; allowed TCP ports: %v", allow)))
	return nil
}

// allowList builds the allowed-port list, always including the SSH port
// so a ruleset can never lock the operator out.
func allowList(sshPort int, ports []int) []string {
	if sshPort == 0 {
		sshPort = 22
	}
	allow := []string{strconv.Itoa(sshPort)}
	for _, p := range ports {
		s := strconv.Itoa(p)
		if s != allow[0] {
			allow = append(allow, s)
		}
	}
	return allow
}
