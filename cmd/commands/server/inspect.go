package server

import (
	"fmt"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/playbook"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"

	"github.com/spf13/cobra"
)

func InspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Gather OS facts from a server",
		Long: `Connect to a server, detect its distribution, privilege level and
listening TCP services, and cache the result in the inventory.

Example:
  deployer server inspect web-1`,
		Args:         cobra.ExactArgs(1),
		RunE:         runInspect,
		SilenceUsage: true,
	}

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	store, err := inventory.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := loadTarget(store, args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	runner := newRunner(cmd)
	doc, err := runner.Run(cmd.Context(), *target, nil, playbook.Request{
		Playbook: "server_info",
		Status:   fmt.Sprintf("Inspecting %s...", target.Name),
		Mode:     playbook.Capture,
	})
	recordRun("server_info", target.Name, start, err)
	if err != nil {
		return err
	}

	facts := factsFromDoc(doc)
	if err := store.SaveFacts(target.Name, facts); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessText.Render("Inspection complete"))
	target.Facts = facts
	printTargetDetail(cmd, target, nil)
	return nil
}

// factsFromDoc maps a server_info result document onto domain.Facts.
// Unknown or missing keys degrade to empty fields rather than errors;
// the document already passed the malformed-result gate.
func factsFromDoc(doc map[string]any) *domain.Facts {
	facts := &domain.Facts{}
	if v, ok := doc["distribution"].(string); ok {
		facts.Distribution = v
	}
	if v, ok := doc["permission_level"].(string); ok {
		facts.PermissionLevel = v
	}
	if services, ok := doc["services"].(map[string]any); ok {
		facts.Services = make(map[string]string, len(services))
		for port, proc := range services {
			if name, ok := proc.(string); ok {
				facts.Services[port] = name
			}
		}
	}
	return facts
}
