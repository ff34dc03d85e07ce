package php

import (
	"fmt"
	"regexp"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/playbook"
	"github.com/loadinglucian/deployer-php-sub001/internal/runlog"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"

	"github.com/spf13/cobra"
)

var versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)

func InstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install PHP-FPM on a server",
		Long: `Install PHP-FPM and the common extension set on a server. The install
is idempotent: rerunning with the same version is a no-op, and multiple
versions can coexist.

Example:
  deployer php install --server web-1 --version 8.3`,
		RunE:         runInstall,
		SilenceUsage: true,
	}

	cmd.Flags().String("server", "", "Inventory server name (required)")
	cmd.Flags().String("version", "8.3", "PHP version to install (major.minor)")
	cmd.MarkFlagRequired("server")

	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	version, _ := cmd.Flags().GetString("version")
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("invalid PHP version %q (expected major.minor, e.g. 8.3)", version)
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

	start := time.Now()
	runner := playbook.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, err = runner.Run(cmd.Context(), *target, nil, playbook.Request{
		Playbook: "php_install",
		Status:   fmt.Sprintf("Installing PHP %s on %s...", version, target.Name),
		Vars:     map[string]any{"PHP_VERSION": version},
		Mode:     playbook.Stream,
	})
	recordRun("php_install", target.Name, start, err)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessText.Render(
		fmt.Sprintf("PHP %s installed on %s", version, target.Name)))
	return nil
}

// recordRun appends a run record, best-effort.
func recordRun(playbookName, serverName string, start time.Time, runErr error) {
	repo, err := runlog.Open()
	if err != nil {
		return
	}
	defer repo.Close()

	rec := runlog.Record{
		Playbook:   playbookName,
		Server:     serverName,
		Outcome:    runlog.OutcomeSuccess,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		rec.Outcome = runlog.OutcomeError
		rec.Detail = runErr.Error()
	}
	repo.Save(&rec)
}
