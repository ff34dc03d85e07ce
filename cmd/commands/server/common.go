package server

import (
	"fmt"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/playbook"
	"github.com/loadinglucian/deployer-php-sub001/internal/runlog"

	"github.com/spf13/cobra"
)

// loadTarget fetches one server from the inventory and applies the
// configured key path when the target does not pin its own.
func loadTarget(store *inventory.Store, name string) (*domain.ServerTarget, error) {
	target, err := store.FindByName(name)
	if err != nil {
		return nil, fmt.Errorf("server %q: %w (try \"deployer server list\")", name, err)
	}

	if target.PrivateKeyPath == "" {
		cfg, err := config.Load()
		if err == nil && cfg.SSHKeyPath != "" {
			target.PrivateKeyPath = cfg.SSHKeyPath
		}
	}

	return target, nil
}

// newRunner builds a playbook runner wired to the command's streams.
func newRunner(cmd *cobra.Command) *playbook.Runner {
	return playbook.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// recordRun appends a run record. Logging is best-effort; a failure to
// record never fails the command.
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
