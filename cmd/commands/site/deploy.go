package site

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/inventory"
	"github.com/loadinglucian/deployer-php-sub001/internal/playbook"
	"github.com/loadinglucian/deployer-php-sub001/internal/runlog"
	"github.com/loadinglucian/deployer-php-sub001/internal/ui"
	"github.com/loadinglucian/deployer-php-sub001/internal/util"

	"github.com/spf13/cobra"
)

func DeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <domain>",
		Short: "Deploy a site to a server",
		Long: `Deploy a site: create its directory layout, clone or update the
repository, and install its cron jobs and worker processes. Flags not
given fall back to the values stored from the previous deploy.

Jobs are "<schedule>|<command>"; workers are "<name>|<command>[|<processes>]".

Examples:
  deployer site deploy example.com --server web-1 --repo git@github.com:acme/shop.git --php 8.3
  deployer site deploy example.com --server web-1 --job "* * * * *|php artisan schedule:run"
  deployer site deploy example.com --server web-1 --worker "queue|php artisan queue:work|2"`,
		Args:         cobra.ExactArgs(1),
		RunE:         runDeploy,
		SilenceUsage: true,
	}

	cmd.Flags().String("server", "", "Inventory server name (required)")
	cmd.Flags().String("repo", "", "Git repository URL")
	cmd.Flags().String("branch", "", "Git branch (defaults to the remote HEAD)")
	cmd.Flags().String("php", "", "PHP version the site runs on")
	cmd.Flags().StringArray("job", nil, "Cron job as \"<schedule>|<command>\" (repeatable)")
	cmd.Flags().StringArray("worker", nil, "Worker as \"<name>|<command>[|<processes>]\" (repeatable)")
	cmd.MarkFlagRequired("server")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	siteDomain := strings.ToLower(strings.TrimSpace(args[0]))
	if err := util.ValidateDomain(siteDomain); err != nil {
		return err
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

	site, err := buildSiteContext(cmd, store, target.Name, siteDomain)
	if err != nil {
		return err
	}

	start := time.Now()
	runner := playbook.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, err = runner.Run(cmd.Context(), *target, site, playbook.Request{
		Playbook: "site_deploy",
		Status:   fmt.Sprintf("Deploying %s to %s...", site.Domain, target.Name),
		Mode:     playbook.Stream,
	})
	recordRun("site_deploy", target.Name, start, err)
	if err != nil {
		return err
	}

	if err := store.SaveSite(target.Name, *site); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessText.Render(
		fmt.Sprintf("Site %s deployed to %s", site.Domain, target.Name)))
	return nil
}

// buildSiteContext merges flags over whatever the inventory remembers
// from the previous deploy of this site.
func buildSiteContext(cmd *cobra.Command, store *inventory.Store, serverName, siteDomain string) (*domain.SiteContext, error) {
	site := &domain.SiteContext{Domain: siteDomain}
	if stored, err := store.FindSite(serverName, siteDomain); err == nil {
		site = stored
	}

	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		site.Repo = repo
	}
	if branch, _ := cmd.Flags().GetString("branch"); branch != "" {
		site.Branch = branch
	}
	if php, _ := cmd.Flags().GetString("php"); php != "" {
		site.PHPVersion = php
	}
	if site.PHPVersion == "" {
		return nil, fmt.Errorf("site %s has no PHP version; pass --php", siteDomain)
	}

	jobSpecs, _ := cmd.Flags().GetStringArray("job")
	if len(jobSpecs) > 0 {
		jobs, err := parseJobs(jobSpecs)
		if err != nil {
			return nil, err
		}
		site.Jobs = jobs
	}

	workerSpecs, _ := cmd.Flags().GetStringArray("worker")
	if len(workerSpecs) > 0 {
		workers, err := parseWorkers(workerSpecs)
		if err != nil {
			return nil, err
		}
		site.Workers = workers
	}

	return site, nil
}

func parseJobs(specs []string) ([]domain.ScheduledJob, error) {
	var jobs []domain.ScheduledJob
	for _, spec := range specs {
		schedule, command, ok := strings.Cut(spec, "|")
		if !ok || strings.TrimSpace(schedule) == "" || strings.TrimSpace(command) == "" {
			return nil, fmt.Errorf("invalid job %q (expected \"<schedule>|<command>\")", spec)
		}
		jobs = append(jobs, domain.ScheduledJob{
			Schedule: strings.TrimSpace(schedule),
			Command:  strings.TrimSpace(command),
		})
	}
	return jobs, nil
}

func parseWorkers(specs []string) ([]domain.WorkerProcess, error) {
	var workers []domain.WorkerProcess
	for _, spec := range specs {
		parts := strings.Split(spec, "|")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid worker %q (expected \"<name>|<command>[|<processes>]\")", spec)
		}
		worker := domain.WorkerProcess{
			Name:    strings.TrimSpace(parts[0]),
			Command: strings.TrimSpace(parts[1]),
		}
		if worker.Name == "" || worker.Command == "" {
			return nil, fmt.Errorf("invalid worker %q: name and command are required", spec)
		}
		if len(parts) == 3 {
			n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid worker %q: process count must be a positive integer", spec)
			}
			worker.Processes = n
		}
		workers = append(workers, worker)
	}
	return workers, nil
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
