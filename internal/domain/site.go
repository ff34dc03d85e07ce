package domain

// ScheduledJob is a cron-style job attached to a site.
type ScheduledJob struct {
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
}

// WorkerProcess is a long-running process supervised on the server for a
// site (e.g. a queue worker).
type WorkerProcess struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Processes int    `json:"processes,omitempty"`
}

// SiteContext carries the site-level inputs folded into variable injection
// when a playbook operates on a specific site rather than the whole server.
type SiteContext struct {
	Domain     string          `json:"domain"`
	PHPVersion string          `json:"php_version"`
	Repo       string          `json:"repo,omitempty"`
	Branch     string          `json:"branch,omitempty"`
	Jobs       []ScheduledJob  `json:"jobs,omitempty"`
	Workers    []WorkerProcess `json:"workers,omitempty"`
}
