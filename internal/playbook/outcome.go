package playbook

import (
	"fmt"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// TimeoutHint is surfaced verbatim to the operator whenever an execution
// or read-back times out. Playbooks are idempotent by contract, so the
// hint tells the user rerunning is safe.
const TimeoutHint = "Playbooks are idempotent: rerunning this command is safe. " +
	"A timeout usually indicates network latency or host load rather than a defect."

// ExecError reports a non-zero remote exit. The captured output is kept
// so operators can diagnose the script without rerunning it; the runner
// never interprets script-specific error text.
type ExecError struct {
	Playbook string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("playbook %s: %v (exit code %d)", e.Playbook, domain.ErrExecutionFailed, e.ExitCode)
}

func (e *ExecError) Unwrap() error { return domain.ErrExecutionFailed }

// Output joins whatever the remote process produced, for display.
func (e *ExecError) Output() string {
	if e.Stdout == "" {
		return e.Stderr
	}
	if e.Stderr == "" {
		return e.Stdout
	}
	return e.Stdout + "\n" + e.Stderr
}
