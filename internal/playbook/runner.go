// Package playbook ships idempotent shell scripts to a remote host over
// SSH, injects typed context variables, and returns the script's
// structured result through an out-of-band temp file.
package playbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/sshexec"
)

// Mode selects how remote output is handled during the main execution.
type Mode int

const (
	// Capture buffers output silently; it is surfaced only on failure.
	// Used for frequent, low-noise calls such as fact gathering.
	Capture Mode = iota

	// Stream relays output chunk-by-chunk as it arrives. Used for
	// long-running, user-facing operations such as package installs.
	Stream
)

// DefaultTimeout bounds the main execution when a request does not set
// its own. Playbooks may legitimately run for minutes.
const DefaultTimeout = 15 * time.Minute

// readBackTimeout bounds the result read. It is deliberately short and
// fixed: the read is a small bounded file fetch, never a long operation.
const readBackTimeout = 30 * time.Second

// Request describes one playbook execution. Requests are constructed per
// call and never reused; each run gets a fresh output channel.
type Request struct {
	// Playbook names the embedded script to run.
	Playbook string

	// Status is the human-readable description shown before execution.
	Status string

	// Vars are caller-supplied variables. They win over auto-derived
	// variables with the same name.
	Vars map[string]any

	// Mode selects streamed or captured output.
	Mode Mode

	// Timeout bounds the main execution. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Session is the slice of sshexec.Client the runner needs. A fake
// implementation stands in for a real connection in tests.
type Session interface {
	Run(ctx context.Context, cmd string, opts sshexec.RunOptions) (sshexec.RunResult, error)
	Close() error
}

// DialFunc opens a session to a target.
type DialFunc func(target domain.ServerTarget) (Session, error)

// Runner executes playbooks against server targets. The zero value is
// not usable; construct with NewRunner.
type Runner struct {
	dial   DialFunc
	out    io.Writer
	errOut io.Writer
	helper string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithDialFunc replaces the SSH dialer. Intended for testing.
func WithDialFunc(dial DialFunc) Option {
	return func(r *Runner) { r.dial = dial }
}

// WithHelper replaces the shared helper library source. Intended for
// testing payload composition without the embedded scripts.
func WithHelper(helper string) Option {
	return func(r *Runner) { r.helper = helper }
}

// NewRunner returns a Runner that streams to out and writes progress
// lines to errOut.
func NewRunner(out, errOut io.Writer, opts ...Option) *Runner {
	r := &Runner{
		dial: func(target domain.ServerTarget) (Session, error) {
			return sshexec.Connect(target, sshexec.DefaultDialTimeout)
		},
		out:    out,
		errOut: errOut,
		helper: Helper(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one playbook against the target and returns its parsed
// result document.
//
// Failure classification (each wraps the matching domain sentinel):
//   - connection-phase: ErrKeyNotFound, ErrAuthRejected, ErrUnreachable
//   - non-zero exit: *ExecError (ErrExecutionFailed), raw output attached
//   - deadline exceeded (either phase): ErrTimedOut with TimeoutHint
//   - exit 0 but empty/unparsable result: ErrMalformedResult
//
// A non-zero exit always wins over whatever was written to the output
// channel; the channel is only read after a clean exit.
func (r *Runner) Run(ctx context.Context, target domain.ServerTarget, site *domain.SiteContext, req Request) (map[string]any, error) {
	script, err := Script(req.Playbook)
	if err != nil {
		return nil, err
	}

	channel := NewOutputChannel()

	vars, err := BuildVars(target, site, channel.Path, req.Vars)
	if err != nil {
		return nil, err
	}

	payload := Payload{Helper: r.helper, Script: script, Vars: vars}
	command, err := payload.Command()
	if err != nil {
		return nil, err
	}

	if req.Status != "" && r.errOut != nil {
		fmt.Fprintf(r.errOut, "%s\n", req.Status)
	}

	session, err := r.dial(target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runOpts := sshexec.RunOptions{Timeout: timeout}
	if req.Mode == Stream {
		runOpts.Stdout = r.out
		runOpts.Stderr = r.errOut
	}

	result, err := session.Run(ctx, command, runOpts)
	if err != nil {
		if errors.Is(err, domain.ErrTimedOut) {
			return nil, fmt.Errorf("playbook %s: %w. %s", req.Playbook, err, TimeoutHint)
		}
		return nil, fmt.Errorf("playbook %s: %w", req.Playbook, err)
	}

	if result.ExitCode != 0 {
		return nil, &ExecError{
			Playbook: req.Playbook,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
	}

	return r.readResult(ctx, session, channel, req.Playbook)
}

// readResult fetches and parses the output-channel document. It always
// uses capture semantics on a fresh session, with its own short timeout,
// regardless of the main call's mode.
func (r *Runner) readResult(ctx context.Context, session Session, channel OutputChannel, playbook string) (map[string]any, error) {
	read, err := session.Run(ctx, channel.ReadCommand(), sshexec.RunOptions{Timeout: readBackTimeout})
	if err != nil {
		if errors.Is(err, domain.ErrTimedOut) {
			return nil, fmt.Errorf("playbook %s: result read: %w. %s", playbook, err, TimeoutHint)
		}
		return nil, fmt.Errorf("playbook %s: result read: %w", playbook, err)
	}

	// A missing file makes cat exit non-zero, which is the same defect
	// as an empty document: the script never wrote its result.
	if read.ExitCode != 0 {
		return nil, fmt.Errorf("playbook %s: no result written to %s: %w", playbook, channel.Path, domain.ErrMalformedResult)
	}

	doc, err := Decode([]byte(read.Stdout))
	if err != nil {
		return nil, fmt.Errorf("playbook %s: %w", playbook, err)
	}
	return doc, nil
}
