package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// Client wraps an open SSH connection. Each Run opens a fresh session, so
// one Client can serve both a playbook execution and the follow-up result
// read without the sessions sharing state.
type Client struct {
	ssh     *ssh.Client
	keyPath string
}

// KeyPath reports which private key authenticated the connection.
func (c *Client) KeyPath() string { return c.keyPath }

// Close tears down the underlying connection.
func (c *Client) Close() error { return c.ssh.Close() }

// RunOptions controls a single remote command execution.
type RunOptions struct {
	// Stdout, when non-nil, receives output chunk-by-chunk as it arrives
	// (stream mode). When nil the output is buffered (capture mode).
	Stdout io.Writer

	// Stderr mirrors remote stderr in stream mode. Ignored when Stdout
	// is nil.
	Stderr io.Writer

	// Timeout bounds the whole execution. Zero means no deadline.
	Timeout time.Duration
}

// RunResult is the outcome of a completed remote command.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run executes cmd in a new session and waits for it to exit.
//
// Output is always captured into the result, even in stream mode, so
// failures can be reported with whatever was produced. Exceeding the
// timeout returns an error wrapping domain.ErrTimedOut together with the
// partial result; there is no way to cancel the remote process, so the
// session is simply torn down.
func (c *Client) Run(ctx context.Context, cmd string, opts RunOptions) (RunResult, error) {
	session, err := c.ssh.NewSession()
	if err != nil {
		return RunResult{}, fmt.Errorf("sshexec: new session: %w: %v", domain.ErrTransport, err)
	}
	defer session.Close()

	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		return RunResult{}, fmt.Errorf("sshexec: stdout pipe: %w: %v", domain.ErrTransport, err)
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		return RunResult{}, fmt.Errorf("sshexec: stderr pipe: %w: %v", domain.ErrTransport, err)
	}

	var outBuf, errBuf bytes.Buffer

	stdout := io.Writer(&outBuf)
	stderr := io.Writer(&errBuf)
	if opts.Stdout != nil {
		stdout = io.MultiWriter(&outBuf, opts.Stdout)
		if opts.Stderr != nil {
			stderr = io.MultiWriter(&errBuf, opts.Stderr)
		}
	}

	// The pipes must be drained while the command runs; a blocking
	// read-to-completion would stall streaming output and can deadlock
	// on full channel windows.
	var drain errgroup.Group
	drain.Go(func() error {
		_, err := io.Copy(stdout, stdoutPipe)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(stderr, stderrPipe)
		return err
	})

	if err := session.Start(cmd); err != nil {
		return RunResult{}, fmt.Errorf("sshexec: start: %w: %v", domain.ErrTransport, err)
	}

	waitErr := c.wait(ctx, session, opts.Timeout)
	drainErr := drain.Wait()

	result := RunResult{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}

	if waitErr != nil {
		var exitErr *ssh.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		case errors.Is(waitErr, domain.ErrTimedOut):
			return result, waitErr
		default:
			return result, fmt.Errorf("sshexec: wait: %w: %v", domain.ErrTransport, waitErr)
		}
	}

	if drainErr != nil {
		return result, fmt.Errorf("sshexec: drain: %w: %v", domain.ErrTransport, drainErr)
	}

	return result, nil
}

// wait blocks until the session exits, the timeout elapses, or ctx is done.
func (c *Client) wait(ctx context.Context, session *ssh.Session, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err := <-done:
		return err
	case <-timer:
		session.Close()
		return fmt.Errorf("sshexec: execution exceeded %s: %w", timeout, domain.ErrTimedOut)
	case <-ctx.Done():
		session.Close()
		return ctx.Err()
	}
}

// Upload copies in-memory bytes to a remote path over SFTP, creating
// parent directories as needed.
func (c *Client) Upload(data []byte, remotePath string, mode uint32) error {
	sftpClient, err := sftp.NewClient(c.ssh)
	if err != nil {
		return fmt.Errorf("sshexec: sftp: %w: %v", domain.ErrTransport, err)
	}
	defer sftpClient.Close()

	if dir := path.Dir(remotePath); dir != "" && dir != "." && dir != "/" {
		if err := sftpClient.MkdirAll(dir); err != nil {
			return fmt.Errorf("sshexec: mkdir %s: %w: %v", dir, domain.ErrTransport, err)
		}
	}

	dst, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sshexec: create %s: %w: %v", remotePath, domain.ErrTransport, err)
	}
	defer dst.Close()

	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("sshexec: write %s: %w: %v", remotePath, domain.ErrTransport, err)
	}
	if err := dst.Chmod(os.FileMode(mode)); err != nil {
		return fmt.Errorf("sshexec: chmod %s: %w: %v", remotePath, domain.ErrTransport, err)
	}
	return nil
}
