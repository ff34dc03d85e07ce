// Package provision creates a cloud instance, waits for it to become
// reachable, and registers it in the local inventory, compensating with
// a destroy when any step fails after the resource exists.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/retry"
	"github.com/loadinglucian/deployer-php-sub001/internal/sshexec"
)

// State tracks a saga through its linear lifecycle.
type State string

const (
	StateRequested   State = "requested"
	StateCreated     State = "created"
	StateReady       State = "ready"
	StateRegistered  State = "registered"
	StateRollingBack State = "rolling_back"
	StateRolledBack  State = "rolled_back"
	StateFailed      State = "failed"
)

// Inventory is the slice of the local inventory the saga needs.
type Inventory interface {
	Create(target *domain.ServerTarget) error
}

// VerifyFunc checks that a target accepts SSH connections.
type VerifyFunc func(ctx context.Context, target domain.ServerTarget) error

// TargetOptions describe the ServerTarget constructed for the new
// instance once its address is known.
type TargetOptions struct {
	// Provider is the tag stored on the target (e.g. "hetzner").
	Provider string

	// Username is the SSH login user for the new server.
	Username string

	// PrivateKeyPath optionally pins a key; empty uses the default search.
	PrivateKeyPath string

	// Port is the SSH port; zero means the default.
	Port int
}

// Saga runs the provisioning sequence. One Saga value serves one
// invocation; State reports how far it got.
type Saga struct {
	cloud     domain.CloudClient
	inventory Inventory
	verify    VerifyFunc
	out       io.Writer
	state     State
}

// Option customizes a Saga.
type Option func(*Saga)

// WithVerify replaces the reachability check. Intended for testing.
func WithVerify(verify VerifyFunc) Option {
	return func(s *Saga) { s.verify = verify }
}

// WithOutput sets the progress writer (default io.Discard).
func WithOutput(w io.Writer) Option {
	return func(s *Saga) { s.out = w }
}

// New returns a Saga over the given cloud client and inventory.
func New(cloud domain.CloudClient, inventory Inventory, opts ...Option) *Saga {
	s := &Saga{
		cloud:     cloud,
		inventory: inventory,
		verify:    defaultVerify,
		out:       io.Discard,
		state:     StateRequested,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the saga's current lifecycle state.
func (s *Saga) State() State { return s.state }

// Provision runs the forward path: create → await-ready → fetch-address →
// verify-reachability → register.
//
// Resource creation is the only event that arms compensation: a failure
// in create itself returns immediately with nothing to destroy, while any
// later failure triggers a best-effort destroy of the created instance.
// A failed destroy is logged and never replaces the original error.
// Reachability verification is non-fatal: a server that is still booting
// is registered anyway, with a warning.
func (s *Saga) Provision(ctx context.Context, spec domain.InstanceSpec, opts TargetOptions) (*domain.ServerTarget, error) {
	fmt.Fprintf(s.out, "Creating %s instance %q [region=%s, size=%s, image=%s]\n",
		s.cloud.GetDisplayName(), spec.Name, spec.Region, spec.Size, spec.Image)

	resourceID, err := s.cloud.Create(ctx, spec)
	if err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("provision: create failed: %w", err)
	}
	s.state = StateCreated
	fmt.Fprintf(s.out, "Instance created (resource ID: %s)\n", resourceID)

	fmt.Fprintln(s.out, "Waiting for the instance to become active...")
	if err := s.cloud.AwaitReady(ctx, resourceID); err != nil {
		return nil, s.rollback(ctx, resourceID, fmt.Errorf("provision: instance never became ready: %w", err))
	}
	s.state = StateReady

	address, err := s.cloud.GetAddress(ctx, resourceID)
	if err != nil {
		return nil, s.rollback(ctx, resourceID, fmt.Errorf("provision: failed to fetch address: %w", err))
	}
	fmt.Fprintf(s.out, "Instance is active at %s\n", address)

	target := &domain.ServerTarget{
		Name:               spec.Name,
		Host:               address,
		Port:               opts.Port,
		Username:           opts.Username,
		PrivateKeyPath:     opts.PrivateKeyPath,
		Provider:           opts.Provider,
		ProviderResourceID: resourceID,
	}
	if err := target.Validate(); err != nil {
		return nil, s.rollback(ctx, resourceID, fmt.Errorf("provision: %w", err))
	}

	fmt.Fprintln(s.out, "Verifying SSH reachability...")
	if err := s.verify(ctx, *target); err != nil {
		// Non-fatal: fresh instances are often still booting. The
		// server is registered regardless; connecting later is safe.
		fmt.Fprintf(s.out, "Warning: server not reachable yet (%v); registering anyway\n", err)
	}

	if err := s.inventory.Create(target); err != nil {
		return nil, s.rollback(ctx, resourceID, fmt.Errorf("provision: failed to register server: %w", err))
	}
	s.state = StateRegistered
	fmt.Fprintf(s.out, "Server %q registered\n", target.Name)

	return target, nil
}

// rollback destroys the created instance and returns the original error.
// The destroy is best-effort: its own failure is logged so the operator
// knows the resource may need manual cleanup, but it never masks cause.
func (s *Saga) rollback(ctx context.Context, resourceID string, cause error) error {
	s.state = StateRollingBack
	fmt.Fprintf(s.out, "Provisioning failed, destroying instance %s...\n", resourceID)

	if err := s.cloud.Destroy(ctx, resourceID); err != nil {
		fmt.Fprintf(s.out, "Warning: failed to destroy instance %s: %v; clean it up manually\n", resourceID, err)
	} else {
		fmt.Fprintf(s.out, "Instance %s destroyed\n", resourceID)
	}

	s.state = StateRolledBack
	return cause
}

// defaultVerify dials the target a few times with backoff, treating only
// unreachable-class errors as retryable. Auth and key failures surface
// immediately so the warning names the real problem.
func defaultVerify(ctx context.Context, target domain.ServerTarget) error {
	cfg := retry.Config{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
	}
	return retry.Do(ctx, cfg, func(err error) bool {
		return errors.Is(err, domain.ErrUnreachable)
	}, func() error {
		client, err := sshexec.Connect(target, 5*time.Second)
		if err != nil {
			return err
		}
		return client.Close()
	})
}
