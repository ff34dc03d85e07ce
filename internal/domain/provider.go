package domain

import "context"

// InstanceSpec describes the cloud instance the saga should create.
type InstanceSpec struct {
	Name      string
	Region    string
	Size      string
	Image     string
	SSHKeyIDs []string
}

// CloudClient is the minimal contract the provisioning saga needs from a
// cloud provider. Implementations live in internal/providers; the saga
// depends on nothing beyond these four operations.
type CloudClient interface {
	GetDisplayName() string

	// Create requests a new instance and returns its provider resource ID.
	Create(ctx context.Context, spec InstanceSpec) (string, error)

	// AwaitReady blocks with bounded polling until the instance reports a
	// running/active state.
	AwaitReady(ctx context.Context, resourceID string) error

	// GetAddress returns the instance's public IPv4 address.
	GetAddress(ctx context.Context, resourceID string) (string, error)

	// Destroy removes the instance. Best-effort: the saga logs, but never
	// propagates, a destroy failure during rollback.
	Destroy(ctx context.Context, resourceID string) error
}
