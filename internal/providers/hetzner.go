package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

const hetznerPollInterval = 5 * time.Second

// HetznerClient implements domain.CloudClient using the Hetzner Cloud API.
type HetznerClient struct {
	client *hcloud.Client
}

// NewHetznerClient creates a HetznerClient with the given hcloud client options.
// Default options (application name) are applied first; callers can override them.
func NewHetznerClient(opts ...hcloud.ClientOption) *HetznerClient {
	defaults := []hcloud.ClientOption{
		hcloud.WithApplication("deployer", "0.1.0"),
	}
	allOpts := append(defaults, opts...)
	return &HetznerClient{
		client: hcloud.NewClient(allOpts...),
	}
}

// RegisterHetzner registers the Hetzner factory with the global registry.
func RegisterHetzner() {
	Register("hetzner", func(store auth.Store) (domain.CloudClient, error) {
		token, err := store.GetToken("hetzner")
		if err != nil {
			return nil, fmt.Errorf("hetzner auth: %w", err)
		}

		return NewHetznerClient(hcloud.WithToken(token)), nil
	})
}

func (h *HetznerClient) GetDisplayName() string {
	return "Hetzner"
}

// Create provisions a new server and returns its numeric ID as a string.
// SSH key names-or-IDs are resolved through the API, since the create
// request body requires resolved keys.
func (h *HetznerClient) Create(ctx context.Context, spec domain.InstanceSpec) (string, error) {
	opts := hcloud.ServerCreateOpts{
		Name:       spec.Name,
		ServerType: &hcloud.ServerType{Name: spec.Size},
		Image:      &hcloud.Image{Name: spec.Image},
	}
	if spec.Region != "" {
		opts.Location = &hcloud.Location{Name: spec.Region}
	}

	for _, key := range spec.SSHKeyIDs {
		sshKey, _, err := h.client.SSHKey.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to resolve SSH key %q: %w", key, err)
		}
		if sshKey == nil {
			return "", fmt.Errorf("SSH key %q not found", key)
		}
		opts.SSHKeys = append(opts.SSHKeys, sshKey)
	}

	result, _, err := h.client.Server.Create(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create server: %w", err)
	}

	return strconv.FormatInt(result.Server.ID, 10), nil
}

// AwaitReady polls the server until it reports running status.
func (h *HetznerClient) AwaitReady(ctx context.Context, id string) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid server ID %q: %w", id, err)
	}

	ticker := time.NewTicker(hetznerPollInterval)
	defer ticker.Stop()

	for {
		server, _, err := h.client.Server.GetByID(ctx, numericID)
		if err != nil {
			return fmt.Errorf("failed to poll server %s: %w", id, err)
		}
		if server == nil {
			return fmt.Errorf("server %s disappeared while waiting", id)
		}
		if server.Status == hcloud.ServerStatusRunning {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetAddress returns the server's public IPv4 address.
func (h *HetznerClient) GetAddress(ctx context.Context, id string) (string, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid server ID %q: %w", id, err)
	}

	server, _, err := h.client.Server.GetByID(ctx, numericID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch server %s: %w", id, err)
	}
	if server == nil {
		return "", fmt.Errorf("server %s not found", id)
	}
	if server.PublicNet.IPv4.IsUnspecified() {
		return "", fmt.Errorf("server %s has no public IPv4 address", id)
	}

	return server.PublicNet.IPv4.IP.String(), nil
}

// Destroy removes a server by its numeric ID.
func (h *HetznerClient) Destroy(ctx context.Context, id string) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid server ID %q: %w", id, err)
	}

	_, _, err = h.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: numericID})
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	return nil
}
