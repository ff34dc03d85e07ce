package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"

	"github.com/digitalocean/godo"
)

const dropletPollInterval = 5 * time.Second

// DigitalOceanClient implements domain.CloudClient using the DigitalOcean API.
type DigitalOceanClient struct {
	client *godo.Client
}

// NewDigitalOceanClient creates a client from an API token.
func NewDigitalOceanClient(token string) *DigitalOceanClient {
	return &DigitalOceanClient{client: godo.NewFromToken(token)}
}

// RegisterDigitalOcean registers the DigitalOcean factory with the
// global registry.
func RegisterDigitalOcean() {
	Register("digitalocean", func(store auth.Store) (domain.CloudClient, error) {
		token, err := store.GetToken("digitalocean")
		if err != nil {
			return nil, fmt.Errorf("digitalocean auth: %w", err)
		}

		return NewDigitalOceanClient(token), nil
	})
}

func (d *DigitalOceanClient) GetDisplayName() string {
	return "DigitalOcean"
}

// Create provisions a new droplet and returns its numeric ID as a string.
// SSH keys may be given as numeric IDs or fingerprints.
func (d *DigitalOceanClient) Create(ctx context.Context, spec domain.InstanceSpec) (string, error) {
	var keys []godo.DropletCreateSSHKey
	for _, key := range spec.SSHKeyIDs {
		if id, err := strconv.Atoi(key); err == nil {
			keys = append(keys, godo.DropletCreateSSHKey{ID: id})
		} else {
			keys = append(keys, godo.DropletCreateSSHKey{Fingerprint: key})
		}
	}

	req := &godo.DropletCreateRequest{
		Name:    spec.Name,
		Region:  spec.Region,
		Size:    spec.Size,
		Image:   godo.DropletCreateImage{Slug: spec.Image},
		SSHKeys: keys,
	}

	droplet, _, err := d.client.Droplets.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create droplet: %w", err)
	}

	return strconv.Itoa(droplet.ID), nil
}

// AwaitReady polls the droplet until it reports active status.
func (d *DigitalOceanClient) AwaitReady(ctx context.Context, id string) error {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid droplet ID %q: %w", id, err)
	}

	ticker := time.NewTicker(dropletPollInterval)
	defer ticker.Stop()

	for {
		droplet, _, err := d.client.Droplets.Get(ctx, numericID)
		if err != nil {
			return fmt.Errorf("failed to poll droplet %s: %w", id, err)
		}
		if droplet.Status == "active" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetAddress returns the droplet's public IPv4 address.
func (d *DigitalOceanClient) GetAddress(ctx context.Context, id string) (string, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return "", fmt.Errorf("invalid droplet ID %q: %w", id, err)
	}

	droplet, _, err := d.client.Droplets.Get(ctx, numericID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch droplet %s: %w", id, err)
	}

	addr, err := droplet.PublicIPv4()
	if err != nil || addr == "" {
		return "", fmt.Errorf("droplet %s has no public IPv4 address", id)
	}

	return addr, nil
}

// Destroy removes a droplet by its numeric ID.
func (d *DigitalOceanClient) Destroy(ctx context.Context, id string) error {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid droplet ID %q: %w", id, err)
	}

	_, err = d.client.Droplets.Delete(ctx, numericID)
	if err != nil {
		return fmt.Errorf("failed to delete droplet: %w", err)
	}

	return nil
}
