package domain

import (
	"fmt"
	"strconv"
)

// DefaultSSHPort is used when a target does not specify one.
const DefaultSSHPort = 22

// Provider tags for servers created through a cloud client. A target with
// no tag was added to the inventory by hand.
const (
	ProviderNone         = ""
	ProviderHetzner      = "hetzner"
	ProviderDigitalOcean = "digitalocean"
)

// Facts is system information previously gathered from a server by the
// inspect playbook. A nil Facts means the server has not been inspected yet.
type Facts struct {
	// Distribution is the OS identifier, e.g. "ubuntu" or "debian".
	Distribution string `json:"distribution,omitempty"`

	// PermissionLevel is "root" or "sudo" depending on how the configured
	// user escalates privileges.
	PermissionLevel string `json:"permission_level,omitempty"`

	// Services maps detected listening TCP ports to process names,
	// e.g. {"22": "sshd", "443": "caddy"}.
	Services map[string]string `json:"services,omitempty"`
}

// ServerTarget identifies a remote host and how to reach it. It is the
// unit the inventory stores and every playbook runs against.
type ServerTarget struct {
	// Name is the unique inventory key.
	Name string `json:"name"`

	// Host is an IP address or hostname, unique across the inventory.
	Host string `json:"host"`

	// Port is the SSH port. Zero means DefaultSSHPort.
	Port int `json:"port,omitempty"`

	// Username is the SSH login user.
	Username string `json:"username"`

	// PrivateKeyPath optionally pins a private key file. When empty the
	// conventional default key locations are tried in order.
	PrivateKeyPath string `json:"private_key_path,omitempty"`

	// Provider tags servers created through a cloud client.
	Provider string `json:"provider,omitempty"`

	// ProviderResourceID is the cloud-side instance ID. Only set for
	// provider-created servers.
	ProviderResourceID string `json:"provider_resource_id,omitempty"`

	// Facts caches the result of the last inspect run, if any.
	Facts *Facts `json:"facts,omitempty"`
}

// Addr returns the host:port dial address, applying the default port.
func (t ServerTarget) Addr() string {
	port := t.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return t.Host + ":" + strconv.Itoa(port)
}

// Validate checks the structural invariants a target must satisfy before
// it can be stored or connected to.
func (t ServerTarget) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("server target: name is required")
	}
	if t.Host == "" {
		return fmt.Errorf("server target: host is required")
	}
	if t.Username == "" {
		return fmt.Errorf("server target: username is required")
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("server target: port %d is out of range", t.Port)
	}
	if t.ProviderResourceID != "" && t.Provider == "" {
		return fmt.Errorf("server target: provider resource ID %q requires a provider tag", t.ProviderResourceID)
	}
	return nil
}
