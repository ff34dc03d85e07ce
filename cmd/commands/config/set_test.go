package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loadinglucian/deployer-php-sub001/internal/config"
	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/providers"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"
)

// setupTestConfig points the config package at a temp file and returns its path.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// registerTestProvider registers a mock provider in the global registry.
func registerTestProvider(t *testing.T, name string) {
	t.Helper()
	providers.Reset()
	t.Cleanup(providers.Reset)
	providers.Register(name, func(store auth.Store) (domain.CloudClient, error) {
		return nil, nil
	})
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_DefaultProvider(t *testing.T) {
	setupTestConfig(t)
	registerTestProvider(t, "hetzner")

	stdout, stderr := execConfig(t, "set", "default-provider", "hetzner")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"hetzner"`) {
		t.Errorf("expected confirmation with provider name, got: %s", stdout)
	}

	// Verify it was persisted.
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.DefaultProvider != "hetzner" {
		t.Errorf("expected DefaultProvider %q, got %q", "hetzner", cfg.DefaultProvider)
	}
}

func TestSet_DefaultProvider_UnknownProvider(t *testing.T) {
	setupTestConfig(t)
	registerTestProvider(t, "hetzner")

	_, stderr := execConfig(t, "set", "default-provider", "nonexistent")

	if !strings.Contains(stderr, "unknown provider") {
		t.Errorf("expected 'unknown provider' error, got: %s", stderr)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}

func TestSet_KeyPathKeepsCasing(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "ssh-key-path", "/home/Deploy/.ssh/ID_key")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "/home/Deploy/.ssh/ID_key") {
		t.Errorf("path casing must be preserved, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SSHKeyPath != "/home/Deploy/.ssh/ID_key" {
		t.Errorf("unexpected stored path %q", cfg.SSHKeyPath)
	}
}
