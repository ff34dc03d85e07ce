// Package sshexec resolves SSH credentials and runs remote commands for
// the playbook engine. It classifies connection failures into the sentinel
// errors in internal/domain so callers can distinguish fatal conditions
// (missing key, rejected credentials) from transient ones (host still
// booting).
package sshexec

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// DefaultDialTimeout bounds a connection attempt. Freshly created servers
// may still be booting, so exceeding it maps to domain.ErrUnreachable
// rather than a fatal failure.
const DefaultDialTimeout = 15 * time.Second

// defaultKeyNames are tried in order, relative to ~/.ssh, when a target
// does not pin a private key path.
var defaultKeyNames = []string{
	"id_ed25519",
	"id_rsa",
	"id_ecdsa",
}

// KeyCandidates returns the ordered list of paths tried when no explicit
// key path is given.
func KeyCandidates() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("sshexec: failed to determine home directory: %w", err)
	}
	paths := make([]string, 0, len(defaultKeyNames))
	for _, name := range defaultKeyNames {
		paths = append(paths, filepath.Join(home, ".ssh", name))
	}
	return paths, nil
}

// ResolveKey returns a signer for the first usable private key.
//
// Resolution order: the explicit path (if non-empty), then each of the
// conventional default locations. A path is usable when the file exists
// and parses as a supported private key format. If nothing matches, the
// error wraps domain.ErrKeyNotFound.
func ResolveKey(explicitPath string) (ssh.Signer, string, error) {
	if explicitPath != "" {
		expanded, err := ExpandHomePath(explicitPath)
		if err != nil {
			return nil, "", err
		}
		signer, err := loadSigner(expanded)
		if err != nil {
			return nil, "", fmt.Errorf("sshexec: key %s: %w: %v", expanded, domain.ErrKeyNotFound, err)
		}
		return signer, expanded, nil
	}

	candidates, err := KeyCandidates()
	if err != nil {
		return nil, "", err
	}

	for _, path := range candidates {
		signer, err := loadSigner(path)
		if err == nil {
			return signer, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			// The file exists but is unusable; keep trying the rest.
			continue
		}
	}

	return nil, "", fmt.Errorf("sshexec: no usable private key in %s: %w",
		strings.Join(candidates, ", "), domain.ErrKeyNotFound)
}

// ExpandHomePath expands a leading ~/ to the user's home directory.
func ExpandHomePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("sshexec: failed to determine home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return signer, nil
}

// Connect opens an authenticated SSH session to the target, resolving the
// key first so a missing key fails before any network traffic.
//
// The returned error wraps exactly one of domain.ErrKeyNotFound,
// domain.ErrAuthRejected, domain.ErrUnreachable or domain.ErrTransport.
// Connect never retries; retry policy belongs to the caller.
func Connect(target domain.ServerTarget, dialTimeout time.Duration) (*Client, error) {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	signer, keyPath, err := ResolveKey(target.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", target.Addr(), config)
	if err != nil {
		return nil, classifyDialError(target.Addr(), err)
	}

	return &Client{ssh: client, keyPath: keyPath}, nil
}

// classifyDialError maps an ssh.Dial failure onto the domain taxonomy.
func classifyDialError(addr string, err error) error {
	if isAuthError(err) {
		return fmt.Errorf("sshexec: %s: %w", addr, domain.ErrAuthRejected)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("sshexec: %s: %w (the server may still be booting; retrying later is safe)", addr, domain.ErrUnreachable)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("sshexec: %s: %w: %v", addr, domain.ErrUnreachable, err)
	}

	return fmt.Errorf("sshexec: %s: %w: %v", addr, domain.ErrTransport, err)
}

// isAuthError detects a credential rejection. The ssh package does not
// export a typed error for this, so the message is the only signal.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}
