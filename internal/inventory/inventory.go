// Package inventory provides persistent storage for servers and sites.
//
// Storage is backed by a SQLite database at ~/.config/deployer/inventory.db
// (or the platform-equivalent path returned by os.UserConfigDir). Access is
// single-process, single-invocation: the CLI never opens the inventory
// concurrently from multiple processes.
package inventory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

const (
	appDir = "deployer"
	dbFile = "inventory.db"
)

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// Store implements the inventory backed by a local SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("inventory: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the inventory at the default path.
func Open() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inventory: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS servers (
			name        TEXT PRIMARY KEY,
			host        TEXT NOT NULL UNIQUE,
			port        INTEGER NOT NULL DEFAULT 0,
			username    TEXT NOT NULL,
			key_path    TEXT NOT NULL DEFAULT '',
			provider    TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			facts       TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS sites (
			server_name TEXT NOT NULL REFERENCES servers(name) ON DELETE CASCADE,
			domain      TEXT NOT NULL,
			php_version TEXT NOT NULL DEFAULT '',
			repo        TEXT NOT NULL DEFAULT '',
			branch      TEXT NOT NULL DEFAULT '',
			jobs        TEXT NOT NULL DEFAULT '[]',
			workers     TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (server_name, domain)
		);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("inventory: migration failed: %w", err)
	}
	return nil
}

// Create inserts a new server. Name and host must each be unique; a
// duplicate of either wraps domain.ErrConflict.
func (s *Store) Create(target *domain.ServerTarget) error {
	if err := target.Validate(); err != nil {
		return err
	}

	facts, err := encodeFacts(target.Facts)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO servers (name, host, port, username, key_path, provider, resource_id, facts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		target.Name, target.Host, target.Port, target.Username,
		target.PrivateKeyPath, target.Provider, target.ProviderResourceID, facts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inventory: server with that name or host already exists: %w", domain.ErrConflict)
		}
		return fmt.Errorf("inventory: insert failed: %w", err)
	}
	return nil
}

// FindByName retrieves a server by its inventory name.
func (s *Store) FindByName(name string) (*domain.ServerTarget, error) {
	return s.findBy("name", name)
}

// FindByHost retrieves a server by its host address.
func (s *Store) FindByHost(host string) (*domain.ServerTarget, error) {
	return s.findBy("host", host)
}

func (s *Store) findBy(column, value string) (*domain.ServerTarget, error) {
	row := s.db.QueryRow(`
		SELECT name, host, port, username, key_path, provider, resource_id, facts
		FROM servers WHERE `+column+` = ?`, value)

	target, err := scanServer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory: server %s=%q: %w", column, value, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: query failed: %w", err)
	}
	return target, nil
}

// All returns every server, ordered by name.
func (s *Store) All() ([]domain.ServerTarget, error) {
	rows, err := s.db.Query(`
		SELECT name, host, port, username, key_path, provider, resource_id, facts
		FROM servers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("inventory: query failed: %w", err)
	}
	defer rows.Close()

	var targets []domain.ServerTarget
	for rows.Next() {
		target, err := scanServer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan failed: %w", err)
		}
		targets = append(targets, *target)
	}
	return targets, rows.Err()
}

// Delete removes a server (and its sites) by name.
func (s *Store) Delete(name string) error {
	result, err := s.db.Exec(`DELETE FROM servers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("inventory: delete failed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("inventory: server %q: %w", name, domain.ErrNotFound)
	}
	// Foreign keys are off by default in SQLite; cascade by hand.
	if _, err := s.db.Exec(`DELETE FROM sites WHERE server_name = ?`, name); err != nil {
		return fmt.Errorf("inventory: site cleanup failed: %w", err)
	}
	return nil
}

// SaveFacts caches gathered facts on an existing server.
func (s *Store) SaveFacts(name string, facts *domain.Facts) error {
	encoded, err := encodeFacts(facts)
	if err != nil {
		return err
	}
	result, err := s.db.Exec(`UPDATE servers SET facts = ? WHERE name = ?`, encoded, name)
	if err != nil {
		return fmt.Errorf("inventory: facts update failed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("inventory: server %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// SaveSite inserts or updates a site on a server.
func (s *Store) SaveSite(serverName string, site domain.SiteContext) error {
	jobs, err := json.Marshal(site.Jobs)
	if err != nil {
		return fmt.Errorf("inventory: encode jobs: %w", err)
	}
	workers, err := json.Marshal(site.Workers)
	if err != nil {
		return fmt.Errorf("inventory: encode workers: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sites (server_name, domain, php_version, repo, branch, jobs, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(server_name, domain) DO UPDATE SET
			php_version = excluded.php_version,
			repo        = excluded.repo,
			branch      = excluded.branch,
			jobs        = excluded.jobs,
			workers     = excluded.workers`,
		serverName, site.Domain, site.PHPVersion, site.Repo, site.Branch, string(jobs), string(workers),
	)
	if err != nil {
		return fmt.Errorf("inventory: site upsert failed: %w", err)
	}
	return nil
}

// FindSite retrieves one site by server name and domain.
func (s *Store) FindSite(serverName, siteDomain string) (*domain.SiteContext, error) {
	row := s.db.QueryRow(`
		SELECT domain, php_version, repo, branch, jobs, workers
		FROM sites WHERE server_name = ? AND domain = ?`, serverName, siteDomain)

	site, err := scanSite(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory: site %q on %q: %w", siteDomain, serverName, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: query failed: %w", err)
	}
	return site, nil
}

// SitesForServer returns all sites on a server, ordered by domain.
func (s *Store) SitesForServer(serverName string) ([]domain.SiteContext, error) {
	rows, err := s.db.Query(`
		SELECT domain, php_version, repo, branch, jobs, workers
		FROM sites WHERE server_name = ? ORDER BY domain`, serverName)
	if err != nil {
		return nil, fmt.Errorf("inventory: query failed: %w", err)
	}
	defer rows.Close()

	var sites []domain.SiteContext
	for rows.Next() {
		site, err := scanSite(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan failed: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanServer(scan func(...any) error) (*domain.ServerTarget, error) {
	var t domain.ServerTarget
	var facts string
	err := scan(&t.Name, &t.Host, &t.Port, &t.Username, &t.PrivateKeyPath,
		&t.Provider, &t.ProviderResourceID, &facts)
	if err != nil {
		return nil, err
	}
	if facts != "" {
		var f domain.Facts
		if err := json.Unmarshal([]byte(facts), &f); err != nil {
			return nil, fmt.Errorf("corrupt facts for %s: %w", t.Name, err)
		}
		t.Facts = &f
	}
	return &t, nil
}

func scanSite(scan func(...any) error) (*domain.SiteContext, error) {
	var site domain.SiteContext
	var jobs, workers string
	err := scan(&site.Domain, &site.PHPVersion, &site.Repo, &site.Branch, &jobs, &workers)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(jobs), &site.Jobs); err != nil {
		return nil, fmt.Errorf("corrupt jobs for %s: %w", site.Domain, err)
	}
	if err := json.Unmarshal([]byte(workers), &site.Workers); err != nil {
		return nil, fmt.Errorf("corrupt workers for %s: %w", site.Domain, err)
	}
	return &site, nil
}

func encodeFacts(facts *domain.Facts) (string, error) {
	if facts == nil {
		return "", nil
	}
	data, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("inventory: encode facts: %w", err)
	}
	return string(data), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
