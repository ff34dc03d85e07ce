package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenAt(filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTarget() *domain.ServerTarget {
	return &domain.ServerTarget{
		Name:               "web-1",
		Host:               "203.0.113.10",
		Port:               22,
		Username:           "deploy",
		Provider:           "hetzner",
		ProviderResourceID: "42",
	}
}

func TestCreateAndFind(t *testing.T) {
	store := openTestStore(t)
	want := sampleTarget()
	want.Facts = &domain.Facts{
		Distribution:    "ubuntu",
		PermissionLevel: "root",
		Services:        map[string]string{"22": "sshd"},
	}

	if err := store.Create(want); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byName, err := store.FindByName("web-1")
	if err != nil {
		t.Fatalf("find by name failed: %v", err)
	}
	if diff := cmp.Diff(want, byName); diff != "" {
		t.Errorf("find by name mismatch (-want +got):\n%s", diff)
	}

	byHost, err := store.FindByHost("203.0.113.10")
	if err != nil {
		t.Fatalf("find by host failed: %v", err)
	}
	if byHost.Name != "web-1" {
		t.Errorf("find by host returned %q", byHost.Name)
	}
}

func TestCreate_DuplicateNameConflicts(t *testing.T) {
	store := openTestStore(t)
	if err := store.Create(sampleTarget()); err != nil {
		t.Fatal(err)
	}

	dup := sampleTarget()
	dup.Host = "203.0.113.99"
	if err := store.Create(dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}
}

func TestCreate_DuplicateHostConflicts(t *testing.T) {
	store := openTestStore(t)
	if err := store.Create(sampleTarget()); err != nil {
		t.Fatal(err)
	}

	dup := sampleTarget()
	dup.Name = "web-2"
	if err := store.Create(dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate host, got %v", err)
	}
}

func TestCreate_InvalidTargetRejected(t *testing.T) {
	store := openTestStore(t)
	bad := &domain.ServerTarget{Name: "web-1", Host: "h", Username: "u", ProviderResourceID: "42"}
	if err := store.Create(bad); err == nil {
		t.Fatal("resource ID without provider tag must be rejected")
	}
}

func TestFind_NotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.FindByName("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByHost("198.51.100.1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAll_OrderedByName(t *testing.T) {
	store := openTestStore(t)
	for i, name := range []string{"web-2", "web-1", "db-1"} {
		target := sampleTarget()
		target.Name = name
		target.Host = fmt.Sprintf("10.0.0.%d", i+1)
		if err := store.Create(target); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, target := range all {
		names = append(names, target.Name)
	}
	if diff := cmp.Diff([]string{"db-1", "web-1", "web-2"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	if err := store.Create(sampleTarget()); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSite("web-1", domain.SiteContext{Domain: "example.com"}); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("web-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.FindByName("web-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("server should be gone, got %v", err)
	}
	sites, err := store.SitesForServer("web-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 0 {
		t.Errorf("sites should be cascade-deleted, got %v", sites)
	}

	if err := store.Delete("web-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestSaveFacts(t *testing.T) {
	store := openTestStore(t)
	if err := store.Create(sampleTarget()); err != nil {
		t.Fatal(err)
	}

	facts := &domain.Facts{Distribution: "debian", PermissionLevel: "sudo"}
	if err := store.SaveFacts("web-1", facts); err != nil {
		t.Fatalf("save facts failed: %v", err)
	}

	got, err := store.FindByName("web-1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(facts, got.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}

	if err := store.SaveFacts("missing", facts); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSite_UpsertAndRoundTrip(t *testing.T) {
	store := openTestStore(t)
	if err := store.Create(sampleTarget()); err != nil {
		t.Fatal(err)
	}

	site := domain.SiteContext{
		Domain:     "example.com",
		PHPVersion: "8.3",
		Repo:       "git@github.com:acme/shop.git",
		Branch:     "main",
		Jobs:       []domain.ScheduledJob{{Schedule: "* * * * *", Command: "php artisan schedule:run"}},
	}
	if err := store.SaveSite("web-1", site); err != nil {
		t.Fatal(err)
	}

	// Upsert: same domain, new PHP version.
	site.PHPVersion = "8.4"
	if err := store.SaveSite("web-1", site); err != nil {
		t.Fatal(err)
	}

	got, err := store.FindSite("web-1", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&site, got); diff != "" {
		t.Errorf("site mismatch (-want +got):\n%s", diff)
	}

	sites, err := store.SitesForServer("web-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 {
		t.Errorf("upsert must not duplicate, got %d sites", len(sites))
	}
}
