package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	SetPath(path)
	t.Cleanup(ResetPath)
	return path
}

func TestLoad_MissingFileReturnsZeroConfig(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&Config{}, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	useTempConfig(t)

	want := &Config{
		DefaultProvider: "hetzner",
		Region:          "fsn1",
		Size:            "cpx11",
		Image:           "ubuntu-24.04",
		SSHKeyPath:      "/home/me/.ssh/deploy",
		Username:        "deploy",
	}
	if err := want.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := useTempConfig(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestLookup(t *testing.T) {
	if spec := Lookup("Region"); spec == nil || spec.Name != "region" {
		t.Errorf("expected case-insensitive lookup of region, got %+v", spec)
	}
	if spec := Lookup("no-such-key"); spec != nil {
		t.Errorf("expected nil for unknown key, got %+v", spec)
	}
}

func TestKeySpecs_GetSetSymmetry(t *testing.T) {
	for _, k := range Keys {
		t.Run(k.Name, func(t *testing.T) {
			cfg := &Config{}
			k.Set(cfg, "value-for-"+k.Name)
			if got := k.Get(cfg); got != "value-for-"+k.Name {
				t.Errorf("get after set returned %q", got)
			}
		})
	}
}
