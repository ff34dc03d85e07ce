package playbook

import (
	"strings"
	"testing"

	"al.essio.dev/pkg/shellescape"
	"github.com/google/go-cmp/cmp"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

func TestVarName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fw_allow", "DEPLOYER_FW_ALLOW"},
		{"FW_ALLOW", "DEPLOYER_FW_ALLOW"},
		{"DEPLOYER_PERMS", "DEPLOYER_PERMS"},
		{" perms ", "DEPLOYER_PERMS"},
	}
	for _, tt := range tests {
		if got := VarName(tt.in); got != tt.want {
			t.Errorf("VarName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVars_SetOverwritesInPlace(t *testing.T) {
	v := NewVars()
	v.Set("DIST", "ubuntu")
	v.Set("PERMS", "root")
	v.Set("DIST", "debian")

	want := []string{"DEPLOYER_DIST", "DEPLOYER_PERMS"}
	if diff := cmp.Diff(want, v.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got, _ := v.Get("DIST"); got != "debian" {
		t.Errorf("expected overwritten value, got %q", got)
	}
}

func TestVars_ShellPrefixEscapes(t *testing.T) {
	value := "it's a 'test' $(reboot)"
	v := NewVars()
	v.Set("MSG", value)

	want := "DEPLOYER_MSG=" + shellescape.Quote(value)
	if got := v.ShellPrefix(); got != want {
		t.Errorf("ShellPrefix() = %q, want %q", got, want)
	}
}

func TestBuildVars_CallerOverridesWin(t *testing.T) {
	target := domain.ServerTarget{
		Name:     "web-1",
		Host:     "203.0.113.10",
		Username: "deploy",
		Facts:    &domain.Facts{Distribution: "ubuntu", PermissionLevel: "root"},
	}

	v, err := BuildVars(target, nil, "/tmp/deployer/out-1.yml", map[string]any{
		"DEPLOYER_PERMS": "sudo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := v.Get("PERMS"); got != "sudo" {
		t.Errorf("explicit caller value must win, got %q", got)
	}
	if got, _ := v.Get("DIST"); got != "ubuntu" {
		t.Errorf("auto-derived dist lost, got %q", got)
	}
}

func TestBuildVars_AlwaysIncludesOutputPath(t *testing.T) {
	target := domain.ServerTarget{Name: "web-1", Host: "h", Username: "u"}

	v, err := BuildVars(target, nil, "/tmp/deployer/out-42.yml", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.Get("OUTPUT_FILE"); !ok || got != "/tmp/deployer/out-42.yml" {
		t.Errorf("expected output path variable, got %q (present=%v)", got, ok)
	}
}

func TestBuildVars_SiteContext(t *testing.T) {
	target := domain.ServerTarget{Name: "web-1", Host: "h", Username: "u"}
	site := &domain.SiteContext{
		Domain:     "example.com",
		PHPVersion: "8.3",
		Repo:       "git@github.com:acme/shop.git",
		Branch:     "main",
		Jobs: []domain.ScheduledJob{
			{Schedule: "* * * * *", Command: "php artisan schedule:run"},
		},
	}

	v, err := BuildVars(target, site, "/tmp/x.yml", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := v.Get("DOMAIN"); got != "example.com" {
		t.Errorf("domain = %q", got)
	}
	if got, _ := v.Get("PHP_VERSION"); got != "8.3" {
		t.Errorf("php version = %q", got)
	}
	jobs, _ := v.Get("JOBS")
	if !strings.Contains(jobs, `"schedule":"* * * * *"`) {
		t.Errorf("jobs not JSON-encoded: %q", jobs)
	}
	// Workers absent from the site still inject an empty JSON array, so
	// scripts never see an unset variable.
	if got, ok := v.Get("WORKERS"); !ok || got != "[]" {
		t.Errorf("workers = %q (present=%v), want empty array", got, ok)
	}
}

func TestBuildVars_UnencodableValueFailsFast(t *testing.T) {
	target := domain.ServerTarget{Name: "web-1", Host: "h", Username: "u"}

	_, err := BuildVars(target, nil, "/tmp/x.yml", map[string]any{
		"BAD": make(chan int),
	})
	if err == nil {
		t.Fatal("expected JSON encoding failure to abort construction")
	}
}

func TestVars_SetAnyScalars(t *testing.T) {
	v := NewVars()
	if err := v.SetAny("COUNT", 3); err != nil {
		t.Fatal(err)
	}
	if err := v.SetAny("ENABLED", true); err != nil {
		t.Fatal(err)
	}
	if err := v.SetAny("PORTS", []string{"80", "443"}); err != nil {
		t.Fatal(err)
	}

	if got, _ := v.Get("COUNT"); got != "3" {
		t.Errorf("int scalar = %q", got)
	}
	if got, _ := v.Get("ENABLED"); got != "true" {
		t.Errorf("bool scalar = %q", got)
	}
	if got, _ := v.Get("PORTS"); got != `["80","443"]` {
		t.Errorf("array = %q, want JSON", got)
	}
}
