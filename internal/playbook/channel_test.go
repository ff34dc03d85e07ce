package playbook

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

func TestNewOutputChannel_UniquePaths(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		c := NewOutputChannel()
		if seen[c.Path] {
			t.Fatalf("duplicate channel path: %s", c.Path)
		}
		seen[c.Path] = true
		if !strings.HasPrefix(c.Path, remoteTmpDir+"/out-") {
			t.Fatalf("path not rooted in the shared temp dir: %s", c.Path)
		}
	}
}

func TestReadCommand_ReadsAndDeletesInOneInvocation(t *testing.T) {
	c := NewOutputChannel()
	cmd := c.ReadCommand()

	if !strings.Contains(cmd, "cat -- "+c.Path) {
		t.Errorf("read command must cat the channel path: %q", cmd)
	}
	if !strings.Contains(cmd, "rm -f -- "+c.Path) {
		t.Errorf("read command must remove the channel path: %q", cmd)
	}
	if !strings.Contains(cmd, "&&") {
		t.Errorf("delete must be chained to a successful read: %q", cmd)
	}
}

func TestDecode_ValidDocument(t *testing.T) {
	doc := "status: success\nports:\n  \"22\": sshd\n  \"443\": caddy\n"

	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"status": "success",
		"ports": map[string]any{
			"22":  "sshd",
			"443": "caddy",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded document mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_AcceptsJSONSubset(t *testing.T) {
	got, err := Decode([]byte(`{"status": "success", "count": 3}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["status"] != "success" {
		t.Errorf("status = %v", got["status"])
	}
}

func TestDecode_EmptyIsMalformed(t *testing.T) {
	for _, doc := range []string{"", "   ", "\n\n"} {
		if _, err := Decode([]byte(doc)); !errors.Is(err, domain.ErrMalformedResult) {
			t.Errorf("Decode(%q) = %v, want ErrMalformedResult", doc, err)
		}
	}
}

func TestDecode_NonMapTopLevelIsMalformed(t *testing.T) {
	for _, doc := range []string{"- a\n- b\n", "just a string", "42"} {
		if _, err := Decode([]byte(doc)); !errors.Is(err, domain.ErrMalformedResult) {
			t.Errorf("Decode(%q) = %v, want ErrMalformedResult", doc, err)
		}
	}
}

func TestDecode_UnparsableIsMalformed(t *testing.T) {
	if _, err := Decode([]byte("a: [unclosed")); !errors.Is(err, domain.ErrMalformedResult) {
		t.Errorf("expected ErrMalformedResult, got %v", err)
	}
}
