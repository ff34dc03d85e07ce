package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
	"github.com/loadinglucian/deployer-php-sub001/internal/services/auth"
)

type stubClient struct{ name string }

func (s *stubClient) GetDisplayName() string { return s.name }
func (s *stubClient) Create(context.Context, domain.InstanceSpec) (string, error) {
	return "", nil
}
func (s *stubClient) AwaitReady(context.Context, string) error { return nil }
func (s *stubClient) GetAddress(context.Context, string) (string, error) {
	return "", nil
}
func (s *stubClient) Destroy(context.Context, string) error { return nil }

func TestRegisterAndGet(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("TestCloud", func(store auth.Store) (domain.CloudClient, error) {
		if _, err := store.GetToken("testcloud"); err != nil {
			return nil, err
		}
		return &stubClient{name: "TestCloud"}, nil
	})

	store := auth.NewMockStore()
	store.SetToken("testcloud", "tok")

	// Lookup is case-insensitive via key normalization.
	client, err := Get("testcloud", store)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if client.GetDisplayName() != "TestCloud" {
		t.Errorf("unexpected client: %s", client.GetDisplayName())
	}
}

func TestGet_UnknownProvider(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Get("nope", auth.NewMockStore())
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestGet_MissingTokenSurfaces(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	RegisterHetzner()

	_, err := Get("hetzner", auth.NewMockStore())
	if err == nil {
		t.Fatal("expected an error when no token is stored")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	factory := func(auth.Store) (domain.CloudClient, error) { return &stubClient{}, nil }
	Register("dup", factory)

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration must panic")
		}
	}()
	Register("dup", factory)
}
