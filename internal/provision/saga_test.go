package provision

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// fakeCloud scripts each saga step and records destroy calls.
type fakeCloud struct {
	createID  string
	createErr error
	readyErr  error
	address   string
	addrErr   error

	destroyErr    error
	destroyCalls  []string
	createdCalled bool
}

func (f *fakeCloud) GetDisplayName() string { return "FakeCloud" }

func (f *fakeCloud) Create(context.Context, domain.InstanceSpec) (string, error) {
	f.createdCalled = true
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createID, nil
}

func (f *fakeCloud) AwaitReady(context.Context, string) error { return f.readyErr }

func (f *fakeCloud) GetAddress(context.Context, string) (string, error) {
	if f.addrErr != nil {
		return "", f.addrErr
	}
	return f.address, nil
}

func (f *fakeCloud) Destroy(_ context.Context, id string) error {
	f.destroyCalls = append(f.destroyCalls, id)
	return f.destroyErr
}

// fakeInventory records created targets.
type fakeInventory struct {
	created   []*domain.ServerTarget
	createErr error
}

func (f *fakeInventory) Create(t *domain.ServerTarget) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, t)
	return nil
}

func okVerify(context.Context, domain.ServerTarget) error { return nil }

func testSpec() domain.InstanceSpec {
	return domain.InstanceSpec{Name: "web-1", Region: "fsn1", Size: "cpx11", Image: "ubuntu-24.04"}
}

func testOpts() TargetOptions {
	return TargetOptions{Provider: "hetzner", Username: "root"}
}

func TestProvision_HappyPath(t *testing.T) {
	cloud := &fakeCloud{createID: "42", address: "203.0.113.10"}
	inv := &fakeInventory{}
	saga := New(cloud, inv, WithVerify(okVerify))

	target, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saga.State() != StateRegistered {
		t.Errorf("state = %s, want %s", saga.State(), StateRegistered)
	}
	if target.Host != "203.0.113.10" || target.ProviderResourceID != "42" || target.Provider != "hetzner" {
		t.Errorf("unexpected target: %+v", target)
	}
	if len(inv.created) != 1 {
		t.Errorf("expected one inventory registration, got %d", len(inv.created))
	}
	if len(cloud.destroyCalls) != 0 {
		t.Errorf("destroy must not run on success, got %v", cloud.destroyCalls)
	}
}

func TestProvision_CreateFailureNeverCompensates(t *testing.T) {
	createErr := errors.New("quota exceeded")
	cloud := &fakeCloud{createErr: createErr}
	saga := New(cloud, &fakeInventory{}, WithVerify(okVerify))

	_, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if !errors.Is(err, createErr) {
		t.Fatalf("expected create error, got %v", err)
	}
	if saga.State() != StateFailed {
		t.Errorf("state = %s, want %s", saga.State(), StateFailed)
	}
	if len(cloud.destroyCalls) != 0 {
		t.Errorf("destroy must never run when create itself failed, got %v", cloud.destroyCalls)
	}
}

func TestProvision_AwaitReadyFailureRollsBack(t *testing.T) {
	readyErr := errors.New("timed out waiting for active state")
	cloud := &fakeCloud{createID: "42", readyErr: readyErr}
	saga := New(cloud, &fakeInventory{}, WithVerify(okVerify))

	_, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if !errors.Is(err, readyErr) {
		t.Fatalf("expected the original readiness error, got %v", err)
	}
	if saga.State() != StateRolledBack {
		t.Errorf("state = %s, want %s", saga.State(), StateRolledBack)
	}
	if len(cloud.destroyCalls) != 1 || cloud.destroyCalls[0] != "42" {
		t.Errorf("expected destroy(42), got %v", cloud.destroyCalls)
	}
}

func TestProvision_DestroyFailureNeverMasksOriginalError(t *testing.T) {
	readyErr := errors.New("never became active")
	destroyErr := errors.New("destroy API is down")
	cloud := &fakeCloud{createID: "42", readyErr: readyErr, destroyErr: destroyErr}
	var out bytes.Buffer
	saga := New(cloud, &fakeInventory{}, WithVerify(okVerify), WithOutput(&out))

	_, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if !errors.Is(err, readyErr) {
		t.Fatalf("original error must be returned, got %v", err)
	}
	if errors.Is(err, destroyErr) {
		t.Error("destroy failure must not replace the original error")
	}
	if !strings.Contains(out.String(), "clean it up manually") {
		t.Errorf("destroy failure must be logged, output:\n%s", out.String())
	}
}

func TestProvision_AddressFailureRollsBack(t *testing.T) {
	addrErr := errors.New("no public network")
	cloud := &fakeCloud{createID: "7", addrErr: addrErr}
	saga := New(cloud, &fakeInventory{}, WithVerify(okVerify))

	_, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if !errors.Is(err, addrErr) {
		t.Fatalf("expected address error, got %v", err)
	}
	if len(cloud.destroyCalls) != 1 {
		t.Errorf("expected one destroy call, got %v", cloud.destroyCalls)
	}
}

func TestProvision_UnreachableIsNonFatal(t *testing.T) {
	cloud := &fakeCloud{createID: "42", address: "203.0.113.10"}
	inv := &fakeInventory{}
	var out bytes.Buffer
	saga := New(cloud, inv,
		WithVerify(func(context.Context, domain.ServerTarget) error {
			return domain.ErrUnreachable
		}),
		WithOutput(&out),
	)

	target, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if err != nil {
		t.Fatalf("reachability failure must not fail the saga: %v", err)
	}
	if target == nil || len(inv.created) != 1 {
		t.Fatal("server must still be registered")
	}
	if saga.State() != StateRegistered {
		t.Errorf("state = %s, want %s", saga.State(), StateRegistered)
	}
	if !strings.Contains(out.String(), "Warning") {
		t.Errorf("unreachable warning missing, output:\n%s", out.String())
	}
	if len(cloud.destroyCalls) != 0 {
		t.Errorf("destroy must not run, got %v", cloud.destroyCalls)
	}
}

func TestProvision_RegisterFailureRollsBack(t *testing.T) {
	regErr := domain.ErrConflict
	cloud := &fakeCloud{createID: "42", address: "203.0.113.10"}
	saga := New(cloud, &fakeInventory{createErr: regErr}, WithVerify(okVerify))

	_, err := saga.Provision(context.Background(), testSpec(), testOpts())
	if !errors.Is(err, regErr) {
		t.Fatalf("expected registration error, got %v", err)
	}
	if saga.State() != StateRolledBack {
		t.Errorf("state = %s, want %s", saga.State(), StateRolledBack)
	}
	if len(cloud.destroyCalls) != 1 || cloud.destroyCalls[0] != "42" {
		t.Errorf("expected destroy(42), got %v", cloud.destroyCalls)
	}
}
