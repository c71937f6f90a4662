package tenantguard

import (
	"context"
	"errors"
	"testing"
)

func TestWithTenantKeepsUser(t *testing.T) {
	ctx := WithRequestContext(context.Background(), RequestContext{TenantID: "t-1", UserID: " u-1 "})
	ctx = WithTenant(ctx, " t-2 ")

	rc, ok := RequestContextFrom(ctx)
	if !ok {
		t.Fatal("expected request context")
	}
	if rc.TenantID != "t-2" || rc.UserID != "u-1" {
		t.Fatalf("unexpected request context %+v", rc)
	}
}

func TestAmbientTenant(t *testing.T) {
	if got := AmbientTenant(context.Background()); got != "" {
		t.Fatalf("expected no tenant, got %q", got)
	}
	if got := AmbientTenant(WithTenant(context.Background(), "t-1")); got != "t-1" {
		t.Fatalf("expected t-1, got %q", got)
	}
}

func TestContextsAreIsolated(t *testing.T) {
	base := context.Background()
	a := WithTenant(base, "a")
	b := WithTenant(base, "b")
	if TenantFromContext(a) != "a" || TenantFromContext(b) != "b" || TenantFromContext(base) != "" {
		t.Fatal("request contexts leaked between derived contexts")
	}
}

func TestRunWithTenant(t *testing.T) {
	var seen string
	err := RunWithTenant(context.Background(), "t-job", func(ctx context.Context) error {
		seen = TenantFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != "t-job" {
		t.Fatalf("expected t-job, got %q", seen)
	}

	called := false
	err = RunWithTenant(context.Background(), "  ", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrMissingTenantScope) || called {
		t.Fatalf("expected ErrMissingTenantScope without running fn, got %v", err)
	}
}
